package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/locatrova/locatrova-admin/internal/storage"
)

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	return NewTokenStore(s)
}

// signToken issues a throwaway HS256 token with the client's claim set.
func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":   "64b2f0a1c9e77a0012345678",
		"email":    "admin@locatrova.it",
		"username": "admin",
		"exp":      exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestIsAuthenticated(t *testing.T) {
	ts := newTestStore(t)

	// No token at all.
	require.False(t, ts.IsAuthenticated())

	// Valid token with a future expiry.
	require.NoError(t, ts.SetTokens(TokenPair{AccessToken: signToken(t, time.Now().Add(time.Hour)), RefreshToken: "r1"}))
	require.True(t, ts.IsAuthenticated())

	// Expired token.
	require.NoError(t, ts.SetTokens(TokenPair{AccessToken: signToken(t, time.Now().Add(-time.Minute)), RefreshToken: "r1"}))
	require.False(t, ts.IsAuthenticated())

	// Unparsable token counts as expired and must not panic.
	require.NoError(t, ts.SetTokens(TokenPair{AccessToken: "garbage.token.value", RefreshToken: "r1"}))
	require.False(t, ts.IsAuthenticated())
}

func TestCurrentUser(t *testing.T) {
	ts := newTestStore(t)

	require.Nil(t, ts.CurrentUser())

	require.NoError(t, ts.SetTokens(TokenPair{AccessToken: signToken(t, time.Now().Add(time.Hour))}))
	u := ts.CurrentUser()
	require.NotNil(t, u)
	require.Equal(t, "64b2f0a1c9e77a0012345678", u.ID)
	require.Equal(t, "admin@locatrova.it", u.Email)
	require.Equal(t, "admin", u.Username)

	require.NoError(t, ts.SetTokens(TokenPair{AccessToken: "not-a-jwt"}))
	require.Nil(t, ts.CurrentUser())
}

func TestTokensPersistAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := storage.Open(path)
	require.NoError(t, err)

	ts := NewTokenStore(s)
	require.NoError(t, ts.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r1"}))

	s2, err := storage.Open(path)
	require.NoError(t, err)
	ts2 := NewTokenStore(s2)
	require.Equal(t, "a1", ts2.AccessToken())
	require.Equal(t, "r1", ts2.RefreshToken())
}

func TestSetAccessTokenPreservesRefresh(t *testing.T) {
	ts := newTestStore(t)
	require.NoError(t, ts.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, ts.SetAccessToken("a2"))
	require.Equal(t, "a2", ts.AccessToken())
	require.Equal(t, "r1", ts.RefreshToken())
}

func TestClearTokens(t *testing.T) {
	ts := newTestStore(t)
	require.NoError(t, ts.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, ts.ClearTokens())
	require.Empty(t, ts.AccessToken())
	require.Empty(t, ts.RefreshToken())
	require.False(t, ts.IsAuthenticated())
}

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	var seen []Event
	bus.Subscribe(func(ev Event) { seen = append(seen, ev) })
	bus.Subscribe(func(ev Event) { seen = append(seen, ev) })

	bus.Publish(EventLogin)
	bus.Publish(EventLogout)
	require.Equal(t, []Event{EventLogin, EventLogin, EventLogout, EventLogout}, seen)
}
