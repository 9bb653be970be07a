package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/locatrova/locatrova-admin/internal/auth"
	"github.com/locatrova/locatrova-admin/internal/config"
	"github.com/locatrova/locatrova-admin/internal/storage"
)

// newTestClient wires a client against a test server with a fresh token
// store and bus.
func newTestClient(t *testing.T, origin string) (*Client, *auth.TokenStore, *auth.Bus) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	tokens := auth.NewTokenStore(store)
	bus := auth.NewBus()
	cfg := config.Config{
		APIOrigin:      origin,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     1,
		RetryBaseDelay: time.Millisecond,
	}
	return NewClient(cfg, tokens, bus), tokens, bus
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestRequestFailsFastWithoutToken(t *testing.T) {
	calls := int32(0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c, _, _ := newTestClient(t, srv.URL)
	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil, RequestOptions{RequiresAuth: true})

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindAuthentication, apiErr.Kind)
	require.Zero(t, atomic.LoadInt32(&calls), "no network call may happen without a token")
}

func TestSingleRefreshOn401(t *testing.T) {
	var dataCalls, refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&dataCalls, 1)
		if n == 1 {
			writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"error":"token expired"}`)
			return
		}
		require.Equal(t, "Bearer fresh-access", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"items":[],"total":0}}`)
	})
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "refresh-1", req.RefreshToken)
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"accessToken":"fresh-access"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, tokens, _ := newTestClient(t, srv.URL)
	require.NoError(t, tokens.SetTokens(auth.TokenPair{AccessToken: "stale-access", RefreshToken: "refresh-1"}))

	data, err := c.Request(context.Background(), http.MethodGet, "/users", nil, RequestOptions{RequiresAuth: true})
	require.NoError(t, err)
	require.JSONEq(t, `{"items":[],"total":0}`, string(data))

	require.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls), "exactly one refresh call")
	require.Equal(t, int32(2), atomic.LoadInt32(&dataCalls), "exactly one retried request")
	require.Equal(t, "fresh-access", tokens.AccessToken())
	require.Equal(t, "refresh-1", tokens.RefreshToken(), "refresh token is not rotated")
}

func TestRefreshFailureCascade(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"error":"token expired"}`)
	})
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, `{"success":false,"error":"refresh store down"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, tokens, bus := newTestClient(t, srv.URL)
	var mu sync.Mutex
	var events []auth.Event
	bus.Subscribe(func(ev auth.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	require.NoError(t, tokens.SetTokens(auth.TokenPair{AccessToken: "stale", RefreshToken: "dead"}))

	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil, RequestOptions{RequiresAuth: true})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindAuthentication, apiErr.Kind)

	require.Empty(t, tokens.AccessToken(), "both tokens are cleared")
	require.Empty(t, tokens.RefreshToken())
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []auth.Event{auth.EventUnauthenticated}, events)
}

func TestConcurrent401sCoalesceOnOneRefresh(t *testing.T) {
	var refreshCalls int32
	var dataCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			atomic.AddInt32(&dataCalls, 1)
			writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"error":"expired"}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"items":[],"total":0}}`)
	})
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		time.Sleep(100 * time.Millisecond) // hold the refresh open so callers pile up
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"accessToken":"fresh"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, tokens, _ := newTestClient(t, srv.URL)
	require.NoError(t, tokens.SetTokens(auth.TokenPair{AccessToken: "stale", RefreshToken: "r1"}))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Request(context.Background(), http.MethodGet, "/users", nil, RequestOptions{RequiresAuth: true})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls), "concurrent 401s must share one refresh")
}

func TestLoginStoresTokensAndPublishes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK,
			`{"success":true,"data":{"accessToken":"a1","refreshToken":"r1","user":{"username":"admin"}}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, tokens, bus := newTestClient(t, srv.URL)
	var events []auth.Event
	bus.Subscribe(func(ev auth.Event) { events = append(events, ev) })

	data, err := c.Login(context.Background(), "admin@locatrova.it", "pw")
	require.NoError(t, err)
	require.Contains(t, string(data), "admin", "full payload is propagated")
	require.Equal(t, "a1", tokens.AccessToken())
	require.Equal(t, "r1", tokens.RefreshToken())
	require.Equal(t, []auth.Event{auth.EventLogin}, events)
}

func TestLoginFailurePropagatesServerMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"error":"invalid credentials"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, tokens, _ := newTestClient(t, srv.URL)
	_, err := c.Login(context.Background(), "admin@locatrova.it", "wrong")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "invalid credentials", apiErr.Message)
	require.Empty(t, tokens.AccessToken())
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, `{"success":false,"error":"boom"}`)
	})
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, `{"success":false,"error":"boom"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, tokens, bus := newTestClient(t, srv.URL)
	var events []auth.Event
	bus.Subscribe(func(ev auth.Event) { events = append(events, ev) })
	require.NoError(t, tokens.SetTokens(auth.TokenPair{AccessToken: "a1", RefreshToken: "r1"}))

	require.NoError(t, c.Logout(context.Background()))
	require.Empty(t, tokens.AccessToken())
	require.Empty(t, tokens.RefreshToken())
	require.Contains(t, events, auth.EventLogout)
}
