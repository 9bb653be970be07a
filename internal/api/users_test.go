package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/locatrova/locatrova-admin/internal/auth"
)

func TestUserDetailsRejectsBadIDWithoutNetwork(t *testing.T) {
	calls := int32(0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c, tokens, _ := newTestClient(t, srv.URL)
	require.NoError(t, tokens.SetTokens(auth.TokenPair{AccessToken: "a1", RefreshToken: "r1"}))

	_, err := NewUsersService(c).Details(context.Background(), "not-a-valid-id")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindValidation, apiErr.Kind)
	require.Zero(t, atomic.LoadInt32(&calls), "validation failures must not reach the transport")
}

func TestListRecoversFromFlakyServer(t *testing.T) {
	calls := int32(0)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeEnvelope(w, http.StatusInternalServerError, `{"success":false,"error":"internal server error"}`)
			return
		}
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		writeEnvelope(w, http.StatusOK,
			`{"success":true,"data":{"items":[{"_id":"64b2f0a1c9e77a0012345678","username":"admin"}],"total":11}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, tokens, _ := newTestClient(t, srv.URL)
	c.maxRetries = 3
	require.NoError(t, tokens.SetTokens(auth.TokenPair{AccessToken: "a1", RefreshToken: "r1"}))

	list, err := NewUsersService(c).List(context.Background(), UserListOptions{Page: intPtr(2), Limit: intPtr(5)})
	require.NoError(t, err)
	require.Equal(t, 11, list.Total)
	require.Len(t, list.Items, 1)
	require.Equal(t, "admin", list.Items[0].Username)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls), "two failures then one success")
}

func TestSearchRequiresQuery(t *testing.T) {
	c, _, _ := newTestClient(t, "http://unused.invalid")
	_, err := NewUsersService(c).Search(context.Background(), "   ", nil, nil)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindValidation, apiErr.Kind)
}
