package authsdk_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgnest/pgnest/pkg/authsdk"
)

// refreshServer fakes the refresh endpoint, counting exchanges and rejecting
// any refresh token it did not itself hand out.
type refreshServer struct {
	mu        sync.Mutex
	exchanges atomic.Int64
	valid     map[string]bool
}

func newRefreshServer(initialToken string) *refreshServer {
	return &refreshServer{valid: map[string]bool{initialToken: true}}
}

func (rs *refreshServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		rs.mu.Lock()
		defer rs.mu.Unlock()

		if !rs.valid[req.RefreshToken] {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   authsdk.ErrorCodeInvalidRefresh,
				"message": "refresh token is invalid, expired or revoked",
			})
			return
		}

		// Rotate: old token is dead, a new one takes its place.
		delete(rs.valid, req.RefreshToken)
		n := rs.exchanges.Add(1)
		next := fmt.Sprintf("refresh-%d", n)
		rs.valid[next] = true

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"accessToken":  fmt.Sprintf("access-%d", n),
				"refreshToken": next,
				"tokenType":    "Bearer",
				"expiresIn":    900,
			},
		})
	})
	mux.HandleFunc("GET /v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "user-1", "email": "mira@pgnest.in", "role": "resident"},
		})
	})
	return mux
}

func TestSessionConcurrentRefreshSingleExchange(t *testing.T) {
	rs := newRefreshServer("refresh-0")
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	client := authsdk.NewSDKClient(srv.URL)

	// expiresIn of 0 makes the access token already stale, so the first
	// authenticated call must refresh.
	session := client.NewSessionFromTokens("stale-access", "refresh-0", 0)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = session.Me(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "goroutine %d", i)
	}

	// All ten callers shared one refresh. More than one exchange would
	// mean a caller presented the already-rotated token and got kicked.
	require.Equal(t, int64(1), rs.exchanges.Load())
	require.Equal(t, "refresh-1", session.RefreshToken())
}

func TestSessionSequentialRefreshRotates(t *testing.T) {
	rs := newRefreshServer("refresh-0")
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	client := authsdk.NewSDKClient(srv.URL)

	tokenResp, err := client.Refresh(context.Background(), "refresh-0")
	require.NoError(t, err)
	require.Equal(t, "refresh-1", tokenResp.RefreshToken)

	// Presenting the consumed token again must fail.
	_, err = client.Refresh(context.Background(), "refresh-0")
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, authsdk.ErrorCodeInvalidRefresh, apiErr.Code)

	// The replacement works.
	tokenResp, err = client.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "refresh-2", tokenResp.RefreshToken)
}

func TestSessionTerminalRefreshFailureClearsTokens(t *testing.T) {
	rs := newRefreshServer("refresh-0")
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	client := authsdk.NewSDKClient(srv.URL)
	session := client.NewSessionFromTokens("stale-access", "revoked-token", 0)

	_, err := session.Me(context.Background())
	require.Error(t, err)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, authsdk.ErrorCodeInvalidRefresh, apiErr.Code)

	// The dead token chain is dropped so later calls fail fast.
	require.Empty(t, session.AccessToken())
	require.Empty(t, session.RefreshToken())
}
