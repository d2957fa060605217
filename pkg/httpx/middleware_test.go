package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pgnest/pgnest/pkg/cryptox"
	"github.com/pgnest/pgnest/pkg/httpx"
	"github.com/pgnest/pgnest/pkg/jwtx"
)

func newTestVerifier(t *testing.T) (jwtx.Signer, jwtx.Verifier) {
	t.Helper()

	pemBytes, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("test-key", pemBytes)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	verifier, err := jwtx.NewVerifier(jwtx.AlgorithmEdDSA, keys, "pgnest-auth")
	require.NoError(t, err)

	return signer, verifier
}

func signToken(t *testing.T, signer jwtx.Signer, role string, ttl time.Duration) string {
	t.Helper()
	claims := jwtx.NewAccessClaims(
		"user-1", "sess-1",
		"mira@pgnest.in", role, "branch-1",
		ttl, "pgnest-auth", time.Now().UTC(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := httpx.Chain(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}),
		mw("outer"), mw("inner"),
	)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	signer, verifier := newTestVerifier(t)

	var gotUserID, gotRole string
	protected := httpx.AuthnMiddleware(verifier)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotUserID = httpx.UserIDFromCtx(r.Context())
			gotRole, _ = r.Context().Value(httpx.CtxKeyRole).(string)
			w.WriteHeader(http.StatusOK)
		}))

	t.Run("valid token passes and populates context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signer, "admin", time.Minute))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user-1", gotUserID)
		require.Equal(t, "admin", gotRole)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), httpx.CodeInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := jwtx.NewAccessClaims(
			"user-1", "sess-1",
			"mira@pgnest.in", "admin", "branch-1",
			time.Minute, "pgnest-auth", time.Now().UTC().Add(-2*time.Minute),
		)
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	signer, verifier := newTestVerifier(t)

	handler := func(allowed ...string) http.Handler {
		return httpx.Chain(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
			httpx.AuthnMiddleware(verifier),
			httpx.RequireRole(allowed...),
		)
	}

	t.Run("allowed role gets through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signer, "admin", time.Minute))
		rec := httptest.NewRecorder()

		handler("admin", "superadmin").ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("disallowed role gets 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signer, "resident", time.Minute))
		rec := httptest.NewRecorder()

		handler("admin", "superadmin").ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), httpx.CodeInsufficientRole)
	})

	t.Run("roles are a flat set not a hierarchy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signer, "superadmin", time.Minute))
		rec := httptest.NewRecorder()

		handler("admin").ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}
