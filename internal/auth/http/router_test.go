package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/pgnest/pgnest/internal/auth/service"
	"github.com/pgnest/pgnest/internal/auth/store"
	"github.com/pgnest/pgnest/internal/auth/store/drivers/sqlite"
	"github.com/pgnest/pgnest/pkg/authsdk"
	"github.com/pgnest/pgnest/pkg/cryptox"
	"github.com/pgnest/pgnest/pkg/httpx"
	"github.com/pgnest/pgnest/pkg/jwtx"
)

const testBootstrapToken = "router-test-bootstrap-token"

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "http-test-*")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// newTestServer builds the full router over a fresh sqlite store, wired the
// same way Application.initServices does it. Each call gets its own rate
// limiter state because each route chain is constructed per router.
func newTestServer(t *testing.T, accessTTL time.Duration) (*httptest.Server, store.Store) {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    "pgnest-auth-test",
		NumKeys:   1,
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(keyManager.KeySet, keyManager.Verifier, "pgnest-auth-test", "test", st, logger)
	router.TokenService = &service.TokenService{
		KeyManager: keyManager,
		Store:      st,
		Issuer:     "pgnest-auth-test",
		AccessTTL:  accessTTL,
		RefreshTTL: time.Hour,
	}
	router.UserService = &service.UserService{Store: st}
	router.OnboardingService = &service.OnboardingService{Store: st}
	router.MFAService = &service.MFAService{Store: st, Issuer: "pgnest-auth-test"}
	router.BootstrapService = &service.BootstrapService{Store: st, Token: testBootstrapToken}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (int, []byte) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// decodeData unpacks a success envelope into out.
func decodeData(t *testing.T, raw []byte, out any) {
	t.Helper()

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

// decodeError returns the error code from an error envelope.
func decodeError(t *testing.T, raw []byte) string {
	t.Helper()

	var env struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	require.False(t, env.Success)
	return env.Error
}

// bootstrapAndLogin runs the one-time bootstrap and logs the superadmin in.
func bootstrapAndLogin(t *testing.T, base string) authsdk.TokenResponse {
	t.Helper()

	status, raw := doJSON(t, http.MethodPost, base+"/v1/bootstrap", authsdk.BootstrapRequest{
		BranchName:    "Lakeside PG",
		BranchCode:    "LKS",
		AdminEmail:    "owner@lakeside.test",
		AdminName:     "Owner",
		AdminPassword: "correct-horse-battery",
	}, map[string]string{"X-Bootstrap-Token": testBootstrapToken})
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = doJSON(t, http.MethodPost, base+"/v1/auth/login", authsdk.LoginRequest{
		Email:    "owner@lakeside.test",
		Password: "correct-horse-battery",
	}, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	var pair authsdk.TokenResponse
	decodeData(t, raw, &pair)
	return pair
}

func TestBootstrapAndLogin(t *testing.T) {
	srv, _ := newTestServer(t, time.Minute)
	base := srv.URL

	t.Run("rejects wrong bootstrap token", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodPost, base+"/v1/bootstrap", authsdk.BootstrapRequest{
			BranchName:    "Lakeside PG",
			BranchCode:    "LKS",
			AdminEmail:    "owner@lakeside.test",
			AdminName:     "Owner",
			AdminPassword: "correct-horse-battery",
		}, map[string]string{"X-Bootstrap-Token": "nope"})
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, httpx.CodeInvalidToken, decodeError(t, raw))
	})

	pair := bootstrapAndLogin(t, base)
	require.Equal(t, "Bearer", pair.TokenType)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotNil(t, pair.User)
	require.Equal(t, "owner@lakeside.test", pair.User.Email)
	require.Equal(t, "superadmin", pair.User.Role)

	t.Run("bootstrap runs exactly once", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodPost, base+"/v1/bootstrap", authsdk.BootstrapRequest{
			BranchName:    "Second PG",
			BranchCode:    "SND",
			AdminEmail:    "other@lakeside.test",
			AdminName:     "Other",
			AdminPassword: "correct-horse-battery",
		}, map[string]string{"X-Bootstrap-Token": testBootstrapToken})
		require.Equal(t, http.StatusConflict, status, string(raw))
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodPost, base+"/v1/auth/login", authsdk.LoginRequest{
			Email:    "owner@lakeside.test",
			Password: "not-the-password",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, httpx.CodeInvalidCredentials, decodeError(t, raw))
	})

	t.Run("me returns the superadmin profile", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodGet, base+"/v1/auth/me", nil, bearer(pair.AccessToken))
		require.Equal(t, http.StatusOK, status, string(raw))

		var me authsdk.User
		decodeData(t, raw, &me)
		require.Equal(t, "owner@lakeside.test", me.Email)
		require.Equal(t, "superadmin", me.Role)
		require.True(t, me.Active)
	})

	t.Run("me without token rejected", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodGet, base+"/v1/auth/me", nil, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, httpx.CodeInvalidToken, decodeError(t, raw))
	})

	t.Run("superadmin lists all users", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodGet, base+"/v1/users", nil, bearer(pair.AccessToken))
		require.Equal(t, http.StatusOK, status, string(raw))

		var users []authsdk.User
		decodeData(t, raw, &users)
		require.Len(t, users, 1)
	})

	t.Run("jwks is served unenveloped", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodGet, base+"/.well-known/jwks.json", nil, nil)
		require.Equal(t, http.StatusOK, status)

		var jwks jwtx.JWKS
		require.NoError(t, json.Unmarshal(raw, &jwks))
		require.Len(t, jwks.Keys, 1)
		require.Equal(t, "OKP", jwks.Keys[0].Kty)
	})
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t, time.Minute)
	base := srv.URL
	pair := bootstrapAndLogin(t, base)

	status, raw := doJSON(t, http.MethodPost, base+"/v1/auth/refresh", authsdk.RefreshRequest{
		RefreshToken: pair.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	var rotated authsdk.TokenResponse
	decodeData(t, raw, &rotated)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	t.Run("an access token is not a refresh token", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodPost, base+"/v1/auth/refresh", authsdk.RefreshRequest{
			RefreshToken: rotated.AccessToken,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, httpx.CodeInvalidRefresh, decodeError(t, raw))
	})

	t.Run("replaying the old token fails", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodPost, base+"/v1/auth/refresh", authsdk.RefreshRequest{
			RefreshToken: pair.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, httpx.CodeInvalidRefresh, decodeError(t, raw))
	})

	t.Run("logout revokes the rotated token", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, base+"/v1/auth/logout", authsdk.LogoutRequest{
			RefreshToken: rotated.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusNoContent, status)

		status, raw := doJSON(t, http.MethodPost, base+"/v1/auth/refresh", authsdk.RefreshRequest{
			RefreshToken: rotated.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, httpx.CodeInvalidRefresh, decodeError(t, raw))
	})
}

func TestOnboardingOverHTTP(t *testing.T) {
	srv, st := newTestServer(t, time.Minute)
	base := srv.URL
	admin := bootstrapAndLogin(t, base)

	// The superadmin is branchless; read the bootstrapped branch off the store.
	branches, err := st.Branches().ListBranches(context.Background())
	require.NoError(t, err)
	require.Len(t, branches, 1)

	status, raw := doJSON(t, http.MethodPost, base+"/v1/onboarding/tokens", authsdk.OnboardingMintRequest{
		BranchID: branches[0].ID,
		Role:     "resident",
		TTL:      "72h",
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusCreated, status, string(raw))

	var minted authsdk.OnboardingMintResponse
	decodeData(t, raw, &minted)
	require.NotEmpty(t, minted.Token)
	require.True(t, minted.ExpiresAt.After(time.Now()))

	var residentPair authsdk.TokenResponse
	t.Run("redeem creates a logged-in resident", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodPost, base+"/v1/onboarding/redeem", authsdk.OnboardingRedeemRequest{
			Token:    minted.Token,
			Email:    "tenant@lakeside.test",
			Name:     "Tenant",
			Password: "a-long-enough-password",
		}, nil)
		require.Equal(t, http.StatusCreated, status, string(raw))
		decodeData(t, raw, &residentPair)
		require.NotEmpty(t, residentPair.AccessToken)
	})

	t.Run("resident cannot list users", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodGet, base+"/v1/users", nil, bearer(residentPair.AccessToken))
		require.Equal(t, http.StatusForbidden, status)
		require.Equal(t, httpx.CodeInsufficientRole, decodeError(t, raw))
	})

	t.Run("resident cannot mint onboarding tokens", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, base+"/v1/onboarding/tokens", authsdk.OnboardingMintRequest{
			BranchID: "whatever",
			Role:     "resident",
		}, bearer(residentPair.AccessToken))
		require.Equal(t, http.StatusForbidden, status)
	})

	t.Run("replaying a single-use token fails", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodPost, base+"/v1/onboarding/redeem", authsdk.OnboardingRedeemRequest{
			Token:    minted.Token,
			Email:    "another@lakeside.test",
			Name:     "Another",
			Password: "a-long-enough-password",
		}, nil)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, httpx.CodeInvalidToken, decodeError(t, raw))
	})
}

func TestMFAChallengeOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t, time.Minute)
	base := srv.URL
	pair := bootstrapAndLogin(t, base)

	status, raw := doJSON(t, http.MethodPost, base+"/v1/mfa/totp/enroll", nil, bearer(pair.AccessToken))
	require.Equal(t, http.StatusOK, status, string(raw))

	var enrollment authsdk.TOTPEnrollResponse
	decodeData(t, raw, &enrollment)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.QRCode, "otpauth://totp/")

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)

	status, raw = doJSON(t, http.MethodPost, base+"/v1/mfa/totp/verify", authsdk.TOTPCodeRequest{Code: code}, bearer(pair.AccessToken))
	require.Equal(t, http.StatusOK, status, string(raw))

	var codes authsdk.BackupCodesResponse
	decodeData(t, raw, &codes)
	require.Len(t, codes.Codes, 10)

	// A fresh login now returns an MFA challenge instead of tokens.
	status, raw = doJSON(t, http.MethodPost, base+"/v1/auth/login", authsdk.LoginRequest{
		Email:    "owner@lakeside.test",
		Password: "correct-horse-battery",
	}, nil)
	require.Equal(t, http.StatusConflict, status, string(raw))

	var challenge struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Data    struct {
			MFAToken   string   `json:"mfaToken"`
			MFAMethods []string `json:"mfaMethods"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &challenge))
	require.False(t, challenge.Success)
	require.Equal(t, httpx.CodeMFARequired, challenge.Error)
	require.NotEmpty(t, challenge.Data.MFAToken)
	require.Contains(t, challenge.Data.MFAMethods, "totp")

	code, err = totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)

	status, raw = doJSON(t, http.MethodPost, base+"/v1/auth/mfa", authsdk.MFARequest{
		MFAToken: challenge.Data.MFAToken,
		Method:   "totp",
		Code:     code,
	}, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	var mfaPair authsdk.TokenResponse
	decodeData(t, raw, &mfaPair)
	require.NotEmpty(t, mfaPair.AccessToken)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	srv, _ := newTestServer(t, -time.Minute)
	base := srv.URL
	pair := bootstrapAndLogin(t, base)

	status, raw := doJSON(t, http.MethodGet, base+"/v1/auth/me", nil, bearer(pair.AccessToken))
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, httpx.CodeInvalidToken, decodeError(t, raw))
}

// countingTransport tallies the refresh exchanges an SDK client performs.
type countingTransport struct {
	refreshes atomic.Int64
}

func (ct *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Path == "/v1/auth/refresh" {
		ct.refreshes.Add(1)
	}
	return http.DefaultTransport.RoundTrip(req)
}

func TestSessionAutoRefreshOverHTTP(t *testing.T) {
	// 31 seconds of server-side validity leaves the session one second
	// before its 30-second early-refresh buffer kicks in.
	srv, _ := newTestServer(t, 31*time.Second)
	base := srv.URL
	bootstrapAndLogin(t, base)

	transport := &countingTransport{}
	client := authsdk.NewSDKClient(base)
	client.HTTPClient = &http.Client{Transport: transport, Timeout: 10 * time.Second}

	ctx := context.Background()
	session, err := client.Login(ctx, "owner@lakeside.test", "correct-horse-battery")
	require.NoError(t, err)

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "owner@lakeside.test", me.Email)
	require.Zero(t, transport.refreshes.Load())

	loginRefresh := session.RefreshToken()

	time.Sleep(1200 * time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = session.Me(ctx)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	// All four expired callers shared a single refresh exchange and the
	// session rotated onto a new refresh token.
	require.Equal(t, int64(1), transport.refreshes.Load())
	require.NotEqual(t, loginRefresh, session.RefreshToken())

	t.Run("the replaced refresh token is dead", func(t *testing.T) {
		_, err := client.Refresh(ctx, loginRefresh)
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.True(t, apiErr.IsTerminal())
	})
}

func TestChangePasswordOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t, time.Minute)
	base := srv.URL
	pair := bootstrapAndLogin(t, base)

	status, _ := doJSON(t, http.MethodPost, base+"/v1/auth/password", authsdk.ChangePasswordRequest{
		CurrentPassword: "correct-horse-battery",
		NewPassword:     "an-even-longer-password",
	}, bearer(pair.AccessToken))
	require.Equal(t, http.StatusNoContent, status)

	t.Run("old refresh tokens are revoked", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodPost, base+"/v1/auth/refresh", authsdk.RefreshRequest{
			RefreshToken: pair.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, httpx.CodeInvalidRefresh, decodeError(t, raw))
	})

	t.Run("new password works", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodPost, base+"/v1/auth/login", authsdk.LoginRequest{
			Email:    "owner@lakeside.test",
			Password: "an-even-longer-password",
		}, nil)
		require.Equal(t, http.StatusOK, status, string(raw))
	})
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, time.Minute)
	base := srv.URL

	t.Run("livez", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodGet, base+"/livez", nil, nil)
		require.Equal(t, http.StatusOK, status)

		var health authsdk.HealthResponse
		decodeData(t, raw, &health)
		require.Equal(t, "ok", health.Status)
		require.Equal(t, "test", health.Version)
	})

	t.Run("readyz", func(t *testing.T) {
		status, raw := doJSON(t, http.MethodGet, base+"/readyz", nil, nil)
		require.Equal(t, http.StatusOK, status)

		var health authsdk.HealthResponse
		decodeData(t, raw, &health)
		require.Equal(t, "ok", health.Status)
		require.NotNil(t, health.Checks)
		require.Equal(t, "ok", health.Checks.Database)
	})
}
