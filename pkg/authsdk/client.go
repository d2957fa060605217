package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the pgnest auth service. It provides the
// unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates with email and password and returns an authenticated
// Session. When the account has MFA enabled the returned error is a
// *MFARequiredError carrying the challenge token for CompleteMFA.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	tokenResp, err := c.LoginToken(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokenResp), nil
}

// CompleteMFA finishes a login that returned *MFARequiredError.
func (c *SDKClient) CompleteMFA(ctx context.Context, challenge *MFARequiredError, method, code string) (*Session, error) {
	tokenResp, err := c.MFAToken(ctx, challenge.MFAToken, method, code)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokenResp), nil
}

// NewSessionFromTokens creates a session from tokens obtained elsewhere,
// for example stored from a previous login. Auto-refresh still applies.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	expiresAt := time.Now().Add(time.Duration(expiresIn)*time.Second - refreshBuffer)

	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt,
	}
}
