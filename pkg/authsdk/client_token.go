package authsdk

import (
	"context"
	"net/http"
)

// LoginToken exchanges email and password for a token pair without
// constructing a Session. Most callers want Login instead.
func (c *SDKClient) LoginToken(ctx context.Context, email, password string) (*TokenResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeEnvelope(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokenResp, nil
}

// MFAToken exchanges an MFA challenge token plus verification code for a
// token pair.
func (c *SDKClient) MFAToken(ctx context.Context, mfaToken, method, code string) (*TokenResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/auth/mfa", MFARequest{
		MFAToken: mfaToken,
		Method:   method,
		Code:     code,
	})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeEnvelope(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokenResp, nil
}

// Refresh rotates a refresh token for a fresh token pair. The old refresh
// token is single-use: it is revoked server-side on success.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/auth/refresh", RefreshRequest{
		RefreshToken: refreshToken,
	})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeEnvelope(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokenResp, nil
}

// Logout revokes a refresh token server-side.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	resp, err := c.postJSON(ctx, "/v1/auth/logout", LogoutRequest{
		RefreshToken: refreshToken,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
