package authsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// refreshBuffer is subtracted from the reported expiry so the session
// refreshes slightly before the server would reject the token.
const refreshBuffer = 30 * time.Second

// Session is an authenticated session with automatic token refresh. All
// Session methods handle expiry transparently; concurrent callers share a
// single refresh.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// newSession creates a session from a token response.
func newSession(client *SDKClient, tokenResp *TokenResponse) *Session {
	return &Session{
		client:       client,
		accessToken:  tokenResp.AccessToken,
		refreshToken: tokenResp.RefreshToken,
		expiresAt:    time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - refreshBuffer),
	}
}

// getValidToken returns a valid access token, refreshing if expired. Only
// one goroutine performs the refresh; the rest wait on the lock and reuse
// the result via the double-check.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token available")
	}

	tokenResp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		// A rejected refresh token means the session is dead. Drop the
		// stored tokens so later calls fail fast instead of hammering
		// the server with a token that will never work again.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsTerminal() {
			s.accessToken = ""
			s.refreshToken = ""
			s.expiresAt = time.Time{}
		}
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = tokenResp.AccessToken
	s.refreshToken = tokenResp.RefreshToken
	s.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - refreshBuffer)

	return s.accessToken, nil
}

// Logout revokes the session's refresh token, invalidating the session.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if refreshToken == "" {
		return fmt.Errorf("no refresh token to revoke")
	}
	return s.client.Logout(ctx, refreshToken)
}

// AccessToken returns the current access token without checking expiration.
// Prefer the Session methods, which refresh automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}
