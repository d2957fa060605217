package authsdk

import (
	"context"
	"fmt"
	"net/http"
)

// Me returns the authenticated user's profile.
func (s *Session) Me(ctx context.Context) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeEnvelope(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword updates the authenticated user's password. All other
// sessions for the user are revoked server-side; this session keeps its
// current tokens until they expire.
func (s *Session) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/auth/password", ChangePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ListUsers lists users visible to the caller. Admins see their branch,
// superadmins see everyone. Requires a staff role.
func (s *Session) ListUsers(ctx context.Context, branchID string) ([]User, error) {
	path := "/v1/users"
	if branchID != "" {
		path = fmt.Sprintf("%s?branchId=%s", path, branchID)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var users []User
	if err := decodeEnvelope(resp, &users, http.StatusOK); err != nil {
		return nil, err
	}
	return users, nil
}
