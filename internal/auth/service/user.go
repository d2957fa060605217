package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/store"
	"github.com/pgnest/pgnest/pkg/cryptox"
	"github.com/pgnest/pgnest/pkg/slogx"
)

// MinPasswordLength is the minimum accepted password length, in bytes.
const MinPasswordLength = 12

var (
	ErrWrongPassword = errors.New("current password is incorrect")
	ErrWeakPassword  = errors.New("password too short")
)

type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ChangePassword verifies the current password, stores a new hash, and
// revokes every other refresh token the user holds so stolen sessions die
// with the old password.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	l := slogx.FromContext(ctx)

	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(currentPassword, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("password change rejected", slog.String("user_id", userID))
			return ErrWrongPassword
		}
		return err
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, newHash); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID)
	})
	if err != nil {
		return err
	}

	l.Info("password changed", slog.String("user_id", userID))
	return nil
}

// ListUsers returns the users the requester is allowed to see. Admins are
// pinned to their own branch regardless of the requested filter; superadmins
// may pass any branch id, or "" for all branches.
func (s *UserService) ListUsers(ctx context.Context, requester domain.User, branchID string) ([]domain.UserSnapshot, error) {
	if requester.Role == domain.RoleAdmin {
		branchID = requester.BranchID
	}

	users, err := s.Store.Users().ListUsers(ctx, branchID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.UserSnapshot, 0, len(users))
	for _, u := range users {
		out = append(out, u.Snapshot())
	}
	return out, nil
}

// SetActive flips a user's active flag. Deactivation also revokes all of the
// user's refresh tokens so existing sessions cannot outlive the account.
func (s *UserService) SetActive(ctx context.Context, userID string, active bool) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetActive(ctx, userID, active); err != nil {
			return err
		}
		if !active {
			return tx.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID)
		}
		return nil
	})
}
