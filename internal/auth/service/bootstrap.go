package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/store"
	"github.com/pgnest/pgnest/pkg/cryptox"
	"github.com/pgnest/pgnest/pkg/idx"
	"github.com/pgnest/pgnest/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
	ErrBootstrapInvalid      = errors.New("invalid bootstrap request")
)

// BootstrapService seeds an empty installation with its first branch and the
// superadmin account. It runs exactly once; any later attempt fails.
type BootstrapService struct {
	Store store.Store
	Token string // pre-configured bootstrap token
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	usersEmpty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	branchesEmpty, err := s.Store.Branches().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !usersEmpty || !branchesEmpty, nil
}

// Bootstrap creates the first branch and its superadmin in one transaction.
// Returns the new branch id and user id.
func (s *BootstrapService) Bootstrap(ctx context.Context, token string, req domain.BootstrapData) (string, string, error) {
	l := slogx.FromContext(ctx)

	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return "", "", err
	} else if bootstrapped {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return "", "", ErrBootstrapAlready
	}

	if s.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		l.Warn("unauthorized bootstrap attempt")
		return "", "", ErrBootstrapUnauthorized
	}

	req.AdminEmail = strings.ToLower(strings.TrimSpace(req.AdminEmail))
	req.BranchCode = strings.TrimSpace(req.BranchCode)
	if req.BranchName == "" || req.BranchCode == "" || req.AdminEmail == "" || req.AdminName == "" {
		return "", "", ErrBootstrapInvalid
	}
	if len(req.AdminPassword) < MinPasswordLength {
		return "", "", ErrWeakPassword
	}

	passHash, err := cryptox.HashPassword(req.AdminPassword)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return "", "", err
	}

	branchID := idx.New().String()
	adminUserID := idx.New().String()

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Branches().CreateBranch(ctx, domain.Branch{
			ID:     branchID,
			Name:   req.BranchName,
			Code:   req.BranchCode,
			Active: true,
		}); err != nil {
			l.Error("failed to create branch", slog.Any("error", err))
			return err
		}

		if err := tx.Users().CreateUser(ctx, domain.User{
			ID:           adminUserID,
			Email:        req.AdminEmail,
			Name:         req.AdminName,
			PasswordHash: passHash,
			Role:         domain.RoleSuperAdmin,
			Active:       true,
		}); err != nil {
			l.Error("failed to create superadmin", slog.Any("error", err))
			return err
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}

	l.Info("successfully bootstrapped system",
		slog.String("branch_id", branchID),
		slog.String("admin_user_id", adminUserID),
	)
	return branchID, adminUserID, nil
}
