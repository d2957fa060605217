package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/store"
	"github.com/pgnest/pgnest/pkg/cryptox"
	"github.com/pgnest/pgnest/pkg/idx"
	"github.com/pgnest/pgnest/pkg/slogx"
)

// DefaultOnboardingTTL applies when a mint request does not name a TTL.
const DefaultOnboardingTTL = 7 * 24 * time.Hour

var (
	ErrInvalidOnboardingRequest = errors.New("invalid onboarding request")
	ErrStaffTokenForbidden      = errors.New("only superadmins may mint staff onboarding tokens")
	ErrStaffTokenReusable       = errors.New("staff onboarding tokens cannot be reusable")
	ErrBranchNotFound           = errors.New("branch not found")
	ErrOnboardingTokenNotFound  = errors.New("onboarding token not found or expired")
	ErrEmailTaken               = errors.New("email already taken")
)

type OnboardingService struct {
	Store store.Store
}

// MintOnboardingToken creates a new onboarding token bound to a branch and a
// role. The raw token is returned exactly once; only its fingerprint is
// stored. The dashboard embeds the raw token in a QR code.
//
// Admins may only mint resident tokens. Minting a token that grants a staff
// role takes a superadmin, and such tokens are always single-use.
func (s *OnboardingService) MintOnboardingToken(
	ctx context.Context,
	createdBy domain.User,
	branchID string,
	role domain.Role,
	ttl time.Duration,
	reusable bool,
) (string, time.Time, error) {
	log := slogx.FromContext(ctx)

	if !role.Valid() {
		return "", time.Time{}, domain.ErrUnknownRole
	}
	if role.Staff() {
		if createdBy.Role != domain.RoleSuperAdmin {
			log.Warn("non-superadmin attempted to mint staff onboarding token",
				slog.String("created_by", createdBy.ID),
				slog.String("role", role.String()),
			)
			return "", time.Time{}, ErrStaffTokenForbidden
		}
		if reusable {
			return "", time.Time{}, ErrStaffTokenReusable
		}
	}

	if ttl <= 0 {
		ttl = DefaultOnboardingTTL
	}
	expiresAt := time.Now().Add(ttl)

	if _, err := s.Store.Branches().GetBranchByID(ctx, branchID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", time.Time{}, ErrBranchNotFound
		}
		return "", time.Time{}, err
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", time.Time{}, err
	}

	t := domain.OnboardingToken{
		ID:        idx.New().String(),
		TokenHash: cryptox.FingerprintToken(token),
		BranchID:  branchID,
		Role:      role,
		CreatedBy: createdBy.ID,
		ExpiresAt: expiresAt,
		Reusable:  reusable,
	}
	if err := s.Store.OnboardingTokens().CreateOnboardingToken(ctx, t); err != nil {
		return "", time.Time{}, err
	}

	log.Debug("onboarding token minted",
		slog.String("token_id", t.ID),
		slog.String("branch_id", branchID),
		slog.String("role", role.String()),
		slog.Bool("reusable", reusable),
		slog.Time("expires_at", expiresAt),
	)

	return token, expiresAt, nil
}

// RedeemOnboardingToken validates an onboarding token and registers the new
// user against the token's branch with the token's role. The user creation
// and the used marker are written in one transaction so a single-use token
// cannot register two accounts.
func (s *OnboardingService) RedeemOnboardingToken(
	ctx context.Context,
	token string,
	email string,
	name string,
	password string,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if token == "" || email == "" || name == "" {
		return domain.User{}, ErrInvalidOnboardingRequest
	}
	if len(password) < MinPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	fingerprint := cryptox.FingerprintToken(token)
	ot, err := s.Store.OnboardingTokens().GetActiveOnboardingTokenByHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("redemption attempted with invalid or expired onboarding token")
			return domain.User{}, ErrOnboardingTokenNotFound
		}
		return domain.User{}, err
	}

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		log.Warn("redemption attempted with taken email", slog.String("token_id", ot.ID))
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	newUser := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         ot.Role,
		BranchID:     ot.BranchID,
		Active:       true,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, newUser); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		if !ot.Reusable {
			if err := tx.OnboardingTokens().MarkOnboardingTokenUsed(ctx, ot.ID, newUser.ID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					// Another redemption won the race on a single-use token.
					return ErrOnboardingTokenNotFound
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	log.Info("user registered via onboarding token",
		slog.String("user_id", newUser.ID),
		slog.String("token_id", ot.ID),
		slog.String("branch_id", ot.BranchID),
		slog.String("role", ot.Role.String()),
	)

	return newUser, nil
}
