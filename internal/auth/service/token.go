package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/store"
	"github.com/pgnest/pgnest/pkg/authsdk"
	"github.com/pgnest/pgnest/pkg/cryptox"
	"github.com/pgnest/pgnest/pkg/idx"
	"github.com/pgnest/pgnest/pkg/jwtx"
	"github.com/pgnest/pgnest/pkg/slogx"
	"github.com/pquerna/otp/totp"
)

const (
	// MaxMFAAttempts is the maximum number of failed MFA attempts allowed per challenge session.
	MaxMFAAttempts = 5

	// MFASessionTTL bounds how long a password-verified login may wait for its OTP.
	MFASessionTTL = 5 * time.Minute

	// MFAMethodTOTP and MFAMethodBackupCode are the accepted second factors.
	MFAMethodTOTP       = "totp"
	MFAMethodBackupCode = "backup_code"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountDisabled    = errors.New("account_disabled")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrInvalidMFASession  = errors.New("invalid_mfa_session")
	ErrInvalidCode        = errors.New("invalid_code")
	ErrTooManyAttempts    = errors.New("too_many_attempts")
)

// MFARequiredError is an alias to the SDK's MFARequiredError so the service
// and the client agree on the challenge shape.
type MFARequiredError = authsdk.MFARequiredError

type TokenService struct {
	KeyManager *jwtx.KeyManager
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Login verifies an email/password pair and issues a token pair.
//
// If the account has MFA enabled, no tokens are issued; instead an
// *MFARequiredError is returned carrying a short-lived challenge token the
// client must present to CompleteMFA together with an OTP or backup code.
func (s *TokenService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a hash comparison anyway so unknown emails take as long
			// as wrong passwords.
			_ = cryptox.VerifyPassword(password, dummyHash())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login password verification failed", slog.String("user_id", u.ID))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.Active {
		l.Warn("login attempt on disabled account", slog.String("user_id", u.ID))
		return nil, ErrAccountDisabled
	}

	sessionID := idx.New().String()

	if u.MFAEnabled != nil {
		mfaToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, err
		}
		session := domain.MFASession{
			Token:     mfaToken,
			UserID:    u.ID,
			SessionID: sessionID,
			ExpiresAt: now.Add(MFASessionTTL),
		}
		if err := s.Store.MFASessions().CreateMFASession(ctx, session); err != nil {
			return nil, err
		}
		return nil, &MFARequiredError{
			MFAToken: mfaToken,
			Methods:  []string{MFAMethodTOTP, MFAMethodBackupCode},
		}
	}

	if err := s.Store.Users().UpdateLastSeen(ctx, u.ID); err != nil {
		l.Error("failed to bump last_seen_at", slog.Any("error", err), slog.String("user_id", u.ID))
	}

	return s.issuePair(ctx, u, sessionID, now)
}

// CompleteMFA finishes a pending MFA challenge and issues the token pair the
// initial Login withheld. Each challenge session allows at most
// MaxMFAAttempts failed codes before it is destroyed.
func (s *TokenService) CompleteMFA(ctx context.Context, mfaToken, method, code string) (*domain.TokenPair, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	session, err := s.Store.MFASessions().GetMFASession(ctx, mfaToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidMFASession
		}
		return nil, err
	}

	if session.Attempts >= MaxMFAAttempts {
		_ = s.Store.MFASessions().DeleteMFASession(ctx, mfaToken)
		l.Warn("MFA session exceeded max attempts",
			slog.String("user_id", session.UserID),
			slog.Int("attempts", session.Attempts),
		)
		return nil, ErrTooManyAttempts
	}

	u, err := s.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrAccountDisabled
	}

	var valid bool
	switch method {
	case MFAMethodTOTP:
		valid = u.MFASecret != nil && *u.MFASecret != "" && totp.Validate(code, *u.MFASecret)

	case MFAMethodBackupCode:
		codeHash := cryptox.FingerprintToken(code)
		ok, err := s.Store.BackupCodes().VerifyBackupCode(ctx, u.ID, codeHash)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := s.Store.BackupCodes().DeleteBackupCode(ctx, u.ID, codeHash); err != nil {
				return nil, err
			}
			valid = true
		}

	default:
		return nil, ErrInvalidCode
	}

	if !valid {
		updated, err := s.Store.MFASessions().IncrementMFASessionAttempts(ctx, mfaToken)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrInvalidCode
			}
			return nil, err
		}
		l.Warn("MFA verification failed",
			slog.String("user_id", u.ID),
			slog.String("method", method),
			slog.Int("attempts", updated.Attempts),
		)
		return nil, ErrInvalidCode
	}

	if err := s.Store.MFASessions().DeleteMFASession(ctx, mfaToken); err != nil {
		return nil, err
	}
	if err := s.Store.Users().UpdateLastSeen(ctx, u.ID); err != nil {
		l.Error("failed to bump last_seen_at", slog.Any("error", err), slog.String("user_id", u.ID))
	}

	return s.issuePair(ctx, u, session.SessionID, now)
}

// Refresh rotates a refresh token: the presented opaque token is looked up
// by fingerprint, revoked, and replaced with a fresh one in the same
// transaction, alongside a newly signed access token. The session id is
// preserved across rotations.
//
// A second concurrent Refresh with the same opaque token loses the race on
// the revoke and gets ErrInvalidRefresh; exactly one caller wins.
func (s *TokenService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	now := time.Now()
	fp := cryptox.FingerprintToken(refreshOpaque)

	newOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	var result *domain.TokenPair

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		if rt.Revoked || now.After(rt.ExpiresAt) {
			return ErrInvalidRefresh
		}

		u, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if err != nil {
			return err
		}
		if !u.Active {
			return ErrAccountDisabled
		}

		accessToken, err := s.signAccess(u, rt.SessionID, now)
		if err != nil {
			return err
		}

		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		newRT := domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			TokenHash: cryptox.FingerprintToken(newOpaque),
			SessionID: rt.SessionID,
			ExpiresAt: now.Add(s.RefreshTTL),
		}
		if err := tx.RefreshTokens().CreateRefreshToken(ctx, newRT); err != nil {
			return err
		}

		result = &domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: newOpaque,
			TokenType:    "Bearer",
			ExpiresIn:    s.AccessTTL,
			User:         u.Snapshot(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// RevokeRefreshToken revokes a single refresh token by its opaque value.
// Unknown tokens are not an error; logout is idempotent.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshOpaque string) error {
	fp := cryptox.FingerprintToken(refreshOpaque)
	if err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// RevokeAllForUser revokes every active refresh token a user holds.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.Store.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID)
}

// IssueTokensForUser signs a fresh token pair for an already-authenticated
// user, starting a new session. Used after onboarding redemption.
func (s *TokenService) IssueTokensForUser(ctx context.Context, u domain.User) (*domain.TokenPair, error) {
	return s.issuePair(ctx, u, idx.New().String(), time.Now())
}

func (s *TokenService) issuePair(ctx context.Context, u domain.User, sessionID string, now time.Time) (*domain.TokenPair, error) {
	accessToken, err := s.signAccess(u, sessionID, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		SessionID: sessionID,
		ExpiresAt: now.Add(s.RefreshTTL),
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		User:         u.Snapshot(),
	}, nil
}

func (s *TokenService) signAccess(u domain.User, sessionID string, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(
		u.ID,
		sessionID,
		u.Email,
		u.Role.String(),
		u.BranchID,
		s.AccessTTL,
		s.Issuer,
		now,
	)
	// GetSigner() distributes signing across the active keys.
	signer := s.KeyManager.GetSigner()
	return signer.Sign(claims)
}

// dummyHash is a throwaway argon2 hash used to equalize timing between
// unknown-email and wrong-password failures. It never matches anything.
var dummyHash = sync.OnceValue(func() string {
	h, err := cryptox.HashPassword(idx.New().String())
	if err != nil {
		return ""
	}
	return h
})
