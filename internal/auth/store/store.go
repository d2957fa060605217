package store

import (
	"context"
	"errors"

	"github.com/pgnest/pgnest/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable.
type Store interface {
	Users() Users
	Branches() Branches
	RefreshTokens() RefreshTokens
	OnboardingTokens() OnboardingTokens
	MFASessions() MFASessions
	BackupCodes() BackupCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh
	// rotation). The caller MUST call Commit() or Rollback().
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle transactions.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by normalized (lowercased, trimmed)
	// email. Used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateLastSeen stamps last_seen_at.
	UpdateLastSeen(ctx context.Context, userID string) error

	// SetActive flips the active flag. Deactivated users cannot log in or
	// refresh.
	SetActive(ctx context.Context, userID string, active bool) error

	// ListUsers returns users, optionally filtered to a branch. Pass ""
	// for all branches.
	ListUsers(ctx context.Context, branchID string) ([]domain.User, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)

	// UpdateMFASecret sets the TOTP secret for a user during enrollment.
	UpdateMFASecret(ctx context.Context, userID string, secret string) error

	// EnableMFA marks MFA as enabled (sets the mfa_enabled timestamp).
	EnableMFA(ctx context.Context, userID string) error

	// DisableMFA clears mfa_enabled and mfa_secret.
	DisableMFA(ctx context.Context, userID string) error
}

type Branches interface {
	// GetBranchByID fetches a branch.
	GetBranchByID(ctx context.Context, id string) (domain.Branch, error)

	// CreateBranch inserts a new branch (id is ULID).
	CreateBranch(ctx context.Context, b domain.Branch) error

	// ListBranches returns all branches ordered by creation date.
	ListBranches(ctx context.Context) ([]domain.Branch, error)

	// IsEmpty returns true if there are no branches.
	IsEmpty(ctx context.Context) (bool, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record. Only the
	// SHA-256 fingerprint of the opaque token is persisted.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token row by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked=1 and bumps updated_at.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAllUserRefreshTokens bulk revocation for a user (password
	// change, account deactivation).
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type OnboardingTokens interface {
	// CreateOnboardingToken writes a new onboarding token (token_hash is
	// the fingerprint of the opaque token).
	CreateOnboardingToken(ctx context.Context, t domain.OnboardingToken) error

	// GetActiveOnboardingTokenByHash returns a not-used, not-expired token
	// by its fingerprint.
	GetActiveOnboardingTokenByHash(ctx context.Context, hash string) (domain.OnboardingToken, error)

	// MarkOnboardingTokenUsed sets used=1 and used_by (transaction-friendly).
	MarkOnboardingTokenUsed(ctx context.Context, tokenID string, usedByUserID string) error

	// DeleteExpiredOnboardingTokens is housekeeping.
	DeleteExpiredOnboardingTokens(ctx context.Context) error
}

type MFASessions interface {
	// CreateMFASession creates a new MFA challenge session.
	CreateMFASession(ctx context.Context, session domain.MFASession) error

	// GetMFASession retrieves an MFA session by its token (only if not
	// expired).
	GetMFASession(ctx context.Context, mfaToken string) (domain.MFASession, error)

	// IncrementMFASessionAttempts bumps the failed attempt counter and
	// returns the updated session.
	IncrementMFASessionAttempts(ctx context.Context, mfaToken string) (domain.MFASession, error)

	// DeleteMFASession removes an MFA session by its token.
	DeleteMFASession(ctx context.Context, mfaToken string) error

	// DeleteExpiredMFASessions is housekeeping.
	DeleteExpiredMFASessions(ctx context.Context) error
}

type BackupCodes interface {
	// CreateBackupCode stores a backup code hash for a user.
	CreateBackupCode(ctx context.Context, userID string, codeHash string) error

	// VerifyBackupCode checks if a backup code hash exists for a user.
	VerifyBackupCode(ctx context.Context, userID string, codeHash string) (bool, error)

	// DeleteBackupCode removes a specific backup code after use.
	DeleteBackupCode(ctx context.Context, userID string, codeHash string) error

	// DeleteAllBackupCodes removes all backup codes for a user.
	DeleteAllBackupCodes(ctx context.Context, userID string) error

	// CountUserBackupCodes returns the number of remaining backup codes.
	CountUserBackupCodes(ctx context.Context, userID string) (int, error)
}
