package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/store"
)

type onboardingTokensRepo struct {
	db dbtx
}

func (r *onboardingTokensRepo) CreateOnboardingToken(ctx context.Context, t domain.OnboardingToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO onboarding_tokens (id, token_hash, branch_id, role, created_by, expires_at,
			reusable, used, used_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.TokenHash, t.BranchID, string(t.Role), t.CreatedBy, t.ExpiresAt,
		t.Reusable, t.Used, mapStringNull(t.UsedBy), stamp(t.CreatedAt), stamp(t.UpdatedAt),
	)
	return err
}

func (r *onboardingTokensRepo) GetActiveOnboardingTokenByHash(ctx context.Context, hash string) (domain.OnboardingToken, error) {
	var (
		t      domain.OnboardingToken
		role   string
		usedBy sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token_hash, branch_id, role, created_by, expires_at, reusable, used, used_by, created_at, updated_at
		 FROM onboarding_tokens
		 WHERE token_hash = ? AND expires_at > ? AND (reusable = 1 OR used = 0)`,
		hash, time.Now().UTC(),
	).Scan(&t.ID, &t.TokenHash, &t.BranchID, &role, &t.CreatedBy, &t.ExpiresAt,
		&t.Reusable, &t.Used, &usedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.OnboardingToken{}, mapNotFound(err)
	}
	t.Role = domain.Role(role)
	t.UsedBy = mapNullString(usedBy)
	return t, nil
}

func (r *onboardingTokensRepo) MarkOnboardingTokenUsed(ctx context.Context, tokenID string, usedByUserID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE onboarding_tokens SET used = 1, used_by = ?, updated_at = ? WHERE id = ? AND used = 0`,
		usedByUserID, time.Now().UTC(), tokenID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *onboardingTokensRepo) DeleteExpiredOnboardingTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM onboarding_tokens WHERE expires_at < ?`, time.Now().UTC())
	return err
}
