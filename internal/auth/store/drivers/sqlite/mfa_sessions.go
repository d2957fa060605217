package sqlite

import (
	"context"
	"time"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/store"
)

type mfaSessionsRepo struct {
	db dbtx
}

func (r *mfaSessionsRepo) CreateMFASession(ctx context.Context, session domain.MFASession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mfa_sessions (token, user_id, session_id, attempts, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.Token, session.UserID, session.SessionID, session.Attempts,
		session.ExpiresAt, stamp(session.CreatedAt),
	)
	return err
}

func (r *mfaSessionsRepo) GetMFASession(ctx context.Context, mfaToken string) (domain.MFASession, error) {
	var s domain.MFASession
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, session_id, attempts, expires_at, created_at
		 FROM mfa_sessions WHERE token = ? AND expires_at > ?`,
		mfaToken, time.Now().UTC(),
	).Scan(&s.Token, &s.UserID, &s.SessionID, &s.Attempts, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return domain.MFASession{}, mapNotFound(err)
	}
	return s, nil
}

func (r *mfaSessionsRepo) IncrementMFASessionAttempts(ctx context.Context, mfaToken string) (domain.MFASession, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE mfa_sessions SET attempts = attempts + 1 WHERE token = ?`, mfaToken)
	if err != nil {
		return domain.MFASession{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.MFASession{}, err
	}
	if affected == 0 {
		return domain.MFASession{}, store.ErrNotFound
	}
	return r.GetMFASession(ctx, mfaToken)
}

func (r *mfaSessionsRepo) DeleteMFASession(ctx context.Context, mfaToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM mfa_sessions WHERE token = ?`, mfaToken)
	return err
}

func (r *mfaSessionsRepo) DeleteExpiredMFASessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM mfa_sessions WHERE expires_at < ?`, time.Now().UTC())
	return err
}
