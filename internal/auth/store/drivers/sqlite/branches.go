package sqlite

import (
	"context"
	"strings"

	"github.com/pgnest/pgnest/internal/auth/domain"
	"github.com/pgnest/pgnest/internal/auth/store"
)

type branchesRepo struct {
	db dbtx
}

func (r *branchesRepo) GetBranchByID(ctx context.Context, id string) (domain.Branch, error) {
	var b domain.Branch
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, code, active, created_at, updated_at FROM branches WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Code, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return domain.Branch{}, mapNotFound(err)
	}
	return b, nil
}

func (r *branchesRepo) CreateBranch(ctx context.Context, b domain.Branch) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO branches (id, name, code, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Code, b.Active, stamp(b.CreatedAt), stamp(b.UpdatedAt),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *branchesRepo) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, code, active, created_at, updated_at FROM branches ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []domain.Branch
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Code, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (r *branchesRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM branches`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
