package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

const policyColumns = `id, title, description, category, min_age, max_age, coverage_min, coverage_max, duration_options, base_premium_rate, created_at, updated_at`

// PolicyRepositoryPG implements domain.PolicyRepository backed by PostgreSQL.
// A policy referenced by any application is frozen: updates and deletes on it
// are refused so historical premiums stay reproducible.
type PolicyRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository creates a new PolicyRepositoryPG.
func NewPolicyRepository(pool *pgxpool.Pool) *PolicyRepositoryPG {
	return &PolicyRepositoryPG{pool: pool}
}

// Create inserts a new policy.
func (r *PolicyRepositoryPG) Create(ctx context.Context, policy *domain.Policy) error {
	query := `
INSERT INTO policies (id, title, description, category, min_age, max_age, coverage_min, coverage_max, duration_options, base_premium_rate)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := r.pool.Exec(ctx, query,
		policy.ID,
		policy.Title,
		policy.Description,
		policy.Category,
		policy.MinAge,
		policy.MaxAge,
		policy.CoverageMin,
		policy.CoverageMax,
		policy.DurationOptions,
		policy.BasePremiumRate,
	)
	return err
}

// Update rewrites a policy unless an application already references it.
func (r *PolicyRepositoryPG) Update(ctx context.Context, policy *domain.Policy) error {
	query := `
UPDATE policies
SET title = $2,
    description = $3,
    category = $4,
    min_age = $5,
    max_age = $6,
    coverage_min = $7,
    coverage_max = $8,
    duration_options = $9,
    base_premium_rate = $10,
    updated_at = NOW()
WHERE id = $1
  AND NOT EXISTS (SELECT 1 FROM applications WHERE policy_id = $1);
`
	tag, err := r.pool.Exec(ctx, query,
		policy.ID,
		policy.Title,
		policy.Description,
		policy.Category,
		policy.MinAge,
		policy.MaxAge,
		policy.CoverageMin,
		policy.CoverageMax,
		policy.DurationOptions,
		policy.BasePremiumRate,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.frozenOrMissing(ctx, policy.ID)
	}
	return nil
}

// Delete removes a policy unless an application already references it.
func (r *PolicyRepositoryPG) Delete(ctx context.Context, id string) error {
	query := `
DELETE FROM policies
WHERE id = $1
  AND NOT EXISTS (SELECT 1 FROM applications WHERE policy_id = $1);
`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.frozenOrMissing(ctx, id)
	}
	return nil
}

// frozenOrMissing decides why a guarded write matched no rows.
func (r *PolicyRepositoryPG) frozenOrMissing(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM policies WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return &domain.NotFoundError{Entity: "policy", ID: id}
	}
	return &domain.ValidationError{Field: "id", Message: "policy is referenced by applications and cannot be changed"}
}

// GetByID fetches a policy by UUID.
func (r *PolicyRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+policyColumns+` FROM policies WHERE id = $1`, id)
	return scanPolicy(row, id)
}

// List returns all policies, newest first.
func (r *PolicyRepositoryPG) List(ctx context.Context) ([]domain.Policy, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+policyColumns+` FROM policies ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []domain.Policy
	for rows.Next() {
		p, err := scanPolicyValues(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, *p)
	}
	return policies, rows.Err()
}

// ListPopular returns the most-applied-for policies.
func (r *PolicyRepositoryPG) ListPopular(ctx context.Context, limit int) ([]domain.PolicyPopularity, error) {
	query := `
SELECT p.id, p.title, p.description, p.category, p.min_age, p.max_age, p.coverage_min, p.coverage_max, p.duration_options, p.base_premium_rate, p.created_at, p.updated_at,
       COUNT(a.id) AS application_count
FROM policies p
LEFT JOIN applications a ON a.policy_id = p.id
GROUP BY p.id
ORDER BY application_count DESC, p.created_at DESC
LIMIT $1;
`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PolicyPopularity
	for rows.Next() {
		var item domain.PolicyPopularity
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.Category,
			&item.MinAge,
			&item.MaxAge,
			&item.CoverageMin,
			&item.CoverageMax,
			&item.DurationOptions,
			&item.BasePremiumRate,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.ApplicationCount,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanPolicy(row pgx.Row, id string) (*domain.Policy, error) {
	p, err := scanPolicyValues(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "policy", ID: id}
		}
		return nil, err
	}
	return p, nil
}

func scanPolicyValues(row pgx.Row) (*domain.Policy, error) {
	var p domain.Policy
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Category,
		&p.MinAge,
		&p.MaxAge,
		&p.CoverageMin,
		&p.CoverageMax,
		&p.DurationOptions,
		&p.BasePremiumRate,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
