package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

const userColumns = `id, subject, email, name, role, created_at, updated_at`

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

// UpsertBySubject inserts or refreshes a user keyed on the identity-provider
// subject. Role is never touched on conflict; only admins change roles.
func (r *UserRepositoryPG) UpsertBySubject(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
INSERT INTO users (id, subject, email, name, role)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (subject) DO UPDATE
SET email = EXCLUDED.email,
    name = EXCLUDED.name,
    updated_at = NOW()
RETURNING ` + userColumns + `;
`
	row := r.pool.QueryRow(ctx, query, user.ID, user.Subject, user.Email, user.Name, user.Role)
	return scanUser(row, user.ID)
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, id)
}

// List returns all users, newest first.
func (r *UserRepositoryPG) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// ListByRole returns all users holding the given role.
func (r *UserRepositoryPG) ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at DESC`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// UpdateRole changes a user's role and returns the updated record.
func (r *UserRepositoryPG) UpdateRole(ctx context.Context, id string, role domain.UserRole) (*domain.User, error) {
	query := `
UPDATE users
SET role = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns + `;
`
	row := r.pool.QueryRow(ctx, query, id, role)
	return scanUser(row, id)
}

func scanUser(row pgx.Row, id string) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Subject, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "user", ID: id}
		}
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Subject, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
