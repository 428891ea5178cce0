package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

const agentAppColumns = `id, user_id, user_name, user_email, experience, specialties, motivation, status, feedback, submitted_at, decided_at`

// AgentApplicationRepositoryPG implements domain.AgentApplicationRepository.
// A partial unique index on (user_id) WHERE status = 'Pending' is the
// storage-level guard against two pending applications racing in.
type AgentApplicationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAgentApplicationRepository creates a new AgentApplicationRepositoryPG.
func NewAgentApplicationRepository(pool *pgxpool.Pool) *AgentApplicationRepositoryPG {
	return &AgentApplicationRepositoryPG{pool: pool}
}

// Create inserts a pending agent application.
func (r *AgentApplicationRepositoryPG) Create(ctx context.Context, app *domain.AgentApplication) error {
	query := `
INSERT INTO agent_applications (id, user_id, user_name, user_email, experience, specialties, motivation, status, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.pool.Exec(ctx, query,
		app.ID,
		app.UserID,
		app.UserName,
		app.UserEmail,
		app.Experience,
		app.Specialties,
		app.Motivation,
		app.Status,
		app.SubmittedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &domain.ConcurrentModificationError{Entity: "agentApplication", ID: app.ID}
		}
		return err
	}
	return nil
}

// GetByID fetches an agent application by UUID.
func (r *AgentApplicationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.AgentApplication, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agentAppColumns+` FROM agent_applications WHERE id = $1`, id)
	app, err := scanAgentApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "agentApplication", ID: id}
		}
		return nil, err
	}
	return app, nil
}

// ListByStatus returns applications in the given status, newest first.
func (r *AgentApplicationRepositoryPG) ListByStatus(ctx context.Context, status domain.AgentApplicationStatus) ([]domain.AgentApplication, error) {
	return r.list(ctx, `SELECT `+agentAppColumns+` FROM agent_applications WHERE status = $1 ORDER BY submitted_at DESC`, status)
}

// ListByUser returns the user's applications, newest first.
func (r *AgentApplicationRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.AgentApplication, error) {
	return r.list(ctx, `SELECT `+agentAppColumns+` FROM agent_applications WHERE user_id = $1 ORDER BY submitted_at DESC`, userID)
}

func (r *AgentApplicationRepositoryPG) list(ctx context.Context, query string, args ...any) ([]domain.AgentApplication, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.AgentApplication
	for rows.Next() {
		app, err := scanAgentApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

// Decide resolves a pending application. An approval promotes the applicant
// to the agent role in the same database transaction, so the status change
// and the role change can never diverge.
func (r *AgentApplicationRepositoryPG) Decide(ctx context.Context, id string, status domain.AgentApplicationStatus, feedback string, decidedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	decide := `
UPDATE agent_applications
SET status = $2, feedback = $3, decided_at = $4
WHERE id = $1 AND status = $5
RETURNING user_id;
`
	var userID string
	if err := tx.QueryRow(ctx, decide, id, status, feedback, decidedAt, domain.AgentApplicationPending).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.staleOrMissing(ctx, id)
		}
		return err
	}

	if status == domain.AgentApplicationApproved {
		promote := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1;`
		tag, err := tx.Exec(ctx, promote, userID, domain.RoleAgent)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.NotFoundError{Entity: "user", ID: userID}
		}
	}

	return tx.Commit(ctx)
}

func (r *AgentApplicationRepositoryPG) staleOrMissing(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM agent_applications WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return &domain.NotFoundError{Entity: "agentApplication", ID: id}
	}
	return &domain.ConcurrentModificationError{Entity: "agentApplication", ID: id}
}

func scanAgentApplication(row pgx.Row) (*domain.AgentApplication, error) {
	var a domain.AgentApplication
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.UserName,
		&a.UserEmail,
		&a.Experience,
		&a.Specialties,
		&a.Motivation,
		&a.Status,
		&a.Feedback,
		&a.SubmittedAt,
		&a.DecidedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
