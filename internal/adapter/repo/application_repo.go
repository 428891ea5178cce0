package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

const appColumns = `id, customer_id, policy_id, personal_data, nominee_data, health_disclosure, quote, status, payment_status, claim_marker, assigned_agent_id, feedback, submitted_at, updated_at`

const uniqueViolation = "23505"

// ApplicationRepositoryPG implements domain.ApplicationRepository backed by
// PostgreSQL. State-changing writes are conditioned on the full composite
// state so a stale caller can never clobber a concurrent decision.
type ApplicationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository creates a new ApplicationRepositoryPG.
func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepositoryPG {
	return &ApplicationRepositoryPG{pool: pool}
}

// Create inserts a freshly submitted application.
func (r *ApplicationRepositoryPG) Create(ctx context.Context, app *domain.Application) error {
	personal, nominee, health, quote, err := marshalSnapshots(app)
	if err != nil {
		return err
	}
	query := `
INSERT INTO applications (id, customer_id, policy_id, personal_data, nominee_data, health_disclosure, quote, status, payment_status, claim_marker, assigned_agent_id, feedback, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
`
	_, err = r.pool.Exec(ctx, query,
		app.ID,
		app.CustomerID,
		app.PolicyID,
		personal,
		nominee,
		health,
		quote,
		app.Status,
		app.PaymentStatus,
		app.ClaimMarker,
		app.AssignedAgentID,
		app.Feedback,
		app.SubmittedAt,
	)
	return err
}

// GetByID fetches an application by UUID.
func (r *ApplicationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "application", ID: id}
		}
		return nil, err
	}
	return app, nil
}

// ListByCustomer returns the customer's applications, newest first.
func (r *ApplicationRepositoryPG) ListByCustomer(ctx context.Context, customerID string) ([]domain.Application, error) {
	return r.list(ctx, `SELECT `+appColumns+` FROM applications WHERE customer_id = $1 ORDER BY submitted_at DESC`, customerID)
}

// ListByAgent returns applications assigned to the agent, newest first.
func (r *ApplicationRepositoryPG) ListByAgent(ctx context.Context, agentID string) ([]domain.Application, error) {
	return r.list(ctx, `SELECT `+appColumns+` FROM applications WHERE assigned_agent_id = $1 ORDER BY submitted_at DESC`, agentID)
}

// List returns all applications, newest first.
func (r *ApplicationRepositoryPG) List(ctx context.Context) ([]domain.Application, error) {
	return r.list(ctx, `SELECT `+appColumns+` FROM applications ORDER BY submitted_at DESC`)
}

func (r *ApplicationRepositoryPG) list(ctx context.Context, query string, args ...any) ([]domain.Application, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

// AssignAgent records the assigned agent, conditioned on the expected state.
func (r *ApplicationRepositoryPG) AssignAgent(ctx context.Context, id, agentID string, expect domain.AppState) error {
	query := `
UPDATE applications
SET assigned_agent_id = $2, updated_at = NOW()
WHERE id = $1 AND status = $3 AND payment_status = $4 AND claim_marker = $5;
`
	tag, err := r.pool.Exec(ctx, query, id, agentID, expect.Status, expect.PaymentStatus, expect.ClaimMarker)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, id)
	}
	return nil
}

// SetDecision records an underwriting decision, conditioned on the expected
// state. Loses the race to whichever decision landed first.
func (r *ApplicationRepositoryPG) SetDecision(ctx context.Context, id string, status domain.ApplicationStatus, feedback string, expect domain.AppState) error {
	query := `
UPDATE applications
SET status = $2, feedback = $3, updated_at = NOW()
WHERE id = $1 AND status = $4 AND payment_status = $5 AND claim_marker = $6;
`
	tag, err := r.pool.Exec(ctx, query, id, status, feedback, expect.Status, expect.PaymentStatus, expect.ClaimMarker)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, id)
	}
	return nil
}

// ConfirmPayment flips the payment status and inserts the transaction record
// in one database transaction. The unique index on gateway_transaction_id is
// the second guard against duplicate webhook deliveries.
func (r *ApplicationRepositoryPG) ConfirmPayment(ctx context.Context, id string, txn *domain.Transaction, expect domain.AppState) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	update := `
UPDATE applications
SET payment_status = $2, updated_at = NOW()
WHERE id = $1 AND status = $3 AND payment_status = $4 AND claim_marker = $5;
`
	tag, err := tx.Exec(ctx, update, id, domain.PaymentPaid, expect.Status, expect.PaymentStatus, expect.ClaimMarker)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, id)
	}

	insert := `
INSERT INTO transactions (id, application_id, customer_id, amount_cents, currency, gateway_transaction_id, status)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	if _, err := tx.Exec(ctx, insert,
		txn.ID,
		txn.ApplicationID,
		txn.CustomerID,
		txn.AmountCents,
		txn.Currency,
		txn.GatewayTransactionID,
		txn.Status,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &domain.ConcurrentModificationError{Entity: "application", ID: id}
		}
		return err
	}

	return tx.Commit(ctx)
}

// staleOrMissing decides why a conditioned write matched no rows.
func (r *ApplicationRepositoryPG) staleOrMissing(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return &domain.NotFoundError{Entity: "application", ID: id}
	}
	return &domain.ConcurrentModificationError{Entity: "application", ID: id}
}

func marshalSnapshots(app *domain.Application) (personal, nominee, health, quote []byte, err error) {
	if personal, err = json.Marshal(app.PersonalData); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal personal data: %w", err)
	}
	if nominee, err = json.Marshal(app.NomineeData); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal nominee data: %w", err)
	}
	if health, err = json.Marshal(app.HealthDisclosure); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal health disclosure: %w", err)
	}
	if quote, err = json.Marshal(app.Quote); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal quote: %w", err)
	}
	return personal, nominee, health, quote, nil
}

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var a domain.Application
	var personal, nominee, health, quote []byte
	if err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.PolicyID,
		&personal,
		&nominee,
		&health,
		&quote,
		&a.Status,
		&a.PaymentStatus,
		&a.ClaimMarker,
		&a.AssignedAgentID,
		&a.Feedback,
		&a.SubmittedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(personal, &a.PersonalData); err != nil {
		return nil, fmt.Errorf("unmarshal personal data: %w", err)
	}
	if err := json.Unmarshal(nominee, &a.NomineeData); err != nil {
		return nil, fmt.Errorf("unmarshal nominee data: %w", err)
	}
	if err := json.Unmarshal(health, &a.HealthDisclosure); err != nil {
		return nil, fmt.Errorf("unmarshal health disclosure: %w", err)
	}
	if err := json.Unmarshal(quote, &a.Quote); err != nil {
		return nil, fmt.Errorf("unmarshal quote: %w", err)
	}
	return &a, nil
}
