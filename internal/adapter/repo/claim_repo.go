package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

const claimColumns = `id, application_id, customer_id, reason, documents, status, submitted_at, decided_at`

// ClaimRepositoryPG implements domain.ClaimRepository backed by PostgreSQL.
// Claim writes and the owning application's claim marker move together in one
// database transaction.
type ClaimRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewClaimRepository creates a new ClaimRepositoryPG.
func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepositoryPG {
	return &ClaimRepositoryPG{pool: pool}
}

// Create inserts a claim and flips the application's claim marker to Pending,
// conditioned on the expected application state.
func (r *ClaimRepositoryPG) Create(ctx context.Context, claim *domain.Claim, expect domain.AppState) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	mark := `
UPDATE applications
SET claim_marker = $2, updated_at = NOW()
WHERE id = $1 AND status = $3 AND payment_status = $4 AND claim_marker = $5;
`
	tag, err := tx.Exec(ctx, mark, claim.ApplicationID, domain.ClaimPending, expect.Status, expect.PaymentStatus, expect.ClaimMarker)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.staleOrMissingApp(ctx, claim.ApplicationID)
	}

	insert := `
INSERT INTO claims (id, application_id, customer_id, reason, documents, status, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	if _, err := tx.Exec(ctx, insert,
		claim.ID,
		claim.ApplicationID,
		claim.CustomerID,
		claim.Reason,
		claim.Documents,
		claim.Status,
		claim.SubmittedAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID fetches a claim by UUID.
func (r *ClaimRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Claim, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)
	claim, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "claim", ID: id}
		}
		return nil, err
	}
	return claim, nil
}

// ListByCustomer returns the customer's claims, newest first.
func (r *ClaimRepositoryPG) ListByCustomer(ctx context.Context, customerID string) ([]domain.Claim, error) {
	return r.list(ctx, `SELECT `+claimColumns+` FROM claims WHERE customer_id = $1 ORDER BY submitted_at DESC`, customerID)
}

// List returns all claims, newest first.
func (r *ClaimRepositoryPG) List(ctx context.Context) ([]domain.Claim, error) {
	return r.list(ctx, `SELECT `+claimColumns+` FROM claims ORDER BY submitted_at DESC`)
}

func (r *ClaimRepositoryPG) list(ctx context.Context, query string, args ...any) ([]domain.Claim, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []domain.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *claim)
	}
	return claims, rows.Err()
}

// Approve marks a pending claim approved and flips the owning application's
// claim marker, atomically.
func (r *ClaimRepositoryPG) Approve(ctx context.Context, id string, decidedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	decide := `
UPDATE claims
SET status = $2, decided_at = $3
WHERE id = $1 AND status = $4
RETURNING application_id;
`
	var appID string
	if err := tx.QueryRow(ctx, decide, id, domain.ClaimStatusApproved, decidedAt, domain.ClaimStatusPending).Scan(&appID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.staleOrMissingClaim(ctx, id)
		}
		return err
	}

	mark := `
UPDATE applications
SET claim_marker = $2, updated_at = NOW()
WHERE id = $1 AND claim_marker = $3;
`
	tag, err := tx.Exec(ctx, mark, appID, domain.ClaimApproved, domain.ClaimPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ConcurrentModificationError{Entity: "application", ID: appID}
	}

	return tx.Commit(ctx)
}

func (r *ClaimRepositoryPG) staleOrMissingApp(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return &domain.NotFoundError{Entity: "application", ID: id}
	}
	return &domain.ConcurrentModificationError{Entity: "application", ID: id}
}

func (r *ClaimRepositoryPG) staleOrMissingClaim(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM claims WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return &domain.NotFoundError{Entity: "claim", ID: id}
	}
	return &domain.ConcurrentModificationError{Entity: "claim", ID: id}
}

func scanClaim(row pgx.Row) (*domain.Claim, error) {
	var c domain.Claim
	if err := row.Scan(
		&c.ID,
		&c.ApplicationID,
		&c.CustomerID,
		&c.Reason,
		&c.Documents,
		&c.Status,
		&c.SubmittedAt,
		&c.DecidedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
