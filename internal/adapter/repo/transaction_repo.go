package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

const transactionColumns = `id, application_id, customer_id, amount_cents, currency, gateway_transaction_id, status, created_at`

// TransactionRepositoryPG implements domain.TransactionRepository. Rows are
// written only by ApplicationRepositoryPG.ConfirmPayment; reads here are the
// whole surface.
type TransactionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepositoryPG.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepositoryPG {
	return &TransactionRepositoryPG{pool: pool}
}

// List returns all transactions, newest first.
func (r *TransactionRepositoryPG) List(ctx context.Context) ([]domain.Transaction, error) {
	return r.list(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY created_at DESC`)
}

// ListByCustomer returns the customer's transactions, newest first.
func (r *TransactionRepositoryPG) ListByCustomer(ctx context.Context, customerID string) ([]domain.Transaction, error) {
	return r.list(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
}

func (r *TransactionRepositoryPG) list(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := row.Scan(
		&t.ID,
		&t.ApplicationID,
		&t.CustomerID,
		&t.AmountCents,
		&t.Currency,
		&t.GatewayTransactionID,
		&t.Status,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
