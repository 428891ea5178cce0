package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

// DashboardRepositoryPG implements domain.DashboardRepository with aggregate
// queries over the live tables. No denormalized counters to keep in sync.
type DashboardRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepositoryPG.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepositoryPG {
	return &DashboardRepositoryPG{pool: pool}
}

// Summary returns the admin dashboard counters in a single round trip.
func (r *DashboardRepositoryPG) Summary(ctx context.Context) (*domain.DashboardSummary, error) {
	query := `
SELECT
  (SELECT COUNT(*) FROM users),
  (SELECT COUNT(*) FROM applications WHERE status = 'Pending'),
  (SELECT COUNT(*) FROM applications WHERE status = 'Approved'),
  (SELECT COUNT(*) FROM applications WHERE status = 'Rejected'),
  (SELECT COUNT(*) FROM claims WHERE status = 'Pending'),
  (SELECT COUNT(*) FROM claims WHERE status = 'Approved'),
  (SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE status = 'succeeded');
`
	var s domain.DashboardSummary
	if err := r.pool.QueryRow(ctx, query).Scan(
		&s.Users,
		&s.PendingApplications,
		&s.ApprovedApplications,
		&s.RejectedApplications,
		&s.PendingClaims,
		&s.ApprovedClaims,
		&s.PaidPremiumCents,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
