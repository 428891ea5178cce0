package domain

import "time"

// Transaction records one successful payment confirmation. Created exactly
// once per gateway transaction id, immutable thereafter.
type Transaction struct {
	ID                   string
	ApplicationID        string
	CustomerID           string
	AmountCents          int64
	Currency             string
	GatewayTransactionID string
	Status               string
	CreatedAt            time.Time
}
