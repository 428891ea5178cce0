package handlers

import (
	"net/http"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

// ListTransactions returns payment records: admins see all, customers their
// own. Agents have no business with payments.
func (a *App) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireRole(w, r, domain.RoleAdmin, domain.RoleCustomer)
	if !ok {
		return
	}
	var (
		txns []domain.Transaction
		err  error
	)
	if id.Role == domain.RoleAdmin {
		txns, err = a.Transactions.List(r.Context())
	} else {
		txns, err = a.Transactions.ListByCustomer(r.Context(), id.UserID)
	}
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	out := make([]transactionDTO, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionDTO(&txns[i]))
	}
	a.json(w, http.StatusOK, out)
}
