package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/lifecycle"
)

const maxWebhookBody = 64 << 10

type paymentWebhookRequest struct {
	ApplicationID string `json:"applicationId"`
	TransactionID string `json:"transactionId"`
	AmountCents   int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
}

type transactionDTO struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	CustomerID    string    `json:"customerId"`
	AmountCents   int64     `json:"amount"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transactionId"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:            t.ID,
		ApplicationID: t.ApplicationID,
		CustomerID:    t.CustomerID,
		AmountCents:   t.AmountCents,
		Currency:      t.Currency,
		TransactionID: t.GatewayTransactionID,
		Status:        t.Status,
		CreatedAt:     t.CreatedAt,
	}
}

// PaymentWebhook records a gateway payment confirmation. Authenticated by an
// HMAC signature over the raw body, not by a user session: the gateway is not
// a user. Delivery is at least once, so a duplicate maps to a conflict rather
// than a second transaction.
func (a *App) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}
	if !a.verifyWebhookSignature(body, r.Header.Get("X-Signature")) {
		a.Logger.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature mismatch")
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid signature")
		return
	}

	var req paymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	txn, err := a.Lifecycle.ConfirmPayment(r.Context(), lifecycle.PaymentConfirmation{
		ApplicationID:        req.ApplicationID,
		GatewayTransactionID: req.TransactionID,
		AmountCents:          req.AmountCents,
		Currency:             req.Currency,
		Status:               req.Status,
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toTransactionDTO(txn))
}

func (a *App) verifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(a.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
