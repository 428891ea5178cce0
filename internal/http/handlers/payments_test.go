package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/lifecycle"
)

func signBody(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaymentWebhookRecordsTransaction(t *testing.T) {
	app := newTestApp()
	var got lifecycle.PaymentConfirmation
	app.Lifecycle = &fakeLifecycle{confirmPayment: func(in lifecycle.PaymentConfirmation) (*domain.Transaction, error) {
		got = in
		return &domain.Transaction{
			ID:                   "txn-1",
			ApplicationID:        in.ApplicationID,
			CustomerID:           "customer-1",
			AmountCents:          in.AmountCents,
			Currency:             "usd",
			GatewayTransactionID: in.GatewayTransactionID,
			Status:               "succeeded",
			CreatedAt:            time.Now(),
		}, nil
	}}

	body := `{"applicationId":"app-1","transactionId":"pi_123","amount":36000,"currency":"usd","status":"succeeded"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set("X-Signature", signBody(app.WebhookSecret, body))
	rec := httptest.NewRecorder()
	app.PaymentWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got.ApplicationID != "app-1" || got.GatewayTransactionID != "pi_123" || got.AmountCents != 36000 {
		t.Fatalf("confirmation mismatch: %#v", got)
	}
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	app := newTestApp()
	app.Lifecycle = &fakeLifecycle{confirmPayment: func(lifecycle.PaymentConfirmation) (*domain.Transaction, error) {
		t.Fatal("lifecycle should not be reached")
		return nil, nil
	}}

	body := `{"applicationId":"app-1","transactionId":"pi_123","amount":36000,"status":"succeeded"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set("X-Signature", "deadbeef")
	rec := httptest.NewRecorder()
	app.PaymentWebhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPaymentWebhookRequiresSignature(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	app.PaymentWebhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPaymentWebhookDuplicateMapsToConflict(t *testing.T) {
	app := newTestApp()
	app.Lifecycle = &fakeLifecycle{confirmPayment: func(lifecycle.PaymentConfirmation) (*domain.Transaction, error) {
		return nil, &domain.InvalidTransitionError{Entity: "application", ID: "app-1", From: "Approved/Paid/None", Attempted: "confirmPayment"}
	}}

	body := `{"applicationId":"app-1","transactionId":"pi_123","amount":36000,"status":"succeeded"}`
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set("X-Signature", signBody(app.WebhookSecret, body))
	rec := httptest.NewRecorder()
	app.PaymentWebhook(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
