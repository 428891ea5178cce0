package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/infra/identity"
	"github.com/ronnie012/assured-life-server/internal/middleware"
)

func TestAuthVerifyIssuesSessionToken(t *testing.T) {
	app := newTestApp()
	app.Verifier = &fakeVerifier{claims: &identity.Claims{
		Subject:       "sub-1",
		Email:         "user@example.com",
		Name:          "Jordan Doe",
		EmailVerified: true,
	}}
	app.Users = &fakeUsers{upsert: func(u *domain.User) (*domain.User, error) {
		if u.Subject != "sub-1" || u.Role != domain.RoleCustomer {
			t.Fatalf("unexpected upsert input: %#v", u)
		}
		u.ID = "user-1"
		return u, nil
	}}

	req := httptest.NewRequest(http.MethodPost, "/auth/verify", strings.NewReader(`{"idToken":"provider-token"}`))
	rec := httptest.NewRecorder()
	app.AuthVerify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp verifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	claims, err := middleware.VerifyJWT(app.JWTSecret, resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Sub != "user-1" || claims.Role != "customer" {
		t.Fatalf("token claims mismatch: %#v", claims)
	}
	if resp.User.Email != "user@example.com" {
		t.Fatalf("user email mismatch: %#v", resp.User)
	}
}

func TestAuthVerifyRejectsUnverifiedEmail(t *testing.T) {
	app := newTestApp()
	app.Verifier = &fakeVerifier{claims: &identity.Claims{Subject: "sub-1", Email: "user@example.com"}}

	req := httptest.NewRequest(http.MethodPost, "/auth/verify", strings.NewReader(`{"idToken":"provider-token"}`))
	rec := httptest.NewRecorder()
	app.AuthVerify(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthVerifyRequiresToken(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodPost, "/auth/verify", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	app.AuthVerify(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMeRequiresAuthentication(t *testing.T) {
	app := newTestApp()

	rec := httptest.NewRecorder()
	app.Me(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
