package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ronnie012/assured-life-server/internal/domain"
	"github.com/ronnie012/assured-life-server/internal/lifecycle"
)

func multipartClaim(t *testing.T, applicationID, reason string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("applicationId", applicationID); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.WriteField("reason", reason); err != nil {
		t.Fatalf("write field: %v", err)
	}
	for name, content := range files {
		part, err := mw.CreateFormFile("documents", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestFileClaimUploadsDocumentsFirst(t *testing.T) {
	app := newTestApp()
	docs := &fakeDocs{}
	app.Documents = docs
	var got lifecycle.ClaimInput
	app.Lifecycle = &fakeLifecycle{fileClaim: func(caller domain.Identity, in lifecycle.ClaimInput) (*domain.Claim, error) {
		got = in
		return &domain.Claim{
			ID:            "claim-1",
			ApplicationID: in.ApplicationID,
			CustomerID:    caller.UserID,
			Reason:        in.Reason,
			Documents:     in.Documents,
			Status:        domain.ClaimStatusPending,
			SubmittedAt:   time.Now(),
		}, nil
	}}

	body, contentType := multipartClaim(t, "app-1", "hospitalization", map[string]string{"report.pdf": "pdf-bytes"})
	req := httptest.NewRequest(http.MethodPost, "/claims", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(contextWithCustomer(req))
	rec := httptest.NewRecorder()
	app.FileClaim(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got.ApplicationID != "app-1" || got.Reason != "hospitalization" {
		t.Fatalf("claim input mismatch: %#v", got)
	}
	if len(got.Documents) != 1 || got.Documents[0] != "https://docs.example.com/report.pdf" {
		t.Fatalf("documents mismatch: %#v", got.Documents)
	}
	if len(docs.urls) != 1 {
		t.Fatalf("expected one upload, got %d", len(docs.urls))
	}
}

func TestFileClaimAbortsOnUploadFailure(t *testing.T) {
	app := newTestApp()
	app.Documents = &fakeDocs{err: &domain.DependencyUnavailableError{Dependency: "document store"}}
	app.Lifecycle = &fakeLifecycle{fileClaim: func(domain.Identity, lifecycle.ClaimInput) (*domain.Claim, error) {
		t.Fatal("lifecycle should not be reached when upload fails")
		return nil, nil
	}}

	body, contentType := multipartClaim(t, "app-1", "hospitalization", map[string]string{"report.pdf": "pdf-bytes"})
	req := httptest.NewRequest(http.MethodPost, "/claims", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(contextWithCustomer(req))
	rec := httptest.NewRecorder()
	app.FileClaim(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestFileClaimWithoutDocuments(t *testing.T) {
	app := newTestApp()
	app.Documents = &fakeDocs{}
	app.Lifecycle = &fakeLifecycle{fileClaim: func(_ domain.Identity, in lifecycle.ClaimInput) (*domain.Claim, error) {
		if len(in.Documents) != 0 {
			t.Fatalf("expected no documents, got %#v", in.Documents)
		}
		return &domain.Claim{ID: "claim-1", Status: domain.ClaimStatusPending}, nil
	}}

	body, contentType := multipartClaim(t, "app-1", "hospitalization", nil)
	req := httptest.NewRequest(http.MethodPost, "/claims", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(contextWithCustomer(req))
	rec := httptest.NewRecorder()
	app.FileClaim(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
