package identity

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type tokenOverrides struct {
	iss string
	exp int64
}

func newJWKSServer(t *testing.T, pub *rsa.PublicKey) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"jwks_uri": srv.URL + "/keys"})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(jwks{Keys: []jwk{{
			Kid: "test-kid",
			Kty: "RSA",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}}})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, key *rsa.PrivateKey, issuer string, ov tokenOverrides) string {
	t.Helper()
	iss := issuer
	if ov.iss != "" {
		iss = ov.iss
	}
	exp := time.Now().Add(time.Hour).Unix()
	if ov.exp != 0 {
		exp = ov.exp
	}
	header, _ := json.Marshal(map[string]string{"alg": "RS256", "kid": "test-kid"})
	payload, _ := json.Marshal(map[string]any{
		"iss":            iss,
		"aud":            "assured-life",
		"sub":            "subject-1",
		"email":          "user@example.com",
		"name":           "Jordan Doe",
		"email_verified": true,
		"exp":            exp,
	})
	signingInput := base64.RawURLEncoding.EncodeToString(header) + "." + base64.RawURLEncoding.EncodeToString(payload)
	hashed := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hashed[:])
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig)
}

func TestVerifyIDToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, &key.PublicKey)
	v := NewVerifier(srv.URL, "assured-life")

	claims, err := v.VerifyIDToken(context.Background(), signToken(t, key, srv.URL, tokenOverrides{}))
	if err != nil {
		t.Fatalf("VerifyIDToken returned error: %v", err)
	}
	if claims.Subject != "subject-1" {
		t.Fatalf("Subject mismatch: got %q", claims.Subject)
	}
	if claims.Email != "user@example.com" || !claims.EmailVerified {
		t.Fatalf("email claims mismatch: %#v", claims)
	}
}

func TestVerifyIDTokenRejectsExpired(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, &key.PublicKey)
	v := NewVerifier(srv.URL, "assured-life")

	token := signToken(t, key, srv.URL, tokenOverrides{exp: time.Now().Add(-time.Minute).Unix()})
	if _, err := v.VerifyIDToken(context.Background(), token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestVerifyIDTokenRejectsWrongIssuer(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, &key.PublicKey)
	v := NewVerifier(srv.URL, "assured-life")

	token := signToken(t, key, srv.URL, tokenOverrides{iss: "https://evil.example.com"})
	if _, err := v.VerifyIDToken(context.Background(), token); err == nil {
		t.Fatal("expected error for wrong issuer")
	}
}

func TestVerifyIDTokenRejectsTamperedSignature(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, &key.PublicKey)
	v := NewVerifier(srv.URL, "assured-life")

	if _, err := v.VerifyIDToken(context.Background(), signToken(t, otherKey, srv.URL, tokenOverrides{})); err == nil {
		t.Fatal("expected error for signature from unknown key")
	}
}
