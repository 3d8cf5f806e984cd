package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/chainsafe/deposit-monitor/pkg/config"
)

func newProtected(v *JWTValidator) http.Handler {
	return v.Middleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, _ := SubjectFromContext(r.Context())
		_, _ = w.Write([]byte(sub))
	}))
}

func TestMiddleware_ValidToken(t *testing.T) {
	v := NewJWTValidator(config.AuthConfig{JWTSecret: "s3cret", Issuer: "ops"})
	token, err := v.IssueToken("alice", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newProtected(v).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "alice" {
		t.Fatalf("expected subject %q, got %q", "alice", rec.Body.String())
	}
}

func TestMiddleware_Rejections(t *testing.T) {
	v := NewJWTValidator(config.AuthConfig{JWTSecret: "s3cret", Issuer: "ops"})
	other := NewJWTValidator(config.AuthConfig{JWTSecret: "other", Issuer: "ops"})
	wrongIssuer := NewJWTValidator(config.AuthConfig{JWTSecret: "s3cret", Issuer: "someone-else"})

	forged, _ := other.IssueToken("mallory", time.Minute)
	expired, _ := v.IssueToken("alice", -time.Minute)
	misissued, _ := wrongIssuer.IssueToken("alice", time.Minute)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "x", Issuer: "ops"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic Zm9vOmJhcg==",
		"wrong secret":   "Bearer " + forged,
		"expired":        "Bearer " + expired,
		"wrong issuer":   "Bearer " + misissued,
		"alg none":       "Bearer " + none,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			newProtected(v).ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
			}
		})
	}
}

func TestMiddleware_DisabledWithoutSecret(t *testing.T) {
	v := NewJWTValidator(config.AuthConfig{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	newProtected(v).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if _, err := v.IssueToken("alice", time.Minute); err == nil {
		t.Fatal("expected IssueToken to fail without a secret")
	}
}
