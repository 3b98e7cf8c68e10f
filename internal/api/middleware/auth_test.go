// Tests for the Bearer JWT middleware.
package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zerofn/zof/internal/api/ctxkeys"
	"github.com/zerofn/zof/internal/api/middleware"
	pkgauth "github.com/zerofn/zof/pkg/auth"
)

// TestMain sets JWT_SECRET before any test runs — the token helpers
// panic without it.
func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret-key-32-chars-min!!!") //nolint:errcheck
	os.Exit(m.Run())
}

// probe wraps AuthMiddleware around a handler that records whether it ran
// and with which identity.
type probe struct {
	handler http.Handler
	called  bool
	userID  string
	email   string
}

func newProbe() *probe {
	p := &probe{}
	p.handler = middleware.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.called = true
		p.userID, _ = r.Context().Value(ctxkeys.UserID).(string)
		p.email, _ = r.Context().Value(ctxkeys.Email).(string)
		w.WriteHeader(http.StatusOK)
	}))
	return p
}

func (p *probe) get(authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	p.handler.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware_RejectsBadCredentials(t *testing.T) {
	t.Parallel()

	valid, err := pkgauth.GenerateJWT("user-1", "u1@example.com")
	if err != nil {
		t.Fatalf("GenerateJWT error = %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"empty bearer value", "Bearer "},
		{"basic scheme", "Basic dXNlcjpwYXNz"},
		{"lowercase scheme", "bearer " + valid},
		{"garbage token", "Bearer not.a.real.jwt"},
		{"tampered token", "Bearer " + valid[:len(valid)-4] + "AAAA"},
	}
	for _, tc := range cases {
		p := newProbe()
		rr := p.get(tc.header)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d; want %d", tc.name, rr.Code, http.StatusUnauthorized)
		}
		if p.called {
			t.Errorf("%s: next handler ran without valid credentials", tc.name)
		}
	}
}

// expiredToken signs a token that died a minute ago with the TestMain
// secret, so only the expiry check can reject it.
func expiredToken(t *testing.T) string {
	t.Helper()

	now := time.Now()
	claims := &pkgauth.Claims{
		UserID: "user-1",
		Email:  "u1@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    pkgauth.TokenIssuer,
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			NotBefore: jwt.NewNumericDate(now.Add(-2 * time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("test-secret-key-32-chars-min!!!"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	return signed
}

func TestAuthMiddleware_ExpiredToken_SaysExpired(t *testing.T) {
	t.Parallel()

	p := newProbe()
	rr := p.get("Bearer " + expiredToken(t))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rr.Body.String(), "token expired") {
		t.Errorf("body = %s; want the expiry named", rr.Body.String())
	}
	if p.called {
		t.Error("next handler ran with an expired token")
	}
}

func TestAuthMiddleware_ValidToken_InjectsIdentity(t *testing.T) {
	t.Parallel()

	token, err := pkgauth.GenerateJWT("user-abc-123", "abc@example.com")
	if err != nil {
		t.Fatalf("GenerateJWT error = %v", err)
	}

	p := newProbe()
	rr := p.get("Bearer " + token)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if !p.called {
		t.Fatal("next handler never ran")
	}
	if p.userID != "user-abc-123" {
		t.Errorf("context UserID = %q; want user-abc-123", p.userID)
	}
	if p.email != "abc@example.com" {
		t.Errorf("context Email = %q; want abc@example.com", p.email)
	}
}

func TestAuthMiddleware_ErrorResponseIsJSON(t *testing.T) {
	t.Parallel()

	rr := newProbe().get("")

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q; want application/json", ct)
	}
	if !strings.Contains(rr.Body.String(), `"error"`) {
		t.Errorf("body = %s; want a JSON error envelope", rr.Body.String())
	}
}
