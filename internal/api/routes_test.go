// Wiring tests for NewRouter.
// Validates that NewRouter registers the public GUI and auth routes, guards
// /api/v1 with AuthMiddleware, and wires the shared event bus so a solve
// lands in the audit trail.
package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/zerofn/zof/internal/domain/audit"
	"github.com/zerofn/zof/internal/infra/sqlite"
)

func TestMain(m *testing.M) {
	// AuthMiddleware reads JWT_SECRET — must be set for protected routes to parse tokens.
	os.Setenv("JWT_SECRET", "test-secret-key-32-chars-min!!!") //nolint:errcheck
	os.Exit(m.Run())
}

// mustOpenAPITestDB opens an in-memory SQLite DB with all migrations applied.
func mustOpenAPITestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("mustOpenAPITestDB: NewDB: %v", err)
	}
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("mustOpenAPITestDB: MigrateUp: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestNewRouter_HealthEndpoint verifies that NewRouter registers the /health route.
func TestNewRouter_HealthEndpoint(t *testing.T) {
	db := mustOpenAPITestDB(t)

	router := NewRouter(db)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("expected body to contain 'ok', got %q", w.Body.String())
	}
}

// TestNewRouter_GUIIndex verifies that the browser form is served at / without auth.
func TestNewRouter_GUIIndex(t *testing.T) {
	db := mustOpenAPITestDB(t)

	router := NewRouter(db)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 from /, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `name="f_expr"`) {
		t.Errorf("expected the solver form in the body, got %q", w.Body.String())
	}
}

// TestNewRouter_SolveEndpoint_Unauthorized verifies that POST /api/v1/solve
// is registered and returns 401 without JWT.
func TestNewRouter_SolveEndpoint_Unauthorized(t *testing.T) {
	db := mustOpenAPITestDB(t)

	router := NewRouter(db)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/solve",
		strings.NewReader(`{"method":"bisection","function":"x - 1","a":0,"b":2}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Without JWT, AuthMiddleware must reject with 401.
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated /api/v1/solve, got %d", w.Code)
	}
}

// TestNewRouter_RegisterLoginSolveAudit_RoundTrip walks the full wiring:
// register, login, solve with the issued token, then confirm both the
// run.completed and api.mutation events reached the audit trail through
// the shared bus.
func TestNewRouter_RegisterLoginSolveAudit_RoundTrip(t *testing.T) {
	db := mustOpenAPITestDB(t)

	router := NewRouter(db)

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	creds := `{"email":"roundtrip@example.com","password":"hunter2hunter2"}`
	if w := do(http.MethodPost, "/auth/register", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("register: got = %d; want %d (body %q)", w.Code, http.StatusCreated, w.Body.String())
	}

	w := do(http.MethodPost, "/auth/login", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login: got = %d; want %d (body %q)", w.Code, http.StatusOK, w.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	solve := `{"method":"bisection","function":"x**3 - x - 2","a":1,"b":2}`
	if w := do(http.MethodPost, "/api/v1/solve", login.Token, solve); w.Code != http.StatusOK {
		t.Fatalf("solve: got = %d; want %d (body %q)", w.Code, http.StatusOK, w.Body.String())
	}

	// The recorder consumes bus events in a goroutine, so poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		w := do(http.MethodGet, "/api/v1/audit", login.Token, "")
		if w.Code != http.StatusOK {
			t.Fatalf("audit list: got = %d; want %d", w.Code, http.StatusOK)
		}
		var resp struct {
			Events []audit.Event `json:"events"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode audit response: %v", err)
		}

		var haveRun, haveMutation bool
		for _, e := range resp.Events {
			switch e.Action {
			case audit.TopicRunCompleted:
				haveRun = true
			case audit.TopicAPIMutation:
				haveMutation = true
			}
		}
		if haveRun && haveMutation {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("audit trail missing events after solve: run=%v mutation=%v (%d events)",
				haveRun, haveMutation, len(resp.Events))
		}
		time.Sleep(10 * time.Millisecond)
	}
}
