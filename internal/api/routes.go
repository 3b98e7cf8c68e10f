// Route registration and go-chi router setup.
// Public routes (GUI, /health, /auth/*) vs JWT-protected routes (/api/v1/*).
package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/zerofn/zof/internal/api/handlers"
	apmiddleware "github.com/zerofn/zof/internal/api/middleware"
	domainaudit "github.com/zerofn/zof/internal/domain/audit"
	domainauth "github.com/zerofn/zof/internal/domain/auth"
	"github.com/zerofn/zof/internal/domain/run"
	"github.com/zerofn/zof/internal/infra/eventbus"
	"github.com/zerofn/zof/internal/web"
)

// NewRouter creates and configures a new chi router with all routes.
// Public: the browser GUI (/, /compute), /health and /auth/*. Everything
// under /api/v1 requires a Bearer JWT via AuthMiddleware.
func NewRouter(db *sql.DB) *chi.Mux {
	r := chi.NewRouter()

	// Stack applied to every route, GUI and API alike
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// One bus wires the whole API: the run service publishes
	// run.completed, AuditMiddleware publishes api.mutation, and the
	// recorder consumes both into the audit trail.
	bus := eventbus.New()
	recorder := domainaudit.NewRecorder(db)
	recorder.Start(context.Background(), bus)
	runService := run.NewService(db, bus)

	// ===== PUBLIC: GUI, health, auth =====

	// Health check — unauthenticated, used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// Browser GUI — anonymous, solves in memory, persists nothing
	gui := web.NewHandler()
	r.Get("/", gui.Index)
	r.Post("/compute", gui.Compute)

	// Auth endpoints — public, no JWT required
	authHandler := handlers.NewAuthHandler(domainauth.NewService(db))
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register) // POST /auth/register
		r.Post("/login", authHandler.Login)       // POST /auth/login
	})

	// ===== PROTECTED: /api/v1 behind Bearer JWT =====

	// AuthMiddleware validates the token and injects UserID + Email into
	// context; AuditMiddleware records mutating verbs through the bus.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.AuthMiddleware)
		r.Use(apmiddleware.AuditMiddleware(bus))

		runHandler := handlers.NewRunHandler(runService)
		r.Post("/solve", runHandler.Solve) // POST /api/v1/solve
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", runHandler.ListRuns)         // GET /api/v1/runs
			r.Get("/{id}", runHandler.GetRun)       // GET /api/v1/runs/{id}
			r.Delete("/{id}", runHandler.DeleteRun) // DELETE /api/v1/runs/{id}
		})

		functionHandler := handlers.NewFunctionHandler()
		r.Post("/functions/analyze", functionHandler.Analyze) // POST /api/v1/functions/analyze
		r.Get("/methods", functionHandler.Methods)            // GET /api/v1/methods

		auditHandler := handlers.NewAuditHandler(recorder)
		r.Get("/audit", auditHandler.List) // GET /api/v1/audit
	})

	return r
}
