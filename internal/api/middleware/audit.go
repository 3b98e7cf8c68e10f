// HTTP audit middleware for protected routes.
package middleware

import (
	"net/http"
	"time"

	"github.com/zerofn/zof/internal/api/ctxkeys"
	domainaudit "github.com/zerofn/zof/internal/domain/audit"
	"github.com/zerofn/zof/internal/infra/eventbus"
)

// AuditMiddleware publishes an api.mutation event for every authenticated
// mutating request (POST, PUT, DELETE) on the route group it wraps. The
// audit recorder consumes the topic and persists the trail off the request
// path, so a slow audit store never adds latency here.
// Must sit inside AuthMiddleware: without a user in context it passes
// requests through without publishing.
func AuditMiddleware(bus eventbus.EventBus) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bus == nil || !isMutation(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := r.Context().Value(ctxkeys.UserID).(string)
			if !ok || userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)

			bus.Publish(domainaudit.TopicAPIMutation, domainaudit.MutationEvent{
				UserID:     userID,
				HTTPMethod: r.Method,
				Path:       r.URL.Path,
				Status:     recorder.statusCode,
				OccurredAt: time.Now().UTC(),
			})
		})
	}
}

// statusRecorder captures the status code the handler chain writes.
// Handlers that never call WriteHeader implicitly send 200.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}
