package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zerofn/zof/internal/api/ctxkeys"
	domainaudit "github.com/zerofn/zof/internal/domain/audit"
	"github.com/zerofn/zof/internal/infra/eventbus"
)

func TestAuditMiddleware_NilBus_PassesThrough(t *testing.T) {
	t.Parallel()

	nextCalled := false
	h := AuditMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/runs/run-1", nil)
	req = req.WithContext(ctxkeys.WithValue(req.Context(), ctxkeys.UserID, "user-1"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if !nextCalled {
		t.Fatal("expected next handler to be called")
	}
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestAuditMiddleware_ReadRequest_NotPublished(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	events := bus.Subscribe(domainaudit.TopicAPIMutation)
	h := AuditMiddleware(bus)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	req = req.WithContext(ctxkeys.WithValue(req.Context(), ctxkeys.UserID, "user-1"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	select {
	case ev := <-events:
		t.Fatalf("GET should not publish a mutation event, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAuditMiddleware_MissingUser_PassesWithoutPublish(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	events := bus.Subscribe(domainaudit.TopicAPIMutation)
	nextCalled := false
	h := AuditMiddleware(bus)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/solve", nil))

	if !nextCalled {
		t.Fatal("expected next handler to be called")
	}
	select {
	case ev := <-events:
		t.Fatalf("unauthenticated request should not publish, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAuditMiddleware_PublishesMutation(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	events := bus.Subscribe(domainaudit.TopicAPIMutation)
	h := AuditMiddleware(bus)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/runs/run-7", nil)
	req = req.WithContext(ctxkeys.WithValue(req.Context(), ctxkeys.UserID, "user-9"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	select {
	case ev := <-events:
		p, ok := ev.Payload.(domainaudit.MutationEvent)
		if !ok {
			t.Fatalf("payload type = %T; want MutationEvent", ev.Payload)
		}
		if p.UserID != "user-9" {
			t.Errorf("UserID = %q; want user-9", p.UserID)
		}
		if p.HTTPMethod != http.MethodDelete {
			t.Errorf("HTTPMethod = %q; want DELETE", p.HTTPMethod)
		}
		if p.Path != "/api/v1/runs/run-7" {
			t.Errorf("Path = %q; want /api/v1/runs/run-7", p.Path)
		}
		if p.Status != http.StatusNoContent {
			t.Errorf("Status = %d; want %d", p.Status, http.StatusNoContent)
		}
		if p.OccurredAt.IsZero() {
			t.Error("OccurredAt should be set")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for mutation event")
	}
}

func TestAuditMiddleware_DefaultStatusIs200(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	events := bus.Subscribe(domainaudit.TopicAPIMutation)
	h := AuditMiddleware(bus)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`)) //nolint:errcheck
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/solve", nil)
	req = req.WithContext(ctxkeys.WithValue(req.Context(), ctxkeys.UserID, "user-1"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	select {
	case ev := <-events:
		p := ev.Payload.(domainaudit.MutationEvent)
		if p.Status != http.StatusOK {
			t.Errorf("Status = %d; want %d for implicit WriteHeader", p.Status, http.StatusOK)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for mutation event")
	}
}

func TestStatusRecorder_WriteHeader(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rr, statusCode: http.StatusOK}
	sr.WriteHeader(http.StatusTeapot)

	if sr.statusCode != http.StatusTeapot {
		t.Fatalf("expected statusCode %d, got %d", http.StatusTeapot, sr.statusCode)
	}
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected response %d, got %d", http.StatusTeapot, rr.Code)
	}
}

func TestIsMutation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		want   bool
	}{
		{http.MethodGet, false},
		{http.MethodHead, false},
		{http.MethodPost, true},
		{http.MethodPut, true},
		{http.MethodDelete, true},
		{http.MethodPatch, false},
	}

	for _, tt := range tests {
		if got := isMutation(tt.method); got != tt.want {
			t.Errorf("isMutation(%q) = %v; want %v", tt.method, got, tt.want)
		}
	}
}
