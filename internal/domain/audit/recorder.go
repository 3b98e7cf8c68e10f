// Package audit keeps an append-only trail of solver runs and API
// mutations. It sits behind the event bus so recording never adds latency
// to a request path.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/zerofn/zof/internal/infra/eventbus"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Recorder persists audit events. Append-only: no updates, no deletes.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a Recorder backed by the provided DB.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Insert stores one event. ID and CreatedAt are filled in when unset.
func (r *Recorder) Insert(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, user_id, action, entity, entity_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.Action, e.Entity, e.EntityID, e.Detail, e.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	return nil
}

// List retrieves events ordered newest first. A non-positive limit falls
// back to defaultListLimit; values above maxListLimit are clamped.
func (r *Recorder) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	// IDs are UUIDv7, so the id tiebreak keeps same-second events in
	// insertion order.
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, entity, entity_id, detail, created_at
		FROM audit_events
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var events []Event
	for rows.Next() {
		var e Event
		var createdAt string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Entity, &e.EntityID, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		events = append(events, e)
	}

	return events, rows.Err()
}

// Start subscribes to run.completed and api.mutation and launches the
// recording loop, which runs until ctx is done. Subscriptions are
// registered before Start returns, so events published immediately after
// are never missed. Insert failures are logged and dropped — the audit
// trail must never take the API down.
func (r *Recorder) Start(ctx context.Context, bus eventbus.EventBus) {
	runCh := bus.Subscribe(TopicRunCompleted)
	mutCh := bus.Subscribe(TopicAPIMutation)

	go r.consume(ctx, runCh, mutCh)
}

func (r *Recorder) consume(ctx context.Context, runCh, mutCh <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-runCh:
			payload, ok := evt.Payload.(RunCompletedEvent)
			if !ok {
				continue
			}
			if err := r.Insert(ctx, runCompletedEntry(payload)); err != nil {
				log.Printf("audit: record run completion: %v", err)
			}
		case evt := <-mutCh:
			payload, ok := evt.Payload.(MutationEvent)
			if !ok {
				continue
			}
			if err := r.Insert(ctx, mutationEntry(payload)); err != nil {
				log.Printf("audit: record api mutation: %v", err)
			}
		}
	}
}

// runCompletedEntry converts a run.completed payload to an audit row.
func runCompletedEntry(p RunCompletedEvent) Event {
	detail, _ := json.Marshal(map[string]any{
		"method":    p.Method,
		"converged": p.Converged,
	})

	return Event{
		UserID:    p.UserID,
		Action:    TopicRunCompleted,
		Entity:    "run",
		EntityID:  p.RunID,
		Detail:    string(detail),
		CreatedAt: p.OccurredAt,
	}
}

// mutationEntry converts an api.mutation payload to an audit row.
func mutationEntry(p MutationEvent) Event {
	detail, _ := json.Marshal(map[string]any{
		"status": p.Status,
	})

	return Event{
		UserID:    p.UserID,
		Action:    TopicAPIMutation,
		Entity:    "endpoint",
		EntityID:  p.HTTPMethod + " " + p.Path,
		Detail:    string(detail),
		CreatedAt: p.OccurredAt,
	}
}
