package audit

import "time"

// Topics the recorder consumes. Producers import these so topic names
// stay in one place.
const (
	TopicRunCompleted = "run.completed"
	TopicAPIMutation  = "api.mutation"
)

// Event is a single audit log entry.
// Append-only — once created, it is never modified.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RunCompletedEvent is the bus payload the run service publishes after a
// solve has been persisted.
type RunCompletedEvent struct {
	RunID      string
	UserID     string
	Method     string
	Converged  bool
	OccurredAt time.Time
}

// MutationEvent is the bus payload the API middleware publishes for every
// authenticated write request.
type MutationEvent struct {
	UserID     string
	HTTPMethod string
	Path       string
	Status     int
	OccurredAt time.Time
}
