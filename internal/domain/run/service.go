// Package run orchestrates solves: expressions are parsed, the solver is
// invoked, and the outcome is persisted per user and announced on the
// event bus. The kernel itself stays pure; storage is strictly this
// layer's concern.
package run

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/zerofn/zof/internal/domain/audit"
	"github.com/zerofn/zof/internal/infra/eventbus"
	"github.com/zerofn/zof/internal/solver"
)

// MaxAPIIterations caps the per-request iteration budget on the shared
// daemon. The CLI runs uncapped; an HTTP client does not get to pin a
// server core with a billion-iteration request.
const MaxAPIIterations = 10000

// History page bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Params records the numeric knobs a run was executed with, stored as a
// JSON column so history is reproducible.
type Params struct {
	A                 float64 `json:"a,omitempty"`
	B                 float64 `json:"b,omitempty"`
	X0                float64 `json:"x0,omitempty"`
	X1                float64 `json:"x1,omitempty"`
	Delta             float64 `json:"delta,omitempty"`
	Tolerance         float64 `json:"tolerance"`
	MaxIterations     int     `json:"max_iterations"`
	NumericDerivative bool    `json:"numeric_derivative,omitempty"`
}

// Run is one persisted solve, converged or not.
type Run struct {
	ID         string             `json:"id"`
	UserID     string             `json:"user_id"`
	Method     string             `json:"method"`
	Function   string             `json:"function"`
	Aux        string             `json:"aux_function,omitempty"`
	Derivative string             `json:"derivative,omitempty"`
	Params     Params             `json:"params"`
	Root       float64            `json:"root"`
	Iterations int                `json:"iterations"`
	Converged  bool               `json:"converged"`
	Residual   float64            `json:"residual"`
	Trace      []solver.TraceStep `json:"trace,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Service executes solves and keeps per-user run history.
type Service struct {
	db  *sql.DB
	bus eventbus.EventBus
}

// NewService creates a Service. bus may be nil; then nothing is published.
func NewService(db *sql.DB, bus eventbus.EventBus) *Service {
	return &Service{db: db, bus: bus}
}

// Execute runs one solve for userID and persists the outcome — a run that
// failed to converge is history too. Parse errors and invalid input abort
// before anything is written.
func (s *Service) Execute(ctx context.Context, userID string, in SolveInput) (*Run, error) {
	if in.MaxIterations > MaxAPIIterations {
		return nil, &solver.InvalidInputError{
			Reason: fmt.Sprintf("max_iterations %d exceeds the cap of %d", in.MaxIterations, MaxAPIIterations),
		}
	}

	res, err := Compute(&in)
	if err != nil {
		return nil, err
	}

	r := &Run{
		ID:         uuid.Must(uuid.NewV7()).String(),
		UserID:     userID,
		Method:     in.Method,
		Function:   in.Function,
		Aux:        in.Aux,
		Derivative: in.Derivative,
		Params: Params{
			A:                 in.A,
			B:                 in.B,
			X0:                in.X0,
			X1:                in.X1,
			Delta:             in.Delta,
			Tolerance:         in.Tolerance,
			MaxIterations:     in.MaxIterations,
			NumericDerivative: in.NumericDerivative,
		},
		Root:       res.Root,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Residual:   res.Residual,
		Trace:      res.Trace,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.insert(ctx, r); err != nil {
		return nil, err
	}

	s.publishRunCompleted(r)

	return r, nil
}

// Get returns one run with its full trace, scoped to its owner. A missing
// or foreign id surfaces sql.ErrNoRows for the handler's 404 mapping.
func (s *Service) Get(ctx context.Context, userID, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, method, function, aux_function, derivative, params,
		       root, iterations, converged, residual, trace, created_at
		FROM runs
		WHERE id = ? AND user_id = ?
	`, id, userID)

	r, err := scanRun(row, true)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// List returns the user's runs newest first with traces omitted. A
// non-empty q substring-matches the function text. limit is clamped to
// MaxListLimit; non-positive values fall back to DefaultListLimit.
func (s *Service) List(ctx context.Context, userID, q string, limit, offset int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, method, function, aux_function, derivative, params,
		       root, iterations, converged, residual, created_at
		FROM runs
		WHERE user_id = ? AND (? = '' OR function LIKE '%' || ? || '%')
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, q, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Delete removes one run, scoped to its owner. A missing or foreign id
// surfaces sql.ErrNoRows, mirroring Get.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (s *Service) insert(ctx context.Context, r *Run) error {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	trace, err := json.Marshal(r.Trace)
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, user_id, method, function, aux_function, derivative, params,
		                  root, iterations, converged, residual, trace, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.UserID, r.Method, r.Function, r.Aux, r.Derivative, string(params),
		r.Root, r.Iterations, r.Converged, r.Residual, string(trace), r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	return nil
}

func (s *Service) publishRunCompleted(r *Run) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(audit.TopicRunCompleted, audit.RunCompletedEvent{
		RunID:      r.ID,
		UserID:     r.UserID,
		Method:     r.Method,
		Converged:  r.Converged,
		OccurredAt: r.CreatedAt,
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun reads one runs row. sql.ErrNoRows passes through untouched so
// callers can map it to their not-found handling.
func scanRun(row rowScanner, withTrace bool) (*Run, error) {
	var (
		r              Run
		params, trace  string
		createdAt      string
		root, residual sql.NullFloat64
	)

	dest := []any{
		&r.ID, &r.UserID, &r.Method, &r.Function, &r.Aux, &r.Derivative, &params,
		&root, &r.Iterations, &r.Converged, &residual,
	}
	if withTrace {
		dest = append(dest, &trace)
	}
	dest = append(dest, &createdAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	_ = json.Unmarshal([]byte(params), &r.Params) //nolint:errcheck // own writes
	if withTrace && trace != "" {
		_ = json.Unmarshal([]byte(trace), &r.Trace) //nolint:errcheck // own writes
	}
	r.Root = floatOrNaN(root)
	r.Residual = floatOrNaN(residual)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &r, nil
}

// floatOrNaN maps a NULL REAL back to NaN — SQLite stores NaN as NULL.
func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
