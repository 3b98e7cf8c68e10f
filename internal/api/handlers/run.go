// HTTP handlers for the solve endpoint and per-user run history.
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/zerofn/zof/internal/domain/run"
	"github.com/zerofn/zof/internal/expr"
	"github.com/zerofn/zof/internal/solver"
)

// RunHandler handles solve requests and the run history they accumulate.
type RunHandler struct {
	runs *run.Service
}

// NewRunHandler creates a new RunHandler backed by the provided run service.
func NewRunHandler(runs *run.Service) *RunHandler {
	return &RunHandler{runs: runs}
}

// ListRunsResponse is the response body for listing runs.
type ListRunsResponse struct {
	Runs []*run.Run `json:"runs"`
}

// Solve handles POST /api/v1/solve.
// The body mirrors run.SolveInput (snake_case). A solve that exhausted its
// iteration budget is still 200 with "converged": false — clients must
// check the flag. Only parse errors, invalid input and evaluation faults
// are 400, with the message naming the violation.
func (h *RunHandler) Solve(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing user_id in context")
		return
	}

	var in run.SolveInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rn, err := h.runs.Execute(r.Context(), userID, in)
	if err != nil {
		writeError(w, statusForSolveError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rn)
}

// GetRun handles GET /api/v1/runs/{id}, trace included.
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing user_id in context")
		return
	}

	runID := chi.URLParam(r, "id")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run id is required")
		return
	}

	rn, err := h.runs.Get(r.Context(), userID, runID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get run: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, rn)
}

// ListRuns handles GET /api/v1/runs?limit=&offset=&q=.
// q filters by function-text substring; traces are omitted in list view.
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing user_id in context")
		return
	}

	page := parseListParams(r)
	q := r.URL.Query().Get("q")

	runs, err := h.runs.List(r.Context(), userID, q, page.Limit, page.Offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*run.Run{}
	}

	writeJSON(w, http.StatusOK, ListRunsResponse{Runs: runs})
}

// DeleteRun handles DELETE /api/v1/runs/{id}.
func (h *RunHandler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing user_id in context")
		return
	}

	runID := chi.URLParam(r, "id")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run id is required")
		return
	}

	err = h.runs.Delete(r.Context(), userID, runID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete run: %v", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// statusForSolveError classifies Execute failures: anything the caller can
// fix by changing the request is 400, the rest is 500.
func statusForSolveError(err error) int {
	var invalidErr *solver.InvalidInputError
	var parseErr *expr.ParseError
	var evalErr *expr.EvalError
	if errors.As(err, &invalidErr) || errors.As(err, &parseErr) || errors.As(err, &evalErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
