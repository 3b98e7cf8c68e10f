// HTTP handler for the audit trail.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/zerofn/zof/internal/domain/audit"
)

// AuditHandler serves the audit trail, newest first.
type AuditHandler struct {
	recorder *audit.Recorder
}

// NewAuditHandler creates a new AuditHandler backed by the provided recorder.
func NewAuditHandler(recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{recorder: recorder}
}

// ListEventsResponse is the response body for the audit trail.
type ListEventsResponse struct {
	Events []audit.Event `json:"events"`
}

// List handles GET /api/v1/audit?limit=.
// The recorder applies its own default and cap when limit is absent.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parseListParams(r)

	events, err := h.recorder.List(r.Context(), page.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list audit events: %v", err))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	writeJSON(w, http.StatusOK, ListEventsResponse{Events: events})
}
