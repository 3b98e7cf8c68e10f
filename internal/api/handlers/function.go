// HTTP handlers for expression analysis and the method catalog.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zerofn/zof/internal/expr"
	"github.com/zerofn/zof/internal/solver"
)

// FunctionHandler serves expression analysis and method metadata.
// Stateless — both endpoints compute from their inputs alone.
type FunctionHandler struct{}

// NewFunctionHandler creates a new FunctionHandler.
func NewFunctionHandler() *FunctionHandler {
	return &FunctionHandler{}
}

// AnalyzeRequest is the request body for POST /api/v1/functions/analyze.
type AnalyzeRequest struct {
	Expression string `json:"expression"`
}

// AnalyzeResponse echoes the expression together with its normalized
// rendering and its simplified symbolic derivative.
type AnalyzeResponse struct {
	Expression string `json:"expression"`
	Normalized string `json:"normalized"`
	Derivative string `json:"derivative"`
}

// Analyze handles POST /api/v1/functions/analyze.
// Parse failures are 400 and the message carries the offending position.
func (h *FunctionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := expr.Parse(req.Expression)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Expression: req.Expression,
		Normalized: f.String(),
		Derivative: f.Deriv().String(),
	})
}

// Methods handles GET /api/v1/methods. The list drives client menus: each
// entry names the method and the inputs it needs.
func (h *FunctionHandler) Methods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, solver.Methods())
}
