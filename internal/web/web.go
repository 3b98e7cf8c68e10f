// Package web serves the anonymous browser GUI: a calculator form and a
// result view with the iteration trace. Solves run in memory through
// run.Compute — nothing is persisted and no login is required.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zerofn/zof/internal/domain/run"
	"github.com/zerofn/zof/internal/solver"
)

// templates embeds the GUI views. The embed directive is relative to this
// file's package directory.
//
//go:embed templates/*.tmpl
var templates embed.FS

var tmplFuncs = template.FuncMap{"num": formatFloat}

// The views ship inside the binary, so a parse failure is a build defect —
// Must turns it into a startup panic instead of a per-request error.
var (
	indexTmpl  = template.Must(template.New("index.html.tmpl").Funcs(tmplFuncs).ParseFS(templates, "templates/index.html.tmpl"))
	resultTmpl = template.Must(template.New("result.html.tmpl").Funcs(tmplFuncs).ParseFS(templates, "templates/result.html.tmpl"))
)

// maxFormIterations caps the iteration budget a browser form can request,
// matching the JSON API bound. The form clamps silently instead of
// rejecting — a GUI user gets a result, not an error.
const maxFormIterations = run.MaxAPIIterations

// Handler renders the form and computes solves for it.
type Handler struct {
	index  *template.Template
	result *template.Template
}

// NewHandler creates a Handler over the embedded templates.
func NewHandler() *Handler {
	return &Handler{index: indexTmpl, result: resultTmpl}
}

// indexData feeds the form template. Form carries the submitted values
// back so a failed solve does not clear what the user typed.
type indexData struct {
	Methods []solver.MethodInfo
	Error   string
	Form    url.Values
}

// resultData feeds the result template.
type resultData struct {
	Method     string
	Function   string
	Derivative string
	Root       float64
	Iterations int
	Converged  bool
	Residual   float64
	Trace      []solver.TraceStep
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	h.renderIndex(w, "", nil)
}

// Compute handles POST /compute. Malformed input re-renders the form with
// the error message and the submitted values; a solve that ran out of
// iterations still gets the result page, flagged as not converged.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderIndex(w, "could not read the form", nil)
		return
	}

	in, err := inputFromForm(r.PostForm)
	if err != nil {
		h.renderIndex(w, err.Error(), r.PostForm)
		return
	}

	res, err := run.Compute(in)
	if err != nil {
		h.renderIndex(w, err.Error(), r.PostForm)
		return
	}

	data := resultData{
		Method:     in.Method,
		Function:   displayFunction(in),
		Derivative: in.Derivative,
		Root:       res.Root,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Residual:   res.Residual,
		Trace:      res.Trace,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.result.Execute(w, data); err != nil {
		log.Printf("web: render result: %v", err)
	}
}

func (h *Handler) renderIndex(w http.ResponseWriter, errMsg string, form url.Values) {
	if form == nil {
		form = url.Values{}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{Methods: solver.Methods(), Error: errMsg, Form: form}
	if err := h.index.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}

// inputFromForm converts the submitted form into a solve input. Numeric
// fields may be left blank; blank means "use the default".
func inputFromForm(form url.Values) (*run.SolveInput, error) {
	in := &run.SolveInput{
		Method:     strings.TrimSpace(form.Get("method")),
		Function:   strings.TrimSpace(form.Get("f_expr")),
		Aux:        strings.TrimSpace(form.Get("g_expr")),
		Derivative: strings.TrimSpace(form.Get("df_expr")),
	}

	var err error
	if in.A, err = floatField(form, "a"); err != nil {
		return nil, err
	}
	if in.B, err = floatField(form, "b"); err != nil {
		return nil, err
	}
	if in.X0, err = floatField(form, "x0"); err != nil {
		return nil, err
	}
	if in.X1, err = floatField(form, "x1"); err != nil {
		return nil, err
	}
	if in.Delta, err = floatField(form, "delta"); err != nil {
		return nil, err
	}
	if in.Tolerance, err = floatField(form, "tol"); err != nil {
		return nil, err
	}
	if in.MaxIterations, err = intField(form, "maxiter"); err != nil {
		return nil, err
	}
	if in.MaxIterations > maxFormIterations {
		in.MaxIterations = maxFormIterations
	}

	return in, nil
}

func floatField(form url.Values, name string) (float64, error) {
	raw := strings.TrimSpace(form.Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, raw)
	}
	return v, nil
}

func intField(form url.Values, name string) (int, error) {
	raw := strings.TrimSpace(form.Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number, got %q", name, raw)
	}
	return v, nil
}

// displayFunction picks the expression the result page titles itself with:
// the iteration map for fixed point, f otherwise. Compute has already
// normalized the method name and the expression it solved.
func displayFunction(in *run.SolveInput) string {
	if in.Method == string(solver.FixedPoint) {
		return in.Aux
	}
	return in.Function
}

// formatFloat renders floats in their shortest round-trip form.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
