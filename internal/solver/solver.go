// Package solver implements root finding for scalar functions of one real
// variable: bisection, regula falsi, secant, Newton-Raphson, fixed-point
// iteration and modified secant.
//
// Every solve is a pure computation over its Request: no I/O, no shared
// state, no goroutines, so one solve cannot observe another. Running out of
// iterations is reported through Result.Converged rather than an error;
// errors are reserved for violated preconditions (*InvalidInputError) and
// for functions that fault during evaluation.
package solver

import (
	"fmt"
	"math"
	"strings"
)

// Function is a scalar function of one real variable. A non-nil error marks
// a domain fault at x (division by zero, log of a non-positive number, ...)
// and aborts the solve.
type Function func(x float64) (float64, error)

// Method identifies one of the supported root-finding algorithms. The
// string values double as wire names in the API, the CLI and suite files.
type Method string

const (
	Bisection      Method = "bisection"
	RegulaFalsi    Method = "regula_falsi"
	Secant         Method = "secant"
	Newton         Method = "newton"
	FixedPoint     Method = "fixed_point"
	ModifiedSecant Method = "modified_secant"
)

// Default tuning values, applied by Solve when the corresponding Request
// field is zero.
const (
	DefaultTolerance     = 1e-7
	DefaultMaxIterations = 100
	DefaultDelta         = 1e-3
	DefaultStep          = 1e-6
)

// derivEpsilon is the magnitude below which a derivative or a secant
// denominator counts as zero and the iteration is reported stalled.
const derivEpsilon = 1e-15

// ParseMethod resolves a user-supplied method name. Matching is
// case-insensitive and accepts dashes for underscores.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	switch m {
	case Bisection, RegulaFalsi, Secant, Newton, FixedPoint, ModifiedSecant:
		return m, nil
	}
	return "", fmt.Errorf("unknown method %q", name)
}

// MethodInfo describes one method for menus and tool listings.
type MethodInfo struct {
	Name        Method   `json:"name"`
	Description string   `json:"description"`
	Needs       []string `json:"needs"`
}

// Methods returns the supported methods in menu order.
func Methods() []MethodInfo {
	return []MethodInfo{
		{Name: Bisection, Description: "interval halving over a sign change", Needs: []string{"f", "a", "b"}},
		{Name: RegulaFalsi, Description: "false position over a sign change", Needs: []string{"f", "a", "b"}},
		{Name: Secant, Description: "secant line through the last two iterates", Needs: []string{"f", "x0", "x1"}},
		{Name: Newton, Description: "Newton-Raphson with an explicit derivative", Needs: []string{"f", "df", "x0"}},
		{Name: FixedPoint, Description: "fixed-point iteration of x = g(x)", Needs: []string{"g", "x0"}},
		{Name: ModifiedSecant, Description: "secant slope from a single perturbed evaluation", Needs: []string{"f", "x0", "delta"}},
	}
}

// Request describes one solve. Fields irrelevant to the chosen method are
// ignored. Tolerance and MaxIterations fall back to the package defaults
// when zero; negative values are invalid.
type Request struct {
	Method Method

	// F is the target function for every method except FixedPoint, which
	// iterates G instead.
	F Function
	// Derivative is f'. Required by Newton only; callers without one can
	// pass Differentiate(f, 0).
	Derivative Function
	// G is the iteration map for FixedPoint.
	G Function

	// A and B bracket a sign change for Bisection and RegulaFalsi.
	A, B float64
	// X0 is the initial guess. X1 is the second guess for Secant.
	X0, X1 float64
	// Delta is ModifiedSecant's relative perturbation, DefaultDelta when zero.
	Delta float64

	Tolerance     float64
	MaxIterations int
}

// TraceStep is one row of a solve's iteration history.
type TraceStep struct {
	Iteration int     `json:"iteration"`
	Estimate  float64 `json:"estimate"`
	// Residual is |f(estimate)|. Fixed point has no f, so both metrics
	// carry the successive-estimate distance there.
	Residual float64 `json:"residual"`
	// StepError is the method's own error metric: half the interval width
	// for bisection, the distance between successive estimates otherwise.
	StepError float64 `json:"error"`
}

// Result is the outcome of one solve. Root holds the best estimate reached
// even when Converged is false. len(Trace) always equals Iterations and
// never exceeds the request's iteration budget.
type Result struct {
	Method     Method      `json:"method"`
	Root       float64     `json:"root"`
	Iterations int         `json:"iterations"`
	Converged  bool        `json:"converged"`
	Residual   float64     `json:"residual"`
	Trace      []TraceStep `json:"trace"`
}

// InvalidInputError reports a violated precondition, such as a
// non-bracketing interval or a missing derivative. Reason names the exact
// violation for the user.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func invalidInputf(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// Solve runs the requested method and returns its result. Violated
// preconditions return *InvalidInputError; an error from a Function aborts
// the solve and is returned wrapped. Exhausting the iteration budget
// without meeting the tolerance is not an error: the result reports
// Converged == false together with the best estimate found.
func Solve(req Request) (Result, error) {
	if req.Tolerance == 0 {
		req.Tolerance = DefaultTolerance
	}
	if req.MaxIterations == 0 {
		req.MaxIterations = DefaultMaxIterations
	}
	if req.Tolerance <= 0 || math.IsNaN(req.Tolerance) || math.IsInf(req.Tolerance, 0) {
		return Result{}, invalidInputf("tolerance must be positive, got %g", req.Tolerance)
	}
	if req.MaxIterations < 0 {
		return Result{}, invalidInputf("max iterations must be positive, got %d", req.MaxIterations)
	}

	switch req.Method {
	case Bisection:
		return bisect(req)
	case RegulaFalsi:
		return regulaFalsi(req)
	case Secant:
		return secant(req)
	case Newton:
		return newton(req)
	case FixedPoint:
		return fixedPoint(req)
	case ModifiedSecant:
		return modifiedSecant(req)
	}
	return Result{}, invalidInputf("unknown method %q", req.Method)
}

// Differentiate returns the central-difference approximation of f's
// derivative with step h, DefaultStep when h is not positive. It is the
// numeric fallback for Newton when no analytic derivative is available.
func Differentiate(f Function, h float64) Function {
	if h <= 0 || math.IsNaN(h) {
		h = DefaultStep
	}
	return func(x float64) (float64, error) {
		hi, err := f(x + h)
		if err != nil {
			return 0, err
		}
		lo, err := f(x - h)
		if err != nil {
			return 0, err
		}
		return (hi - lo) / (2 * h), nil
	}
}
