package run

import (
	"strings"

	"github.com/zerofn/zof/internal/expr"
	"github.com/zerofn/zof/internal/solver"
)

// SolveInput is one solve request as it arrives from the API, the GUI form
// or a suite file. Zero tolerance, iteration budget and delta mean "use the
// solver defaults".
type SolveInput struct {
	Method            string  `json:"method"`
	Function          string  `json:"function"`
	Aux               string  `json:"aux_function,omitempty"`
	Derivative        string  `json:"derivative,omitempty"`
	A                 float64 `json:"a"`
	B                 float64 `json:"b"`
	X0                float64 `json:"x0"`
	X1                float64 `json:"x1"`
	Delta             float64 `json:"delta,omitempty"`
	Tolerance         float64 `json:"tolerance,omitempty"`
	MaxIterations     int     `json:"max_iterations,omitempty"`
	NumericDerivative bool    `json:"numeric_derivative,omitempty"`
}

// Compute parses the input's expressions and runs the solve. It never
// touches storage — Execute layers persistence on top, and the anonymous
// GUI, the CLI and the suite runner call Compute directly.
//
// Compute normalizes in before solving: defaults are filled in and, for
// Newton, Derivative is rewritten to the expression actually used (empty
// when the numeric fallback was requested), so callers can show or persist
// the effective request.
func Compute(in *SolveInput) (*solver.Result, error) {
	method, err := solver.ParseMethod(in.Method)
	if err != nil {
		return nil, &solver.InvalidInputError{Reason: err.Error()}
	}
	in.Method = string(method)

	if in.Tolerance == 0 {
		in.Tolerance = solver.DefaultTolerance
	}
	if in.MaxIterations == 0 {
		in.MaxIterations = solver.DefaultMaxIterations
	}
	if method == solver.ModifiedSecant && in.Delta == 0 {
		in.Delta = solver.DefaultDelta
	}

	req, err := buildRequest(method, in)
	if err != nil {
		return nil, err
	}

	res, err := solver.Solve(req)
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// buildRequest turns the textual input into solver functions. Fixed point
// iterates the map g from Aux; every other method needs Function.
func buildRequest(method solver.Method, in *SolveInput) (solver.Request, error) {
	req := solver.Request{
		Method:        method,
		A:             in.A,
		B:             in.B,
		X0:            in.X0,
		X1:            in.X1,
		Delta:         in.Delta,
		Tolerance:     in.Tolerance,
		MaxIterations: in.MaxIterations,
	}

	if method == solver.FixedPoint {
		if strings.TrimSpace(in.Aux) == "" {
			return req, &solver.InvalidInputError{Reason: "fixed_point needs the iteration map g"}
		}
		g, err := expr.Parse(in.Aux)
		if err != nil {
			return req, err
		}
		in.Aux = g.String()
		req.G = g.Eval
		return req, nil
	}

	if strings.TrimSpace(in.Function) == "" {
		return req, &solver.InvalidInputError{Reason: "a function expression is required"}
	}
	f, err := expr.Parse(in.Function)
	if err != nil {
		return req, err
	}
	in.Function = f.String()
	req.F = f.Eval

	if method == solver.Newton {
		df, text, err := resolveDerivative(f, in)
		if err != nil {
			return req, err
		}
		req.Derivative = df
		in.Derivative = text
	}

	return req, nil
}

// resolveDerivative picks Newton's f': the explicit expression when given,
// the central-difference fallback when NumericDerivative is set, the
// symbolic derivative otherwise. The returned text is the expression
// actually used — empty for the numeric fallback, which has none.
func resolveDerivative(f expr.Expr, in *SolveInput) (solver.Function, string, error) {
	if strings.TrimSpace(in.Derivative) != "" {
		df, err := expr.Parse(in.Derivative)
		if err != nil {
			return nil, "", err
		}
		return df.Eval, df.String(), nil
	}

	if in.NumericDerivative {
		return solver.Differentiate(f.Eval, 0), "", nil
	}

	df := f.Deriv()
	return df.Eval, df.String(), nil
}
