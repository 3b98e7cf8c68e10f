package expr_test

import (
	"errors"
	"math"
	"testing"

	"github.com/zerofn/zof/internal/expr"
)

func mustParse(t *testing.T, src string) expr.Expr {
	t.Helper()
	e, err := expr.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return e
}

func TestEval_Values(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		x    float64
		want float64
	}{
		{"2+3*4", 0, 14},
		{"(2+3)*4", 0, 20},
		{"2**3**2", 0, 512}, // right-associative
		{"6/3/2", 0, 1},     // left-associative
		{"-x**2", 3, -9},
		{"--x", 5, 5},
		{"x^3", 2, 8},
		{"pi", 0, math.Pi},
		{"e", 0, math.E},
		{"abs(-3*x)", 2, 6},
		{"log10(100)", 0, 2},
		{"sqrt(x)", 9, 3},
		{"cos(0)", 5, 1},
		{"tan(0)", 1, 0},
		{"exp(0)", 2, 1},
		{"log(e)", 0, 1},
		{"x**-1", 4, 0.25},
		{".5*x", 4, 2},
		{"sin(pi/2)", 0, 1},
	}
	for _, tc := range cases {
		got, err := mustParse(t, tc.src).Eval(tc.x)
		if err != nil {
			t.Errorf("Eval(%q, %g): %v", tc.src, tc.x, err)
			continue
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Eval(%q, %g) = %g; want %g", tc.src, tc.x, got, tc.want)
		}
	}
}

func TestEval_DomainFaults(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src string
		x   float64
	}{
		{"1/x", 0},
		{"sqrt(x)", -1},
		{"log(x)", 0},
		{"log(x)", -2},
		{"log10(x)", 0},
		{"x**0.5", -2},
		{"exp(x) - exp(x)", 1000}, // inf - inf
		{"sin(exp(x))", 1000},     // sin of inf
		{"cos(-exp(x))", 1000},
	}
	for _, tc := range cases {
		_, err := mustParse(t, tc.src).Eval(tc.x)
		var everr *expr.EvalError
		if !errors.As(err, &everr) {
			t.Errorf("Eval(%q, %g): err = %v; want *EvalError", tc.src, tc.x, err)
		}
	}
}

func TestEval_InfinityPassesThrough(t *testing.T) {
	t.Parallel()

	got, err := mustParse(t, "exp(x)").Eval(1000)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("exp(1000) = %g; want +Inf", got)
	}

	got, err = mustParse(t, "-exp(x)").Eval(1000)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !math.IsInf(got, -1) {
		t.Errorf("-exp(1000) = %g; want -Inf", got)
	}
}

func TestEval_NeverReturnsNaN(t *testing.T) {
	t.Parallel()

	// Every NaN-producing path must fault instead.
	srcs := []string{"x**x", "x - x", "x * x", "sqrt(abs(x)) - sqrt(abs(x))", "tan(exp(x))"}
	points := []float64{-0.5, 0, 2, 1000}
	for _, src := range srcs {
		e := mustParse(t, src)
		for _, x := range points {
			got, err := e.Eval(x)
			if err == nil && math.IsNaN(got) {
				t.Errorf("Eval(%q, %g) returned NaN without error", src, x)
			}
		}
	}
}
