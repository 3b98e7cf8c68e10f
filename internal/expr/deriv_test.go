package expr_test

import (
	"math"
	"testing"

	"github.com/zerofn/zof/internal/expr"
)

// centralDiff approximates f' at x for comparison with the symbolic form.
func centralDiff(t *testing.T, e expr.Expr, x, h float64) float64 {
	t.Helper()
	hi, err := e.Eval(x + h)
	if err != nil {
		t.Fatalf("Eval(%g): %v", x+h, err)
	}
	lo, err := e.Eval(x - h)
	if err != nil {
		t.Fatalf("Eval(%g): %v", x-h, err)
	}
	return (hi - lo) / (2 * h)
}

func TestDeriv_MatchesCentralDifference(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src    string
		points []float64
	}{
		{"x**3", []float64{0.5, 2}},
		{"sin(x)", []float64{0.3, 1.2}},
		{"cos(x) * x", []float64{0.7, 2.1}},
		{"exp(x)", []float64{0, 1}},
		{"log(x)", []float64{0.5, 3}},
		{"log10(x)", []float64{2, 10}},
		{"sqrt(x)", []float64{1, 4}},
		{"tan(x)", []float64{0.3, 1}},
		{"x / (x + 1)", []float64{0.5, 2}},
		{"abs(x)", []float64{-2, 3}},
		{"x**x", []float64{1.5, 2}},
		{"2**x", []float64{0.5, 1}},
		{"sin(x**2)", []float64{0.5, 1}},
		{"x**2 - 2", []float64{-1, 1.4}},
	}
	for _, tc := range cases {
		e := mustParse(t, tc.src)
		d := e.Deriv()
		for _, x := range tc.points {
			sym, err := d.Eval(x)
			if err != nil {
				t.Errorf("%q: Deriv().Eval(%g): %v", tc.src, x, err)
				continue
			}
			numeric := centralDiff(t, e, x, 1e-6)
			tol := 1e-4 * math.Max(1, math.Abs(sym))
			if math.Abs(sym-numeric) > tol {
				t.Errorf("%q at x=%g: symbolic = %g, numeric = %g", tc.src, x, sym, numeric)
			}
		}
	}
}

func TestDeriv_RendersSimplified(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		want string
	}{
		{"x", "1"},
		{"5", "0"},
		{"pi", "0"},
		{"x**2", "2 * x"},
		{"x**3", "3 * x ** 2"},
		{"sin(x)", "cos(x)"},
		{"cos(x)", "-sin(x)"},
		{"exp(x)", "exp(x)"},
		{"log(x)", "1 / x"},
		{"sqrt(x)", "1 / (2 * sqrt(x))"},
	}
	for _, tc := range cases {
		got := mustParse(t, tc.src).Deriv().String()
		if got != tc.want {
			t.Errorf("Deriv(%q).String() = %q; want %q", tc.src, got, tc.want)
		}
	}
}

func TestDeriv_SecondOrder(t *testing.T) {
	t.Parallel()

	// d2/dx2 of x**3 is 6x.
	d2 := mustParse(t, "x**3").Deriv().Deriv()
	got, err := d2.Eval(2)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if math.Abs(got-12) > 1e-12 {
		t.Errorf("second derivative at 2 = %g; want 12", got)
	}
}

func TestDeriv_AbsAtZeroFaults(t *testing.T) {
	t.Parallel()

	// |x| has no derivative at 0; evaluation reports it as a fault.
	_, err := mustParse(t, "abs(x)").Deriv().Eval(0)
	if err == nil {
		t.Fatal("expected a fault for d|x|/dx at 0")
	}
}
