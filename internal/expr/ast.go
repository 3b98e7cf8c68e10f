package expr

import (
	"fmt"
	"math"
	"strconv"
)

const (
	pi     = math.Pi
	eulerE = math.E
)

// Expr is a parsed expression tree. Implementations are immutable; a tree
// can be evaluated concurrently.
type Expr interface {
	// Eval computes the expression at x. Domain faults (division by zero,
	// sqrt of a negative, log of a non-positive, a NaN result) return a
	// *EvalError; Eval never returns NaN without one.
	Eval(x float64) (float64, error)
	// Deriv returns the symbolic derivative with respect to x, lightly
	// folded so it renders readably.
	Deriv() Expr
	// String renders a form that Parse accepts back.
	String() string
}

// EvalError reports a domain fault during evaluation. Infinities pass
// through evaluation (their sign still carries information); only undefined
// results fault.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string { return "eval error: " + e.Msg }

func evalErrorf(format string, args ...any) error {
	return &EvalError{Msg: fmt.Sprintf(format, args...)}
}

// knownFunc reports whether name is in the whitelisted function set.
func knownFunc(name string) bool {
	switch name {
	case "sin", "cos", "tan", "exp", "log", "log10", "sqrt", "abs":
		return true
	}
	return false
}

type (
	num      struct{ val float64 }
	constant struct {
		name string
		val  float64
	}
	variable struct{}
	neg      struct{ operand Expr }
	add      struct{ l, r Expr }
	sub      struct{ l, r Expr }
	mul      struct{ l, r Expr }
	div      struct{ l, r Expr }
	pow      struct{ l, r Expr }
	call     struct {
		name string
		arg  Expr
	}
)

// ===== EVALUATION =====

func (n num) Eval(float64) (float64, error)      { return n.val, nil }
func (c constant) Eval(float64) (float64, error) { return c.val, nil }
func (variable) Eval(x float64) (float64, error) { return x, nil }

func (n neg) Eval(x float64) (float64, error) {
	v, err := n.operand.Eval(x)
	return -v, err
}

func (b add) Eval(x float64) (float64, error) {
	l, r, err := evalPair(b.l, b.r, x)
	if err != nil {
		return 0, err
	}
	s := l + r
	if math.IsNaN(s) {
		return 0, evalErrorf("%g + %g is undefined", l, r)
	}
	return s, nil
}

func (b sub) Eval(x float64) (float64, error) {
	l, r, err := evalPair(b.l, b.r, x)
	if err != nil {
		return 0, err
	}
	s := l - r
	if math.IsNaN(s) {
		return 0, evalErrorf("%g - %g is undefined", l, r)
	}
	return s, nil
}

func (b mul) Eval(x float64) (float64, error) {
	l, r, err := evalPair(b.l, b.r, x)
	if err != nil {
		return 0, err
	}
	p := l * r
	if math.IsNaN(p) {
		return 0, evalErrorf("%g * %g is undefined", l, r)
	}
	return p, nil
}

func (b div) Eval(x float64) (float64, error) {
	l, r, err := evalPair(b.l, b.r, x)
	if err != nil {
		return 0, err
	}
	if r == 0 {
		return 0, evalErrorf("division by zero")
	}
	q := l / r
	if math.IsNaN(q) {
		return 0, evalErrorf("%g / %g is undefined", l, r)
	}
	return q, nil
}

func (b pow) Eval(x float64) (float64, error) {
	l, r, err := evalPair(b.l, b.r, x)
	if err != nil {
		return 0, err
	}
	v := math.Pow(l, r)
	if math.IsNaN(v) {
		return 0, evalErrorf("%g ** %g is undefined", l, r)
	}
	return v, nil
}

func (c call) Eval(x float64) (float64, error) {
	v, err := c.arg.Eval(x)
	if err != nil {
		return 0, err
	}
	switch c.name {
	// sin, cos and tan of an infinity are NaN; everything finite is fine.
	case "sin":
		if math.IsInf(v, 0) {
			return 0, evalErrorf("sin of %g is undefined", v)
		}
		return math.Sin(v), nil
	case "cos":
		if math.IsInf(v, 0) {
			return 0, evalErrorf("cos of %g is undefined", v)
		}
		return math.Cos(v), nil
	case "tan":
		if math.IsInf(v, 0) {
			return 0, evalErrorf("tan of %g is undefined", v)
		}
		return math.Tan(v), nil
	case "exp":
		return math.Exp(v), nil
	case "log":
		if v <= 0 {
			return 0, evalErrorf("log of non-positive value %g", v)
		}
		return math.Log(v), nil
	case "log10":
		if v <= 0 {
			return 0, evalErrorf("log10 of non-positive value %g", v)
		}
		return math.Log10(v), nil
	case "sqrt":
		if v < 0 {
			return 0, evalErrorf("sqrt of negative value %g", v)
		}
		return math.Sqrt(v), nil
	case "abs":
		return math.Abs(v), nil
	}
	return 0, evalErrorf("unknown function %q", c.name)
}

func evalPair(l, r Expr, x float64) (float64, float64, error) {
	lv, err := l.Eval(x)
	if err != nil {
		return 0, 0, err
	}
	rv, err := r.Eval(x)
	if err != nil {
		return 0, 0, err
	}
	return lv, rv, nil
}

// ===== RENDERING =====

// Operator precedence for minimal re-parseable parenthesization.
const (
	precAdd = iota + 1
	precMul
	precNeg
	precPow
	precLeaf
)

func precOf(e Expr) int {
	switch v := e.(type) {
	case add, sub:
		return precAdd
	case mul, div:
		return precMul
	case neg:
		return precNeg
	case pow:
		return precPow
	case num:
		if v.val < 0 {
			// Renders with a leading minus, so it binds like a negation.
			return precNeg
		}
		return precLeaf
	default:
		return precLeaf
	}
}

// render wraps e in parentheses when its precedence is below need.
func render(e Expr, need int) string {
	if precOf(e) < need {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func (n num) String() string {
	return strconv.FormatFloat(n.val, 'g', -1, 64)
}

func (c constant) String() string { return c.name }
func (variable) String() string   { return "x" }

func (n neg) String() string {
	return "-" + render(n.operand, precNeg)
}

func (b add) String() string {
	return render(b.l, precAdd) + " + " + render(b.r, precAdd+1)
}

func (b sub) String() string {
	return render(b.l, precAdd) + " - " + render(b.r, precAdd+1)
}

func (b mul) String() string {
	return render(b.l, precMul) + " * " + render(b.r, precMul+1)
}

func (b div) String() string {
	return render(b.l, precMul) + " / " + render(b.r, precMul+1)
}

func (b pow) String() string {
	// Right-associative: the left side needs parens at equal precedence.
	return render(b.l, precPow+1) + " ** " + render(b.r, precPow)
}

func (c call) String() string {
	return c.name + "(" + c.arg.String() + ")"
}
