package expr

import "math"

// Folding constructors used by Deriv. They drop additive zeros and unit
// factors and fold numeric subtrees, so derivatives render close to what a
// person would write. Parse never folds: the normalized form of an
// expression keeps the user's shape.

func mkNum(v float64) Expr { return num{v} }

func numVal(e Expr) (float64, bool) {
	n, ok := e.(num)
	return n.val, ok
}

func isNum(e Expr, v float64) bool {
	n, ok := e.(num)
	return ok && n.val == v
}

func mkNeg(e Expr) Expr {
	if v, ok := numVal(e); ok {
		return num{-v}
	}
	if inner, ok := e.(neg); ok {
		return inner.operand
	}
	return neg{e}
}

func mkAdd(l, r Expr) Expr {
	if lv, ok := numVal(l); ok {
		if rv, ok := numVal(r); ok {
			return num{lv + rv}
		}
	}
	if isNum(l, 0) {
		return r
	}
	if isNum(r, 0) {
		return l
	}
	return add{l, r}
}

func mkSub(l, r Expr) Expr {
	if lv, ok := numVal(l); ok {
		if rv, ok := numVal(r); ok {
			return num{lv - rv}
		}
	}
	if isNum(r, 0) {
		return l
	}
	if isNum(l, 0) {
		return mkNeg(r)
	}
	return sub{l, r}
}

func mkMul(l, r Expr) Expr {
	if lv, ok := numVal(l); ok {
		if rv, ok := numVal(r); ok {
			return num{lv * rv}
		}
	}
	if isNum(l, 0) || isNum(r, 0) {
		return num{0}
	}
	if isNum(l, 1) {
		return r
	}
	if isNum(r, 1) {
		return l
	}
	return mul{l, r}
}

func mkDiv(l, r Expr) Expr {
	if isNum(r, 1) {
		return l
	}
	if isNum(l, 0) {
		return num{0}
	}
	if lv, ok := numVal(l); ok {
		if rv, ok := numVal(r); ok && rv != 0 {
			return num{lv / rv}
		}
	}
	return div{l, r}
}

func mkPow(l, r Expr) Expr {
	if isNum(r, 1) {
		return l
	}
	if isNum(r, 0) {
		return num{1}
	}
	if lv, ok := numVal(l); ok {
		if rv, ok := numVal(r); ok {
			if v := math.Pow(lv, rv); !math.IsNaN(v) {
				return num{v}
			}
		}
	}
	return pow{l, r}
}

// ===== DERIVATIVES =====

func (num) Deriv() Expr      { return num{0} }
func (constant) Deriv() Expr { return num{0} }
func (variable) Deriv() Expr { return num{1} }

func (n neg) Deriv() Expr { return mkNeg(n.operand.Deriv()) }

func (b add) Deriv() Expr { return mkAdd(b.l.Deriv(), b.r.Deriv()) }
func (b sub) Deriv() Expr { return mkSub(b.l.Deriv(), b.r.Deriv()) }

// (uv)' = u'v + uv'
func (b mul) Deriv() Expr {
	return mkAdd(mkMul(b.l.Deriv(), b.r), mkMul(b.l, b.r.Deriv()))
}

// (u/v)' = (u'v - uv') / v**2
func (b div) Deriv() Expr {
	numer := mkSub(mkMul(b.l.Deriv(), b.r), mkMul(b.l, b.r.Deriv()))
	return mkDiv(numer, mkPow(b.r, num{2}))
}

// Constant exponents use the power rule; anything else falls back to the
// general form u**v * (v' log(u) + v u'/u).
func (b pow) Deriv() Expr {
	if k, ok := numVal(b.r); ok {
		return mkMul(mkMul(num{k}, mkPow(b.l, num{k - 1})), b.l.Deriv())
	}
	left := mkMul(b.r.Deriv(), call{name: "log", arg: b.l})
	right := mkDiv(mkMul(b.r, b.l.Deriv()), b.l)
	return mkMul(pow{b.l, b.r}, mkAdd(left, right))
}

func (c call) Deriv() Expr {
	u := c.arg
	du := u.Deriv()
	switch c.name {
	case "sin":
		return mkMul(call{name: "cos", arg: u}, du)
	case "cos":
		return mkNeg(mkMul(call{name: "sin", arg: u}, du))
	case "tan":
		return mkDiv(du, mkPow(call{name: "cos", arg: u}, num{2}))
	case "exp":
		return mkMul(call{name: "exp", arg: u}, du)
	case "log":
		return mkDiv(du, u)
	case "log10":
		return mkDiv(du, mkMul(u, num{math.Ln10}))
	case "sqrt":
		return mkDiv(du, mkMul(num{2}, call{name: "sqrt", arg: u}))
	case "abs":
		// u/|u| carries the sign; evaluation faults at u = 0 where the
		// derivative does not exist.
		return mkDiv(mkMul(u, du), call{name: "abs", arg: u})
	}
	// Unreachable after Parse; evaluating it reports the unknown function.
	return c
}
