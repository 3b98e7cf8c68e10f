package solver

import (
	"fmt"
	"math"
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// call evaluates f at x, tagging domain faults with the position they
// occurred at.
func call(f Function, x float64) (float64, error) {
	y, err := f(x)
	if err != nil {
		return 0, fmt.Errorf("evaluating at x = %g: %w", x, err)
	}
	return y, nil
}

// bracketCheck validates a sign-change interval and evaluates f at both
// endpoints. An endpoint that is itself a root passes the check; callers
// handle that case before iterating.
func bracketCheck(f Function, a, b float64) (fa, fb float64, err error) {
	if !finite(a) || !finite(b) {
		return 0, 0, invalidInputf("interval endpoints must be finite, got [%g, %g]", a, b)
	}
	if a >= b {
		return 0, 0, invalidInputf("interval [%g, %g] is empty or inverted", a, b)
	}
	if fa, err = call(f, a); err != nil {
		return 0, 0, err
	}
	if fb, err = call(f, b); err != nil {
		return 0, 0, err
	}
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return 0, 0, invalidInputf("f is undefined (NaN) at an interval endpoint")
	}
	if fa != 0 && fb != 0 && fa*fb > 0 {
		return 0, 0, invalidInputf("f(%g) = %g and f(%g) = %g do not bracket a sign change", a, fa, b, fb)
	}
	return fa, fb, nil
}

// bisect halves [a, b] keeping the sign-changing half. With a valid bracket
// it terminates within ceil(log2((b-a)/tol)) iterations.
func bisect(req Request) (Result, error) {
	res := Result{Method: Bisection}
	if req.F == nil {
		return res, invalidInputf("bisection requires f")
	}
	a, b := req.A, req.B
	fa, fb, err := bracketCheck(req.F, a, b)
	if err != nil {
		return res, err
	}
	if fa == 0 {
		res.Root, res.Converged = a, true
		return res, nil
	}
	if fb == 0 {
		res.Root, res.Converged = b, true
		return res, nil
	}

	for i := 1; i <= req.MaxIterations; i++ {
		c := (a + b) / 2
		fc, err := call(req.F, c)
		if err != nil {
			return res, err
		}
		half := (b - a) / 2
		res.Trace = append(res.Trace, TraceStep{Iteration: i, Estimate: c, Residual: math.Abs(fc), StepError: half})
		res.Root, res.Iterations, res.Residual = c, i, math.Abs(fc)
		if fc == 0 || half < req.Tolerance {
			res.Converged = true
			return res, nil
		}
		if math.IsNaN(fc) {
			return res, nil
		}
		if fa*fc < 0 {
			b = c
		} else {
			a, fa = c, fc
		}
	}
	return res, nil
}

// regulaFalsi replaces the midpoint with the chord intercept
// c = b - f(b)(b-a)/(f(b)-f(a)), keeping the bracket.
func regulaFalsi(req Request) (Result, error) {
	res := Result{Method: RegulaFalsi}
	if req.F == nil {
		return res, invalidInputf("regula falsi requires f")
	}
	a, b := req.A, req.B
	fa, fb, err := bracketCheck(req.F, a, b)
	if err != nil {
		return res, err
	}
	if fa == 0 {
		res.Root, res.Converged = a, true
		return res, nil
	}
	if fb == 0 {
		res.Root, res.Converged = b, true
		return res, nil
	}

	prev := math.NaN()
	for i := 1; i <= req.MaxIterations; i++ {
		den := fb - fa
		if math.Abs(den) < derivEpsilon {
			return res, nil
		}
		c := b - fb*(b-a)/den
		fc, err := call(req.F, c)
		if err != nil {
			return res, err
		}
		stepErr := math.Abs(c - prev)
		if i == 1 {
			stepErr = math.Abs(b - a)
		}
		res.Trace = append(res.Trace, TraceStep{Iteration: i, Estimate: c, Residual: math.Abs(fc), StepError: stepErr})
		res.Root, res.Iterations, res.Residual = c, i, math.Abs(fc)
		if math.Abs(fc) < req.Tolerance || (i > 1 && stepErr < req.Tolerance) {
			res.Converged = true
			return res, nil
		}
		if math.IsNaN(fc) {
			return res, nil
		}
		if fa*fc < 0 {
			b, fb = c, fc
		} else {
			a, fa = c, fc
		}
		prev = c
	}
	return res, nil
}

// secant iterates x2 = x1 - f(x1)(x1-x0)/(f(x1)-f(x0)). A vanishing
// denominator or a non-finite iterate stalls the solve instead of faulting.
func secant(req Request) (Result, error) {
	res := Result{Method: Secant}
	if req.F == nil {
		return res, invalidInputf("secant requires f")
	}
	x0, x1 := req.X0, req.X1
	if !finite(x0) || !finite(x1) {
		return res, invalidInputf("initial guesses must be finite, got x0 = %g, x1 = %g", x0, x1)
	}
	if x0 == x1 {
		return res, invalidInputf("secant requires two distinct guesses, got x0 = x1 = %g", x0)
	}
	f0, err := call(req.F, x0)
	if err != nil {
		return res, err
	}
	f1, err := call(req.F, x1)
	if err != nil {
		return res, err
	}
	res.Root, res.Residual = x1, math.Abs(f1)

	for i := 1; i <= req.MaxIterations; i++ {
		den := f1 - f0
		if math.Abs(den) < derivEpsilon || math.IsNaN(den) {
			return res, nil
		}
		x2 := x1 - f1*(x1-x0)/den
		if !finite(x2) {
			return res, nil
		}
		f2, err := call(req.F, x2)
		if err != nil {
			return res, err
		}
		step := math.Abs(x2 - x1)
		res.Trace = append(res.Trace, TraceStep{Iteration: i, Estimate: x2, Residual: math.Abs(f2), StepError: step})
		res.Root, res.Iterations, res.Residual = x2, i, math.Abs(f2)
		if step < req.Tolerance || math.Abs(f2) < req.Tolerance {
			res.Converged = true
			return res, nil
		}
		if math.IsNaN(f2) {
			return res, nil
		}
		x0, f0 = x1, f1
		x1, f1 = x2, f2
	}
	return res, nil
}

// newton iterates x1 = x0 - f(x0)/f'(x0). A derivative below derivEpsilon
// at the current iterate yields a non-converged result, never a division
// fault.
func newton(req Request) (Result, error) {
	res := Result{Method: Newton}
	if req.F == nil {
		return res, invalidInputf("newton requires f")
	}
	if req.Derivative == nil {
		return res, invalidInputf("newton requires a derivative")
	}
	x := req.X0
	if !finite(x) {
		return res, invalidInputf("initial guess must be finite, got %g", x)
	}
	fx, err := call(req.F, x)
	if err != nil {
		return res, err
	}
	res.Root, res.Residual = x, math.Abs(fx)
	if math.Abs(fx) < req.Tolerance {
		res.Converged = true
		return res, nil
	}

	for i := 1; i <= req.MaxIterations; i++ {
		dfx, err := call(req.Derivative, x)
		if err != nil {
			return res, err
		}
		if math.Abs(dfx) < derivEpsilon || math.IsNaN(dfx) {
			return res, nil
		}
		next := x - fx/dfx
		if !finite(next) {
			return res, nil
		}
		fnext, err := call(req.F, next)
		if err != nil {
			return res, err
		}
		step := math.Abs(next - x)
		res.Trace = append(res.Trace, TraceStep{Iteration: i, Estimate: next, Residual: math.Abs(fnext), StepError: step})
		res.Root, res.Iterations, res.Residual = next, i, math.Abs(fnext)
		if step < req.Tolerance || math.Abs(fnext) < req.Tolerance {
			res.Converged = true
			return res, nil
		}
		if math.IsNaN(fnext) {
			return res, nil
		}
		x, fx = next, fnext
	}
	return res, nil
}

// fixedPoint iterates x = g(x). Divergence is bounded by the iteration
// budget; there is no residual in the f sense, so the successive-estimate
// distance stands in for it.
func fixedPoint(req Request) (Result, error) {
	res := Result{Method: FixedPoint}
	if req.G == nil {
		return res, invalidInputf("fixed point requires the iteration map g")
	}
	x := req.X0
	if !finite(x) {
		return res, invalidInputf("initial guess must be finite, got %g", x)
	}
	res.Root = x

	for i := 1; i <= req.MaxIterations; i++ {
		next, err := call(req.G, x)
		if err != nil {
			return res, err
		}
		step := math.Abs(next - x)
		res.Trace = append(res.Trace, TraceStep{Iteration: i, Estimate: next, Residual: step, StepError: step})
		res.Root, res.Iterations, res.Residual = next, i, step
		if step < req.Tolerance {
			res.Converged = true
			return res, nil
		}
		if !finite(next) {
			return res, nil
		}
		x = next
	}
	return res, nil
}

// modifiedSecant estimates the slope from one extra evaluation at a
// perturbed point: (f(x+h) - f(x))/h with h = delta*x, or delta itself at
// x = 0.
func modifiedSecant(req Request) (Result, error) {
	res := Result{Method: ModifiedSecant}
	if req.F == nil {
		return res, invalidInputf("modified secant requires f")
	}
	x := req.X0
	if !finite(x) {
		return res, invalidInputf("initial guess must be finite, got %g", x)
	}
	delta := req.Delta
	if delta == 0 {
		delta = DefaultDelta
	}
	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return res, invalidInputf("delta must be positive, got %g", req.Delta)
	}
	fx, err := call(req.F, x)
	if err != nil {
		return res, err
	}
	res.Root, res.Residual = x, math.Abs(fx)

	for i := 1; i <= req.MaxIterations; i++ {
		h := delta * x
		if x == 0 {
			h = delta
		}
		fph, err := call(req.F, x+h)
		if err != nil {
			return res, err
		}
		den := fph - fx
		if math.Abs(den) < derivEpsilon || math.IsNaN(den) {
			return res, nil
		}
		next := x - fx*h/den
		if !finite(next) {
			return res, nil
		}
		fnext, err := call(req.F, next)
		if err != nil {
			return res, err
		}
		step := math.Abs(next - x)
		res.Trace = append(res.Trace, TraceStep{Iteration: i, Estimate: next, Residual: math.Abs(fnext), StepError: step})
		res.Root, res.Iterations, res.Residual = next, i, math.Abs(fnext)
		if step < req.Tolerance || math.Abs(fnext) < req.Tolerance {
			res.Converged = true
			return res, nil
		}
		if math.IsNaN(fnext) {
			return res, nil
		}
		x, fx = next, fnext
	}
	return res, nil
}
