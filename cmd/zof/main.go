// zof - Zero of Functions solver CLI
// Finds roots of user-supplied expressions via bisection, regula falsi,
// secant, Newton-Raphson, fixed point iteration and modified secant.

package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	domainrun "github.com/zerofn/zof/internal/domain/run"
	"github.com/zerofn/zof/internal/solver"
	"github.com/zerofn/zof/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

// run parses flags and dispatches: -version, -interactive, or a one-shot
// solve. Exit codes: 0 converged, 1 bad input or non-convergence, 2 flag
// misuse.
func run(args []string, in io.Reader, out io.Writer) int {
	fs := flag.NewFlagSet("zof", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	method := fs.String("method", "", "root-finding method")
	fExpr := fs.String("f", "", "target function f(x)")
	gExpr := fs.String("g", "", "iteration map g(x) for fixed_point")
	dfExpr := fs.String("df", "", "derivative f'(x) for newton")
	a := fs.Float64("a", 0, "left bracket")
	b := fs.Float64("b", 0, "right bracket")
	x0 := fs.Float64("x0", 0, "initial guess")
	x1 := fs.Float64("x1", 0, "second guess for secant")
	delta := fs.Float64("delta", 0, "modified secant perturbation (default 1e-3)")
	tol := fs.Float64("tol", 0, "convergence tolerance (default 1e-7)")
	maxiter := fs.Int("maxiter", 0, "iteration budget (default 100)")
	numeric := fs.Bool("numeric", false, "use a central-difference derivative for newton")
	trace := fs.Bool("trace", false, "print the iteration table")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	interactiveMode := fs.Bool("interactive", false, "menu-driven mode on stdin")
	showVersion := fs.Bool("version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}
	if *interactiveMode {
		return interactive(in, out)
	}
	if *fExpr == "" && *gExpr == "" {
		printUsage(out)
		return 2
	}

	input := &domainrun.SolveInput{
		Method:            *method,
		Function:          *fExpr,
		Aux:               *gExpr,
		Derivative:        *dfExpr,
		A:                 *a,
		B:                 *b,
		X0:                *x0,
		X1:                *x1,
		Delta:             *delta,
		Tolerance:         *tol,
		MaxIterations:     *maxiter,
		NumericDerivative: *numeric,
	}

	res, err := domainrun.Compute(input)
	if err != nil {
		fmt.Fprintf(out, "zof: %v\n", err) //nolint:errcheck
		return 1
	}

	if *asJSON {
		json.NewEncoder(out).Encode(res) //nolint:errcheck
	} else {
		printResult(out, res, *trace)
	}

	if !res.Converged {
		return 1
	}
	return 0
}

func printUsage(out io.Writer) {
	usage := `zof - Zero of Functions solver

Usage:
  zof -method METHOD -f EXPR [options]
  zof -method fixed_point -g EXPR -x0 GUESS
  zof -interactive
  zof -version

Methods and required inputs:
  bisection        f, a, b
  regula_falsi     f, a, b
  secant           f, x0, x1
  newton           f, x0 (df optional; -numeric forces central differences)
  fixed_point      g, x0
  modified_secant  f, x0, delta

Options:
  -tol 1e-7        convergence tolerance
  -maxiter 100     iteration budget
  -trace           print the iteration table
  -json            machine-readable result on stdout

Examples:
  zof -method newton -f "x**2 - 2" -x0 1 -tol 1e-9 -trace
  zof -method bisection -f "x**3 - x - 2" -a 1 -b 2`
	fmt.Fprintln(out, usage) //nolint:errcheck
}

// printResult writes the outcome in the classic console shape: the root
// line, the residual, the iteration count, optionally the trace table.
// A non-converged solve still reports its best estimate.
func printResult(out io.Writer, res *solver.Result, withTrace bool) {
	if !res.Converged {
		fmt.Fprintf(out, "did not converge after %d iterations\n", res.Iterations) //nolint:errcheck
	}

	label := "Estimated root"
	if res.Method == solver.FixedPoint {
		label = "Estimated fixed point"
	}
	if !res.Converged {
		label = "Best estimate"
	}

	fmt.Fprintf(out, "%s: %s\n", label, formatFloat(res.Root))    //nolint:errcheck
	fmt.Fprintf(out, "Residual: %s\n", formatFloat(res.Residual)) //nolint:errcheck
	fmt.Fprintf(out, "Iterations: %d\n", res.Iterations)          //nolint:errcheck

	if withTrace {
		printTrace(out, res.Trace)
	}
}

func printTrace(out io.Writer, trace []solver.TraceStep) {
	fmt.Fprintf(out, "\n%4s  %-24s%-24s%-24s\n", "iter", "estimate", "residual", "error") //nolint:errcheck
	for _, s := range trace {
		fmt.Fprintf(out, "%4d  %-24s%-24s%-24s\n", //nolint:errcheck
			s.Iteration, formatFloat(s.Estimate), formatFloat(s.Residual), formatFloat(s.StepError))
	}
}

// formatFloat renders the shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// interactive reproduces the classic menu loop: pick a method by number,
// answer the prompts, see the result with its trace, repeat until 0 or EOF.
func interactive(in io.Reader, out io.Writer) int {
	sc := bufio.NewScanner(in)
	fmt.Fprintln(out, "Zero of Functions (ZOF) CLI") //nolint:errcheck

	for {
		methods := solver.Methods()
		fmt.Fprintln(out, "\nSelect method:") //nolint:errcheck
		for i, m := range methods {
			fmt.Fprintf(out, "%d. %s (%s)\n", i+1, m.Name, m.Description) //nolint:errcheck
		}
		fmt.Fprintln(out, "0. Quit") //nolint:errcheck

		choice, err := promptText(sc, out, "Enter choice: ")
		if err != nil || choice == "0" || choice == "q" {
			fmt.Fprintln(out, "Exiting.") //nolint:errcheck
			return 0
		}
		idx, convErr := strconv.Atoi(choice)
		if convErr != nil || idx < 1 || idx > len(methods) {
			fmt.Fprintln(out, "Invalid choice. Try again.") //nolint:errcheck
			continue
		}

		input, err := collectInput(sc, out, methods[idx-1].Name)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "Exiting.") //nolint:errcheck
				return 0
			}
			fmt.Fprintln(out, "Error during computation:", err) //nolint:errcheck
			continue
		}

		res, err := domainrun.Compute(input)
		if err != nil {
			fmt.Fprintln(out, "Error during computation:", err) //nolint:errcheck
			continue
		}

		fmt.Fprintln(out) //nolint:errcheck
		printResult(out, res, true)
	}
}

// collectInput asks for the expression and the parameters the chosen method
// needs. Blank tolerance and budget answers fall back to the solver defaults.
func collectInput(sc *bufio.Scanner, out io.Writer, method solver.Method) (*domainrun.SolveInput, error) {
	input := &domainrun.SolveInput{Method: string(method)}

	var err error
	if method == solver.FixedPoint {
		fmt.Fprintln(out, "Fixed point iterates x = g(x): enter g, not f.") //nolint:errcheck
		input.Aux, err = promptText(sc, out, "g(x) = ")
	} else {
		input.Function, err = promptText(sc, out, "f(x) = ")
	}
	if err != nil {
		return nil, err
	}

	if input.Tolerance, err = promptFloat(sc, out, "Tolerance [1e-7]: "); err != nil {
		return nil, err
	}
	if input.MaxIterations, err = promptInt(sc, out, "Max iterations [100]: "); err != nil {
		return nil, err
	}

	switch method {
	case solver.Bisection, solver.RegulaFalsi:
		if input.A, err = promptFloat(sc, out, "Left bracket a: "); err != nil {
			return nil, err
		}
		if input.B, err = promptFloat(sc, out, "Right bracket b: "); err != nil {
			return nil, err
		}
	case solver.Secant:
		if input.X0, err = promptFloat(sc, out, "x0: "); err != nil {
			return nil, err
		}
		if input.X1, err = promptFloat(sc, out, "x1: "); err != nil {
			return nil, err
		}
	case solver.Newton:
		if input.X0, err = promptFloat(sc, out, "Initial guess x0: "); err != nil {
			return nil, err
		}
		if input.Derivative, err = promptText(sc, out, "f'(x) [blank for automatic]: "); err != nil {
			return nil, err
		}
	case solver.FixedPoint:
		if input.X0, err = promptFloat(sc, out, "Initial guess x0: "); err != nil {
			return nil, err
		}
	case solver.ModifiedSecant:
		if input.X0, err = promptFloat(sc, out, "Initial guess x0: "); err != nil {
			return nil, err
		}
		if input.Delta, err = promptFloat(sc, out, "Delta [1e-3]: "); err != nil {
			return nil, err
		}
	}

	return input, nil
}

// promptText writes the prompt and reads one trimmed line. Returns io.EOF
// when stdin is exhausted.
func promptText(sc *bufio.Scanner, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt) //nolint:errcheck
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(sc.Text()), nil
}

// promptFloat reads a float answer; a blank line means "use the default".
func promptFloat(sc *bufio.Scanner, out io.Writer, prompt string) (float64, error) {
	s, err := promptText(sc, out, prompt)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

// promptInt reads an integer answer; a blank line means "use the default".
func promptInt(sc *bufio.Scanner, out io.Writer, prompt string) (int, error) {
	s, err := promptText(sc, out, prompt)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return v, nil
}
