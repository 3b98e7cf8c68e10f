package main

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/zerofn/zof/internal/solver"
)

func TestRun_Version_PrintsVersion(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"--version"}, strings.NewReader(""), &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "zof version") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestRun_InvalidFlag_Returns2(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"--unknown-flag"}, strings.NewReader(""), &out)

	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRun_NoFunction_PrintsUsage(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"-method", "newton"}, strings.NewReader(""), &out)

	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Fatalf("expected usage output, got %q", out.String())
	}
}

func TestRun_Newton_Converges(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"-method", "newton", "-f", "x**2 - 2", "-x0", "1"}, strings.NewReader(""), &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (output %q)", code, out.String())
	}
	if !strings.Contains(out.String(), "Estimated root: 1.41421356") {
		t.Fatalf("expected the root line, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Iterations:") {
		t.Fatalf("expected the iterations line, got %q", out.String())
	}
}

func TestRun_Trace_PrintsIterationTable(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"-method", "bisection", "-f", "x**3 - x - 2", "-a", "1", "-b", "2", "-trace"},
		strings.NewReader(""), &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (output %q)", code, out.String())
	}
	for _, want := range []string{"iter", "estimate", "residual", "error", "1.5"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("trace output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_JSON_EncodesResult(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"-method", "newton", "-f", "x**2 - 2", "-x0", "1", "-tol", "1e-9", "-json"},
		strings.NewReader(""), &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (output %q)", code, out.String())
	}

	var res solver.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out.String())
	}
	if res.Method != solver.Newton {
		t.Errorf("Method = %q; want %q", res.Method, solver.Newton)
	}
	if !res.Converged {
		t.Error("Converged = false; want true")
	}
	if math.Abs(res.Root-math.Sqrt2) > 1e-9 {
		t.Errorf("Root = %v; want %v within 1e-9", res.Root, math.Sqrt2)
	}
	if len(res.Trace) != res.Iterations {
		t.Errorf("len(Trace) = %d; want %d", len(res.Trace), res.Iterations)
	}
}

func TestRun_NonConvergence_Returns1(t *testing.T) {
	t.Parallel()

	// x -> 2x doubles away from the fixed point at 0, so the budget runs out.
	var out bytes.Buffer
	code := run([]string{"-method", "fixed_point", "-g", "2 * x", "-x0", "1", "-maxiter", "10"},
		strings.NewReader(""), &out)

	if code != 1 {
		t.Fatalf("expected exit code 1, got %d (output %q)", code, out.String())
	}
	if !strings.Contains(out.String(), "did not converge after 10 iterations") {
		t.Fatalf("expected the non-convergence note, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Best estimate:") {
		t.Fatalf("expected the best estimate line, got %q", out.String())
	}
}

func TestRun_ParseError_Returns1(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"-method", "newton", "-f", "x +", "-x0", "1"}, strings.NewReader(""), &out)

	if code != 1 {
		t.Fatalf("expected exit code 1, got %d (output %q)", code, out.String())
	}
	if !strings.Contains(out.String(), "parse error") {
		t.Fatalf("expected a parse error message, got %q", out.String())
	}
}

// ===== TESTS: interactive mode =====

func TestInteractive_QuitImmediately(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"-interactive"}, strings.NewReader("0\n"), &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "Select method:") {
		t.Fatalf("expected the method menu, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Exiting.") {
		t.Fatalf("expected the exit line, got %q", out.String())
	}
}

func TestInteractive_EOFQuits(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"-interactive"}, strings.NewReader(""), &out)

	if code != 0 {
		t.Fatalf("expected exit code 0 on EOF, got %d", code)
	}
	if !strings.Contains(out.String(), "Exiting.") {
		t.Fatalf("expected the exit line, got %q", out.String())
	}
}

func TestInteractive_NewtonSolve(t *testing.T) {
	t.Parallel()

	// Choice 4 = newton; f(x); blank tolerance and budget; x0 = 1; blank
	// derivative (automatic); then quit.
	stdin := "4\nx**2 - 2\n\n\n1\n\n0\n"
	var out bytes.Buffer
	code := run([]string{"-interactive"}, strings.NewReader(stdin), &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (output %q)", code, out.String())
	}
	if !strings.Contains(out.String(), "Estimated root: 1.41421356") {
		t.Fatalf("expected the root line, got %q", out.String())
	}
	if !strings.Contains(out.String(), "iter") {
		t.Fatalf("expected the trace table, got %q", out.String())
	}
}

func TestInteractive_InvalidChoice_Reprompts(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"-interactive"}, strings.NewReader("9\n0\n"), &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "Invalid choice. Try again.") {
		t.Fatalf("expected the invalid-choice line, got %q", out.String())
	}
}

func TestInteractive_ComputeError_LoopContinues(t *testing.T) {
	t.Parallel()

	// Bisection on x**2 + 1 over [1, 2]: no sign change, so the case fails
	// and the menu comes back.
	stdin := "1\nx**2 + 1\n\n\n1\n2\n0\n"
	var out bytes.Buffer
	code := run([]string{"-interactive"}, strings.NewReader(stdin), &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (output %q)", code, out.String())
	}
	if !strings.Contains(out.String(), "Error during computation:") {
		t.Fatalf("expected the error line, got %q", out.String())
	}
	if !strings.Contains(out.String(), "do not bracket") {
		t.Fatalf("expected the bracket message, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Exiting.") {
		t.Fatalf("expected a clean quit after the failed case, got %q", out.String())
	}
}

func TestInteractive_FixedPointPrompt(t *testing.T) {
	t.Parallel()

	// Choice 5 = fixed_point: g(x) prompt instead of f(x).
	// x -> cos(x) contracts to ~0.739 from anywhere.
	stdin := "5\ncos(x)\n\n\n0.5\n0\n"
	var out bytes.Buffer
	code := run([]string{"-interactive"}, strings.NewReader(stdin), &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (output %q)", code, out.String())
	}
	if !strings.Contains(out.String(), "g(x) = ") {
		t.Fatalf("expected the g(x) prompt, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Estimated fixed point: 0.73908") {
		t.Fatalf("expected the fixed point line, got %q", out.String())
	}
}
