// zofsuite - numerical regression runner.
// Reads YAML suite files, runs each case through the solver and checks the
// expected root, convergence flag or error message.
package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	domainrun "github.com/zerofn/zof/internal/domain/run"
	"github.com/zerofn/zof/internal/solver"
)

// Suite is one YAML suite file.
type Suite struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// Case describes one solve and its expectation. The solve fields mirror
// the API's solve input.
type Case struct {
	Name              string  `yaml:"name"`
	Method            string  `yaml:"method"`
	Function          string  `yaml:"function"`
	G                 string  `yaml:"g"`
	Derivative        string  `yaml:"derivative"`
	A                 float64 `yaml:"a"`
	B                 float64 `yaml:"b"`
	X0                float64 `yaml:"x0"`
	X1                float64 `yaml:"x1"`
	Delta             float64 `yaml:"delta"`
	Tolerance         float64 `yaml:"tolerance"`
	MaxIterations     int     `yaml:"max_iterations"`
	NumericDerivative bool    `yaml:"numeric_derivative"`
	Expect            Expect  `yaml:"expect"`
}

// Expect is a case's pass condition. Root and Converged are pointers so an
// omitted field checks nothing; a zero root is a legitimate expectation.
// A non-empty Error instead asserts that the solve fails with a message
// containing the substring.
type Expect struct {
	Root      *float64 `yaml:"root"`
	Within    float64  `yaml:"within"`
	Converged *bool    `yaml:"converged"`
	Error     string   `yaml:"error"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("zofsuite", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	verbose := fs.Bool("v", false, "print ok lines for passing cases")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(out, "usage: zofsuite [-v] DIR|FILE ...") //nolint:errcheck
		return 2
	}

	files, err := collectFiles(fs.Args())
	if err != nil {
		fmt.Fprintf(out, "zofsuite: %v\n", err) //nolint:errcheck
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "zofsuite: no suite files found") //nolint:errcheck
		return 1
	}

	cases, failures := 0, 0
	for _, path := range files {
		suite, err := loadSuite(path)
		if err != nil {
			fmt.Fprintf(out, "zofsuite: %v\n", err) //nolint:errcheck
			failures++
			continue
		}

		label := suite.Name
		if label == "" {
			label = filepath.Base(path)
		}

		for i, c := range suite.Cases {
			cases++
			name := c.Name
			if name == "" {
				name = fmt.Sprintf("case %d", i+1)
			}
			if err := runCase(c); err != nil {
				failures++
				fmt.Fprintf(out, "FAIL %s/%s: %v\n", label, name, err) //nolint:errcheck
				continue
			}
			if *verbose {
				fmt.Fprintf(out, "ok   %s/%s\n", label, name) //nolint:errcheck
			}
		}
	}

	fmt.Fprintf(out, "%d cases, %d failures\n", cases, failures) //nolint:errcheck
	if failures > 0 {
		return 1
	}
	return 0
}

// collectFiles expands arguments into suite files: directories are walked
// for *.yaml/*.yml, plain files are taken as given.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func loadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

// runCase solves one case and checks its expectation. A nil return means
// the case passed; the error describes the mismatch otherwise.
func runCase(c Case) error {
	res, err := domainrun.Compute(toInput(c))

	if c.Expect.Error != "" {
		if err == nil {
			return fmt.Errorf("expected error containing %q, got a result (root %g)", c.Expect.Error, res.Root)
		}
		if !strings.Contains(err.Error(), c.Expect.Error) {
			return fmt.Errorf("error %q does not contain %q", err.Error(), c.Expect.Error)
		}
		return nil
	}

	if err != nil {
		return fmt.Errorf("solve failed: %w", err)
	}
	if c.Expect.Converged != nil && res.Converged != *c.Expect.Converged {
		return fmt.Errorf("converged = %v; want %v", res.Converged, *c.Expect.Converged)
	}
	if c.Expect.Root != nil {
		within := c.Expect.Within
		if within == 0 {
			within = c.Tolerance
		}
		if within == 0 {
			within = solver.DefaultTolerance
		}
		if diff := math.Abs(res.Root - *c.Expect.Root); diff > within {
			return fmt.Errorf("root = %.12g; want %.12g within %g (off by %.3g)",
				res.Root, *c.Expect.Root, within, diff)
		}
	}
	return nil
}

func toInput(c Case) *domainrun.SolveInput {
	return &domainrun.SolveInput{
		Method:            c.Method,
		Function:          c.Function,
		Aux:               c.G,
		Derivative:        c.Derivative,
		A:                 c.A,
		B:                 c.B,
		X0:                c.X0,
		X1:                c.X1,
		Delta:             c.Delta,
		Tolerance:         c.Tolerance,
		MaxIterations:     c.MaxIterations,
		NumericDerivative: c.NumericDerivative,
	}
}
