// zofmcp - MCP stdio server exposing the root-finding toolkit to agent
// clients. Stateless: tools wrap the solver and the expression engine
// directly, no database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	domainrun "github.com/zerofn/zof/internal/domain/run"
	"github.com/zerofn/zof/internal/expr"
	"github.com/zerofn/zof/internal/solver"
	"github.com/zerofn/zof/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := newServer()
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("zofmcp: %v", err)
	}
}

// newServer builds the MCP server with the three solver tools registered.
func newServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "zof", Version: version.Version}, nil)

	server.AddTool(&mcp.Tool{
		Name:        "solve_root",
		Description: "Find a root of f(x) (or a fixed point of g) with the chosen numerical method.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"method":             map[string]any{"type": "string", "description": "bisection, regula_falsi, secant, newton, fixed_point or modified_secant"},
				"function":           map[string]any{"type": "string", "description": "target function f(x)"},
				"g":                  map[string]any{"type": "string", "description": "iteration map g(x) for fixed_point"},
				"derivative":         map[string]any{"type": "string", "description": "f'(x) for newton; omitted means symbolic"},
				"a":                  map[string]any{"type": "number", "description": "left bracket"},
				"b":                  map[string]any{"type": "number", "description": "right bracket"},
				"x0":                 map[string]any{"type": "number", "description": "initial guess"},
				"x1":                 map[string]any{"type": "number", "description": "second guess for secant"},
				"delta":              map[string]any{"type": "number", "description": "modified secant perturbation"},
				"tolerance":          map[string]any{"type": "number", "description": "convergence tolerance, default 1e-7"},
				"max_iterations":     map[string]any{"type": "integer", "description": "iteration budget, default 100"},
				"numeric_derivative": map[string]any{"type": "boolean", "description": "force a central-difference derivative for newton"},
			},
			"required": []any{"method"},
		},
	}, handleSolveRoot)

	server.AddTool(&mcp.Tool{
		Name:        "analyze_function",
		Description: "Normalize an expression and compute its symbolic derivative.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{"type": "string", "description": "expression in the variable x"},
			},
			"required": []any{"expression"},
		},
	}, handleAnalyzeFunction)

	server.AddTool(&mcp.Tool{
		Name:        "list_methods",
		Description: "List the supported root-finding methods and their required inputs.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	}, handleListMethods)

	return server
}

// solveArgs mirrors the solve input; the fixed-point map travels as "g".
type solveArgs struct {
	Method            string  `json:"method"`
	Function          string  `json:"function"`
	G                 string  `json:"g"`
	Derivative        string  `json:"derivative"`
	A                 float64 `json:"a"`
	B                 float64 `json:"b"`
	X0                float64 `json:"x0"`
	X1                float64 `json:"x1"`
	Delta             float64 `json:"delta"`
	Tolerance         float64 `json:"tolerance"`
	MaxIterations     int     `json:"max_iterations"`
	NumericDerivative bool    `json:"numeric_derivative"`
}

func handleSolveRoot(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args solveArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	res, err := domainrun.Compute(&domainrun.SolveInput{
		Method:            args.Method,
		Function:          args.Function,
		Aux:               args.G,
		Derivative:        args.Derivative,
		A:                 args.A,
		B:                 args.B,
		X0:                args.X0,
		X1:                args.X1,
		Delta:             args.Delta,
		Tolerance:         args.Tolerance,
		MaxIterations:     args.MaxIterations,
		NumericDerivative: args.NumericDerivative,
	})
	if err != nil {
		return errorResult(err.Error()), nil
	}
	// Non-convergence is a regular result with converged: false, never a
	// tool error.
	return jsonResult(res)
}

type analyzeArgs struct {
	Expression string `json:"expression"`
}

func handleAnalyzeFunction(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args analyzeArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	f, err := expr.Parse(args.Expression)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	return jsonResult(map[string]string{
		"expression": args.Expression,
		"normalized": f.String(),
		"derivative": f.Deriv().String(),
	})
}

func handleListMethods(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(solver.Methods())
}

// jsonResult renders v as one compact JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil
}

// errorResult reports a user-fixable fault as a tool error rather than a
// protocol error, so agent clients see the message and can retry.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
