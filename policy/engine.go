// Package policy evaluates tool invocations against an OPA policy
// before they reach the ledger or the backend.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a policy engine from the given rego content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.tool_policy.decision"),
		rego.Module("tool_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks a tool invocation. Input carries tool_name, args and
// optionally user_id. The decision is "allow" or "block".
func (e *Engine) Evaluate(ctx context.Context, input any) (decision string, err error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "allow", nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "allow", nil
}

// DefaultPolicy allows everything except transfers above the single
// transaction limit. Side-effecting ledger tools route through this
// before execution.
const DefaultPolicy = `
package tool_policy

default decision := "allow"

decision := "block" if {
	input.tool_name == "transferTokens"
	input.args.amount > 1000000
}
`
