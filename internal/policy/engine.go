// Package policy gates agent capability invocations through OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Decision values returned by the capability policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Engine is the OPA policy engine for capability calls.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a policy engine with the given rego policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.capability_policy.decision"),
		rego.Module("capability_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the capability policy. Input keys: tool_name, agent_id,
// args. Returns the decision (allow or block) and an optional reason.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy is expected to define a default decision.
		return DecisionAllow, "default", nil
	}

	val := results[0].Expressions[0].Value
	if s, ok := val.(string); ok {
		return s, "", nil
	}
	if obj, ok := val.(map[string]interface{}); ok {
		decision, _ := obj["decision"].(string)
		reason, _ := obj["reason"].(string)
		if decision != "" {
			return decision, reason, nil
		}
	}

	return DecisionAllow, "unexpected return type", nil
}

// DefaultPolicy restricts each search capability to the agent role it
// belongs to. Everything else is allowed.
const DefaultPolicy = `
package capability_policy

default decision := "allow"

decision := "block" if {
	input.tool_name == "evidence.search"
	input.agent_id != "retriever"
}

decision := "block" if {
	input.tool_name == "validity.search"
	input.agent_id != "searcher"
}
`
