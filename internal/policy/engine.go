// Package policy selects advisory audience guidance with an OPA rego policy.
package policy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Guidance tells the advisory generator how to address a recipient.
type Guidance struct {
	Audience string `json:"audience"`
	Tone     string `json:"tone"`
	Focus    string `json:"focus"`
	MaxWords int    `json:"max_words"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.advisory.audience"),
		rego.Module("advisory.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Guidance evaluates the policy for a recipient user type.
func (e *Engine) Guidance(ctx context.Context, userType string) (*Guidance, error) {
	input := map[string]any{"user_type": userType}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, fmt.Errorf("policy produced no audience for %q", userType)
	}

	// Round-trip through JSON to decode the rego object into Guidance.
	raw, err := json.Marshal(results[0].Expressions[0].Value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy result: %w", err)
	}
	var g Guidance
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("unexpected policy result: %w", err)
	}
	return &g, nil
}

// DefaultPolicy is the default audience policy.
const DefaultPolicy = `
package advisory

import rego.v1

default audience := {
	"audience": "person",
	"tone": "warm and direct, addressed to an individual",
	"focus": "personal health protection, outdoor activity and vulnerable household members",
	"max_words": 120,
}

audience := {
	"audience": "company",
	"tone": "professional, addressed to an organisation",
	"focus": "protecting employees, adjusting operations and reducing emissions",
	"max_words": 160,
} if {
	input.user_type == "company"
}

audience := {
	"audience": "government",
	"tone": "formal, addressed to a public authority",
	"focus": "public health measures, communication to citizens and coordination of response",
	"max_words": 180,
} if {
	input.user_type == "government"
}
`
