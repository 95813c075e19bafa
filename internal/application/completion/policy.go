package completion

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"
)

// DefaultRule reaches the threshold once every required influencer has marked completion.
const DefaultRule = "completed >= required"

// Policy decides whether a campaign's completion threshold is reached.
type Policy struct {
	rule string
	expr *govaluate.EvaluableExpression
}

// NewPolicy compiles a rule over the variables `completed` and `required`.
// An empty rule selects DefaultRule.
func NewPolicy(rule string) (*Policy, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		rule = DefaultRule
	}
	expr, err := govaluate.NewEvaluableExpression(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid completion rule %q: %w", rule, err)
	}
	for _, v := range expr.Vars() {
		if v != "completed" && v != "required" {
			return nil, fmt.Errorf("invalid completion rule %q: unknown variable %q", rule, v)
		}
	}
	p := &Policy{rule: rule, expr: expr}
	if _, err := p.Reached(0, 1); err != nil {
		return nil, fmt.Errorf("invalid completion rule %q: %w", rule, err)
	}
	return p, nil
}

func (p *Policy) Rule() string {
	return p.rule
}

// Reached evaluates the rule for the given counts.
func (p *Policy) Reached(completed, required int) (bool, error) {
	result, err := p.expr.Evaluate(map[string]interface{}{
		"completed": float64(completed),
		"required":  float64(required),
	})
	if err != nil {
		return false, err
	}
	v, ok := result.(bool)
	if !ok {
		return false, errors.New("completion rule did not evaluate to boolean")
	}
	return v, nil
}
