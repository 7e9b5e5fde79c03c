package scan

import "context"

// Rule is one named inspection of a page.
//
// Evaluate must not mutate the PageContext. A returned error, or a panic,
// becomes an error finding; it never aborts the scan.
type Rule interface {
	Name() string
	Description() string
	Evaluate(ctx context.Context, pc *PageContext) (Outcome, error)
}

// EvaluateFunc is the body of a rule built with NewRule.
type EvaluateFunc func(ctx context.Context, pc *PageContext) (Outcome, error)

// NewRule returns a Rule backed by fn.
func NewRule(name, description string, fn EvaluateFunc) Rule {
	return &funcRule{name: name, description: description, fn: fn}
}

type funcRule struct {
	name        string
	description string
	fn          EvaluateFunc
}

func (r *funcRule) Name() string        { return r.name }
func (r *funcRule) Description() string { return r.description }

func (r *funcRule) Evaluate(ctx context.Context, pc *PageContext) (Outcome, error) {
	return r.fn(ctx, pc)
}
