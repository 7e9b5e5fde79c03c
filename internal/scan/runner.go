package scan

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/khanhnv2901/vigilante/internal/shared/constants"
)

// Runner evaluates rules against a page context.
type Runner struct {
	Concurrency int         // Maximum rules evaluated at once; 0 or 1 runs them sequentially
	Logger      *zap.Logger // Receives rule failures; nil discards them

	// OnFinding, when set, observes each finding as it completes. With
	// Concurrency > 1 it is called from several goroutines.
	OnFinding func(Finding)
}

// Run evaluates every rule and returns exactly one finding per rule, in the
// order of rules. A rule that errors or panics yields an error finding and
// the remaining rules still run.
func (r *Runner) Run(ctx context.Context, rules []Rule, pc *PageContext) ScanResult {
	if pc == nil {
		pc = &PageContext{}
	}
	results := make(ScanResult, len(rules))

	if r.Concurrency <= 1 {
		for i, rule := range rules {
			results[i] = r.evaluate(ctx, rule, pc)
		}
		return results
	}

	// Slots are filled by index so completion order never leaks into the result.
	it := iter.Iterator[Rule]{MaxGoroutines: r.Concurrency}
	it.ForEachIdx(rules, func(i int, rule *Rule) {
		results[i] = r.evaluate(ctx, *rule, pc)
	})
	return results
}

func (r *Runner) evaluate(ctx context.Context, rule Rule, pc *PageContext) (f Finding) {
	base := Finding{Test: rule.Name(), Description: rule.Description(), URL: pc.URL}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger().Error("rule panicked", zap.String("rule", base.Test), zap.Any("panic", rec))
			f = failedFinding(base, panicError(rec))
		}
		if r.OnFinding != nil {
			r.OnFinding(f)
		}
	}()

	if err := ctx.Err(); err != nil {
		return failedFinding(base, err)
	}

	out, err := rule.Evaluate(ctx, pc)
	if err != nil {
		r.logger().Warn("rule failed", zap.String("rule", base.Test), zap.Error(err))
		return failedFinding(base, err)
	}
	if !out.Status.IsValid() {
		r.logger().Warn("rule returned invalid status", zap.String("rule", base.Test), zap.String("status", string(out.Status)))
		return failedFinding(base, fmt.Errorf("invalid status %q", out.Status))
	}
	return normalize(base, out)
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// normalize merges out into base. Severity survives only on fail and warn,
// and examples are capped.
func normalize(base Finding, out Outcome) Finding {
	f := base
	f.Status = out.Status
	f.Details = out.Details
	f.Fix = out.Fix
	f.Reference = out.Reference
	if (out.Status == StatusFail || out.Status == StatusWarn) && out.Severity.IsValid() {
		f.Severity = out.Severity
	}
	if n := len(out.Examples); n > 0 {
		if n > constants.MaxExamples {
			n = constants.MaxExamples
		}
		f.Examples = make([]string, n)
		copy(f.Examples, out.Examples[:n])
	}
	return f
}

func failedFinding(base Finding, err error) Finding {
	f := base
	f.Status = StatusError
	f.Details = "Test failed: " + err.Error()
	return f
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("%v", rec)
}
