package scanner

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

// BatchResult is the outcome of one target of a batch.
type BatchResult struct {
	Target   string
	Report   *scan.Report
	Err      error
	Duration time.Duration
}

// Batch scans many targets with bounded concurrency and a global rate limit.
type Batch struct {
	Scanner     Scanner
	Concurrency int // Maximum number of concurrent scans
	RateLimit   int // Scans started per second; 0 disables the limit

	// OnResult observes each result as it completes.
	OnResult func(BatchResult)
}

// Run scans every target. Results are placed by input position.
func (b *Batch) Run(ctx context.Context, targets []string) []BatchResult {
	results := make([]BatchResult, len(targets))

	concurrency := b.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if b.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(b.RateLimit), b.RateLimit)
	}

	p := pool.New().WithMaxGoroutines(concurrency)
	for i, target := range targets {
		p.Go(func() {
			start := time.Now()
			res := BatchResult{Target: target}
			if err := limiter.Wait(ctx); err != nil {
				res.Err = err
			} else {
				res.Report, res.Err = b.Scanner.Scan(ctx, target)
			}
			res.Duration = time.Since(start)
			results[i] = res
			if b.OnResult != nil {
				b.OnResult(res)
			}
		})
	}
	p.Wait()
	return results
}
