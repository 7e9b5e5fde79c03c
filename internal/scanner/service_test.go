package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/rules"
	"github.com/khanhnv2901/vigilante/internal/scan"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

type collectFunc func(ctx context.Context, target string) (*scan.PageContext, error)

func (f collectFunc) Collect(ctx context.Context, target string) (*scan.PageContext, error) {
	return f(ctx, target)
}

func staticPage(headers map[string]string, doc *page.Snapshot) collectFunc {
	return func(_ context.Context, target string) (*scan.PageContext, error) {
		if doc.URL == "" {
			doc.URL = "https://example.com/"
		}
		return &scan.PageContext{URL: doc.URL, Headers: scan.NewHeaders(headers), Document: doc}, nil
	}
}

func constRule(name string, out scan.Outcome) scan.Rule {
	return scan.NewRule(name, name+" check", func(context.Context, *scan.PageContext) (scan.Outcome, error) {
		return out, nil
	})
}

func TestServiceScan(t *testing.T) {
	registry, err := scan.Compose([]scan.Rule{
		constRule("A", scan.Outcome{Status: scan.StatusFail, Severity: scan.Critical, Details: "bad"}),
		constRule("B", scan.Outcome{Status: scan.StatusFail, Severity: scan.High}),
		constRule("C", scan.Outcome{Status: scan.StatusPass}),
	})
	require.NoError(t, err)

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := start
	svc := NewService(staticPage(nil, &page.Snapshot{}), registry, zaptest.NewLogger(t))
	svc.NewID = func() string { return "scan-1" }
	svc.Now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}

	report, err := svc.Scan(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "scan-1", report.ID)
	assert.Equal(t, "https://example.com/", report.URL)
	assert.Equal(t, 92, report.Score)
	assert.Equal(t, scan.LowRisk, report.Band)
	assert.Equal(t, 2, report.Summary.Fail)
	assert.Equal(t, 1, report.Summary.Pass)
	assert.Equal(t, 250*time.Millisecond, report.Duration())
	require.Len(t, report.Findings, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{report.Findings[0].Test, report.Findings[1].Test, report.Findings[2].Test})
	assert.Empty(t, svc.Tracker.InFlight(), "tracker entry released after the scan")
}

func TestServiceScanWithDefaultCatalog(t *testing.T) {
	registry, err := rules.NewRegistry(rules.Options{})
	require.NoError(t, err)

	doc := &page.Snapshot{URL: "https://example.com/", CompatMode: page.StandardsMode}
	svc := NewService(staticPage(map[string]string{"strict-transport-security": "max-age=31536000"}, doc), registry, nil)

	report, err := svc.Scan(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Len(t, report.Findings, registry.Len())
	assert.Equal(t, report.Summary.Total(), registry.Len())
}

func TestServiceAcquisitionFailure(t *testing.T) {
	registry, err := scan.Compose([]scan.Rule{constRule("A", scan.Outcome{Status: scan.StatusPass})})
	require.NoError(t, err)

	failing := collectFunc(func(context.Context, string) (*scan.PageContext, error) {
		return nil, fmt.Errorf("%w: connection refused", sharedErrors.ErrPageUnavailable)
	})
	svc := NewService(failing, registry, zaptest.NewLogger(t))

	_, err = svc.Scan(context.Background(), "example.com")
	assert.ErrorIs(t, err, sharedErrors.ErrPageUnavailable)
}

func TestServiceTimeout(t *testing.T) {
	registry, err := scan.Compose([]scan.Rule{constRule("A", scan.Outcome{Status: scan.StatusPass})})
	require.NoError(t, err)

	slow := collectFunc(func(ctx context.Context, _ string) (*scan.PageContext, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	svc := NewService(slow, registry, zaptest.NewLogger(t))
	svc.Timeout = 20 * time.Millisecond

	_, err = svc.Scan(context.Background(), "example.com")
	assert.ErrorIs(t, err, sharedErrors.ErrScanTimeout)
	assert.False(t, svc.Tracker.Busy("https://example.com/"), "timed out scan releases its entry")
}

func TestServiceRejectsConcurrentScanOfSamePage(t *testing.T) {
	registry, err := scan.Compose([]scan.Rule{constRule("A", scan.Outcome{Status: scan.StatusPass})})
	require.NoError(t, err)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	blocking := collectFunc(func(ctx context.Context, target string) (*scan.PageContext, error) {
		once.Do(func() { close(entered) })
		<-unblock
		return &scan.PageContext{URL: "https://example.com/", Headers: scan.UnavailableHeaders(), Document: &page.Snapshot{}}, nil
	})
	svc := NewService(blocking, registry, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Scan(context.Background(), "https://example.com")
		done <- err
	}()
	<-entered

	_, err = svc.Scan(context.Background(), "example.com/")
	assert.ErrorIs(t, err, sharedErrors.ErrScanInProgress)

	close(unblock)
	require.NoError(t, <-done)

	// A new scan is accepted once the first one completed.
	_, err = svc.Scan(context.Background(), "example.com")
	assert.NoError(t, err)
}

func TestServiceEmptyRegistry(t *testing.T) {
	empty, err := scan.NewRegistry()
	require.NoError(t, err)
	svc := NewService(staticPage(nil, &page.Snapshot{}), empty, zaptest.NewLogger(t))
	_, err = svc.Scan(context.Background(), "example.com")
	assert.True(t, errors.Is(err, sharedErrors.ErrEmptyReport))
	assert.Equal(t, "no test results were returned", err.Error())
}

func TestServiceRequiresCollaborators(t *testing.T) {
	_, err := (&Service{}).Scan(context.Background(), "example.com")
	assert.ErrorIs(t, err, sharedErrors.ErrMissingRequired)
}
