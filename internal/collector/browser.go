package collector

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/scan"
	"github.com/khanhnv2901/vigilante/internal/shared/constants"
)

//go:embed snapshot.js
var snapshotScript string

// BrowserCollector renders the page in headless Chrome.
type BrowserCollector struct {
	// HeadersTimeout bounds the wait for the main document response once the
	// page has loaded. On expiry headers are reported as unavailable.
	HeadersTimeout time.Duration
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
	Logger   *zap.Logger
}

// liveState is what the snapshot script reports about the rendered page.
type liveState struct {
	URL            string            `json:"url"`
	CompatMode     string            `json:"compatMode"`
	Elements       []page.Element    `json:"elements"`
	Resources      []page.Resource   `json:"resources"`
	LocalStorage   page.Storage      `json:"localStorage"`
	SessionStorage page.Storage      `json:"sessionStorage"`
	Libraries      map[string]string `json:"libraries"`
	Globals        []string          `json:"globals"`
}

// apply overlays live facts on a snapshot parsed from the rendered markup.
func (l *liveState) apply(doc *page.Snapshot) {
	if l.CompatMode != "" {
		doc.CompatMode = l.CompatMode
	}
	doc.Elements = l.Elements
	doc.Resources = l.Resources
	doc.LocalStorage = l.LocalStorage
	doc.SessionStorage = l.SessionStorage
	if doc.Libraries == nil {
		doc.Libraries = make(map[string]string)
	}
	for name, version := range l.Libraries {
		if version != "" {
			doc.Libraries[name] = version
		}
	}
	for _, g := range l.Globals {
		if !doc.HasGlobal(g) {
			doc.Globals = append(doc.Globals, g)
		}
	}
}

// headerCapture records the first main document response.
type headerCapture struct {
	once sync.Once
	ch   chan map[string]string
}

func newHeaderCapture() *headerCapture {
	return &headerCapture{ch: make(chan map[string]string, 1)}
}

func (h *headerCapture) observe(ev any) {
	e, ok := ev.(*network.EventResponseReceived)
	if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
		return
	}
	h.once.Do(func() {
		values := make(map[string]string, len(e.Response.Headers))
		for k, v := range e.Response.Headers {
			values[strings.ToLower(k)] = fmt.Sprint(v)
		}
		h.ch <- values
	})
}

// wait returns the captured headers, or unavailable headers once the timeout
// or the context expires.
func (h *headerCapture) wait(ctx context.Context, timeout time.Duration) *scan.Headers {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case values := <-h.ch:
		return scan.NewHeaders(values)
	case <-timer.C:
		return scan.UnavailableHeaders()
	case <-ctx.Done():
		return scan.UnavailableHeaders()
	}
}

// Collect navigates to the target and snapshots the rendered page.
func (b *BrowserCollector) Collect(ctx context.Context, target string) (*scan.PageContext, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.UserAgent(constants.UserAgent),
	)
	if b.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	// Starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, unavailable(t.URL, fmt.Errorf("launch browser: %w", err))
	}

	capture := newHeaderCapture()
	chromedp.ListenTarget(browserCtx, capture.observe)

	networkOK := true
	if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
		networkOK = false
		logger.Warn("network events unavailable, header rules will error", zap.Error(err))
	}

	var html string
	var live liveState
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(t.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(snapshotScript, &live),
	)
	if err != nil {
		return nil, unavailable(t.URL, fmt.Errorf("navigate: %w", err))
	}

	finalURL := firstNonEmptyString(live.URL, t.URL)
	doc, err := page.Parse(finalURL, strings.NewReader(html))
	if err != nil {
		return nil, unavailable(finalURL, fmt.Errorf("parse document: %w", err))
	}
	live.apply(doc)

	err = chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		doc.Cookies = make([]page.Cookie, 0, len(cookies))
		for _, c := range cookies {
			doc.Cookies = append(doc.Cookies, page.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
				SameSite: c.SameSite.String(),
			})
		}
		return nil
	}))
	if err != nil {
		logger.Warn("read cookies", zap.String("url", finalURL), zap.Error(err))
	}

	var headers *scan.Headers
	if networkOK {
		timeout := b.HeadersTimeout
		if timeout <= 0 {
			timeout = constants.DefaultHeadersTimeout
		}
		headers = capture.wait(ctx, timeout)
		if headers.Unavailable {
			logger.Debug("main document headers not observed", zap.String("url", finalURL), zap.Duration("timeout", timeout))
		}
	}

	return &scan.PageContext{URL: finalURL, Headers: headers, Document: doc}, nil
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
