package collector

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/scan"
	"github.com/khanhnv2901/vigilante/internal/shared/constants"
)

// HTTPCollector fetches a page over HTTP and parses the static document.
type HTTPCollector struct {
	Client       *http.Client
	MaxBodyBytes int64
	Logger       *zap.Logger
}

// NewHTTPCollector returns a collector with a TLS 1.2+ client that follows
// redirects. A zero timeout uses the default scan timeout.
func NewHTTPCollector(timeout time.Duration) *HTTPCollector {
	if timeout <= 0 {
		timeout = constants.DefaultScanTimeout
	}
	return &HTTPCollector{
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		MaxBodyBytes: constants.MaxBodyBytes,
		Logger:       zap.NewNop(),
	}
}

// Collect performs a GET on the target and returns its headers and snapshot.
func (c *HTTPCollector) Collect(ctx context.Context, target string) (*scan.PageContext, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, unavailable(t.URL, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", constants.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	client := c.Client
	if client == nil {
		client = NewHTTPCollector(0).Client
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, unavailable(t.URL, err)
	}
	defer resp.Body.Close()

	finalURL := t.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = constants.MaxBodyBytes
	}
	doc, err := page.Parse(finalURL, io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, unavailable(finalURL, fmt.Errorf("parse document: %w", err))
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	doc.Cookies = responseCookies(resp)

	c.logger().Debug("page fetched",
		zap.String("url", finalURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("headers", len(resp.Header)),
		zap.Int("cookies", len(doc.Cookies)))

	return &scan.PageContext{
		URL:      finalURL,
		Headers:  scan.NewHeaders(flattenHeaders(resp.Header)),
		Document: doc,
	}, nil
}

func (c *HTTPCollector) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// flattenHeaders joins repeated fields with ", ". Set-Cookie is kept out of the
// header map; cookies are carried on the snapshot.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		key := strings.ToLower(name)
		if key == "set-cookie" {
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}

func responseCookies(resp *http.Response) []page.Cookie {
	raw := resp.Cookies()
	cookies := make([]page.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, page.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
			SameSite: sameSiteName(c.SameSite),
		})
	}
	return cookies
}

func sameSiteName(mode http.SameSite) string {
	switch mode {
	case http.SameSiteLaxMode:
		return "Lax"
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	default:
		return ""
	}
}
