package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhnv2901/vigilante/internal/page"
)

func TestHeaderCaptureMainDocument(t *testing.T) {
	capture := newHeaderCapture()
	capture.observe(&network.EventResponseReceived{
		Type:     network.ResourceTypeScript,
		Response: &network.Response{Headers: network.Headers{"X-Script": "1"}},
	})
	capture.observe(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Headers: network.Headers{"Content-Security-Policy": "default-src 'self'"}},
	})
	capture.observe(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Headers: network.Headers{"X-Frame": "iframe"}},
	})

	h := capture.wait(context.Background(), time.Second)
	require.NotNil(t, h)
	assert.False(t, h.Unavailable)
	assert.Equal(t, "default-src 'self'", h.Get("content-security-policy"))
	assert.False(t, h.Has("x-script"))
	assert.False(t, h.Has("x-frame"))
}

func TestHeaderCaptureTimesOut(t *testing.T) {
	start := time.Now()
	h := newHeaderCapture().wait(context.Background(), 20*time.Millisecond)
	assert.True(t, h.Unavailable)
	assert.Less(t, time.Since(start), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h = newHeaderCapture().wait(ctx, time.Minute)
	assert.True(t, h.Unavailable)
}

func TestLiveStateApply(t *testing.T) {
	doc := &page.Snapshot{
		CompatMode: page.StandardsMode,
		Libraries:  map[string]string{"jquery": "1.12.4", "react": "16.4.0"},
		Globals:    []string{"fpjs"},
	}
	live := liveState{
		CompatMode:   page.QuirksMode,
		Elements:     []page.Element{{Tag: "img", Width: 1, Height: 1, Measured: true}},
		LocalStorage: page.Storage{Captured: true, Keys: []string{"token"}},
		Libraries:    map[string]string{"jquery": "3.6.0", "react": ""},
		Globals:      []string{"fpjs", "ClientJS"},
	}
	live.apply(doc)

	assert.Equal(t, page.QuirksMode, doc.CompatMode)
	assert.Equal(t, "3.6.0", doc.Libraries["jquery"])
	assert.Equal(t, "16.4.0", doc.Libraries["react"])
	assert.Equal(t, []string{"fpjs", "ClientJS"}, doc.Globals)
	assert.True(t, doc.LocalStorage.Captured)
	assert.Len(t, doc.Elements, 1)
}

func TestBrowserCollectorIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping headless Chrome test in short mode")
	}
	if _, err := exec.LookPath("google-chrome"); err != nil {
		if _, err := exec.LookPath("chromium"); err != nil {
			t.Skip("Chrome not installed")
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		_, _ = w.Write([]byte(`<!DOCTYPE html><html><body>
<script>localStorage.setItem('authToken', 'x');</script>
<img src="/pixel.gif" width="1" height="1"></body></html>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pc, err := (&BrowserCollector{HeadersTimeout: 2 * time.Second}).Collect(ctx, srv.URL)
	require.NoError(t, err)
	require.NotNil(t, pc.Headers)
	assert.Equal(t, "DENY", pc.Headers.Get("x-frame-options"))
	assert.Equal(t, page.StandardsMode, pc.Document.CompatMode)
	assert.Contains(t, pc.Document.LocalStorage.Keys, "authToken")
}
