package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

const loginPage = `<!DOCTYPE html><html><head>
<script src="/static/jquery-1.8.3.min.js"></script>
</head><body>
<form action="/login" method="post"><input type="password" name="pw"></form>
</body></html>`

func TestHTTPCollectorCollect(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.UserAgent()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Add("Vary", "Accept-Encoding")
		w.Header().Add("Vary", "Origin")
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", HttpOnly: true, SameSite: http.SameSiteLaxMode})
		_, _ = w.Write([]byte(loginPage))
	}))
	defer srv.Close()

	c := NewHTTPCollector(0)
	pc, err := c.Collect(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, userAgent, "vigilante")
	assert.Equal(t, srv.URL+"/", pc.URL)
	require.NotNil(t, pc.Headers)
	assert.False(t, pc.Headers.Unavailable)
	assert.Equal(t, "DENY", pc.Headers.Get("x-frame-options"))
	assert.Equal(t, "Accept-Encoding, Origin", pc.Headers.Get("vary"))
	assert.False(t, pc.Headers.Has("set-cookie"))

	require.NotNil(t, pc.Document)
	require.Len(t, pc.Document.Cookies, 1)
	assert.Equal(t, "sid", pc.Document.Cookies[0].Name)
	assert.True(t, pc.Document.Cookies[0].HTTPOnly)
	assert.False(t, pc.Document.Cookies[0].Secure)
	assert.Equal(t, "Lax", pc.Document.Cookies[0].SameSite)

	require.Len(t, pc.Document.PasswordInputs, 1)
	assert.Equal(t, srv.URL+"/login", pc.Document.PasswordInputs[0].FormAction)
	assert.False(t, pc.Document.LocalStorage.Captured)
}

func TestHTTPCollectorFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/home", http.StatusFound)
	})
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<!DOCTYPE html><p>home</p>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	pc, err := NewHTTPCollector(0).Collect(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/home", pc.URL)
	assert.Equal(t, srv.URL+"/home", pc.Document.URL)
}

func TestHTTPCollectorEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	pc, err := NewHTTPCollector(0).Collect(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotNil(t, pc.Document)
	assert.Empty(t, pc.Document.Scripts)
	assert.False(t, pc.Headers.Unavailable)
}

func TestHTTPCollectorUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPCollector(0).Collect(context.Background(), url)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sharedErrors.ErrPageUnavailable))
}

func TestHTTPCollectorInvalidTarget(t *testing.T) {
	_, err := NewHTTPCollector(0).Collect(context.Background(), "")
	assert.ErrorIs(t, err, sharedErrors.ErrEmptyTarget)
}

func TestNewCollector(t *testing.T) {
	c, err := New(Options{Mode: ModeHTTP})
	require.NoError(t, err)
	assert.IsType(t, &HTTPCollector{}, c)

	c, err = New(Options{Mode: ModeBrowser})
	require.NoError(t, err)
	assert.IsType(t, &BrowserCollector{}, c)

	_, err = New(Options{Mode: ModeFile})
	assert.ErrorIs(t, err, sharedErrors.ErrMissingRequired)

	_, err = New(Options{Mode: "ssh"})
	assert.ErrorIs(t, err, sharedErrors.ErrInvalidScanMode)
}
