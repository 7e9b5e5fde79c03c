package page

import (
	"net/url"
	"strings"
)

// Compatibility modes reported by document.compatMode.
const (
	StandardsMode = "CSS1Compat"
	QuirksMode    = "BackCompat"
)

// Snapshot is the read-only DOM, script and storage state of a page at scan time.
// It is produced either by Parse over static HTML or by the browser collector,
// which fills the same fields from a live document.
type Snapshot struct {
	URL            string            `json:"url"`
	CompatMode     string            `json:"compatMode"`
	Scripts        []Script          `json:"scripts"`
	Stylesheets    []Stylesheet      `json:"stylesheets"`
	Forms          []Form            `json:"forms"`
	PasswordInputs []PasswordInput   `json:"passwordInputs"`
	Elements       []Element         `json:"elements"`
	Metas          []Meta            `json:"metas"`
	Cookies        []Cookie          `json:"cookies"`
	LocalStorage   Storage           `json:"localStorage"`
	SessionStorage Storage           `json:"sessionStorage"`
	Resources      []Resource        `json:"resources"`
	Libraries      map[string]string `json:"libraries"`
	Globals        []string          `json:"globals"`
}

// Script is a <script> element. Src is absolute; Text is the inline body.
type Script struct {
	Src       string `json:"src"`
	Text      string `json:"text"`
	Integrity string `json:"integrity"`
}

// Stylesheet is a <link rel=stylesheet href=...> element.
type Stylesheet struct {
	Href      string `json:"href"`
	Integrity string `json:"integrity"`
}

// Form is a <form> element with its action resolved against the document URL.
type Form struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Action string  `json:"action"`
	Method string  `json:"method"`
	Hidden bool    `json:"hidden"`
	Fields []Field `json:"fields"`
}

// Field is an input inside a form.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// PasswordInput is an <input type=password>. HasValue reports a non-empty value;
// the value itself is never captured.
type PasswordInput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	HasValue     bool   `json:"hasValue"`
	Autocomplete string `json:"autocomplete"`
	InForm       bool   `json:"inForm"`
	FormAction   string `json:"formAction"`
}

// Element is an img, iframe or script element with its rendered size.
// Measured is false when the size is unknown.
type Element struct {
	Tag      string `json:"tag"`
	Src      string `json:"src"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Measured bool   `json:"measured"`
}

// Meta is a <meta> element.
type Meta struct {
	Name      string `json:"name"`
	HTTPEquiv string `json:"httpEquiv"`
	Content   string `json:"content"`
}

// Cookie is a cookie visible to the page.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
	SameSite string `json:"sameSite"`
}

// Storage holds the keys of a Web Storage area.
type Storage struct {
	Captured bool     `json:"captured"`
	Error    string   `json:"error,omitempty"`
	Keys     []string `json:"keys"`
}

// Resource is a fetched sub-resource, as listed by the performance timeline.
type Resource struct {
	Name          string `json:"name"`
	InitiatorType string `json:"initiatorType"`
}

// Origin returns scheme://host[:port] of the snapshot URL.
func (s *Snapshot) Origin() string {
	u, err := url.Parse(s.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// IsHTTPS reports whether the document was served over TLS.
func (s *Snapshot) IsHTTPS() bool {
	u, err := url.Parse(s.URL)
	return err == nil && strings.EqualFold(u.Scheme, "https")
}

// MetaHTTPEquiv returns the contents of meta elements with the given http-equiv, in document order.
func (s *Snapshot) MetaHTTPEquiv(name string) []string {
	var out []string
	for _, m := range s.Metas {
		if strings.EqualFold(m.HTTPEquiv, name) {
			out = append(out, m.Content)
		}
	}
	return out
}

// Library returns the detected version of a library key such as "jquery".
func (s *Snapshot) Library(name string) (string, bool) {
	v, ok := s.Libraries[name]
	return v, ok && v != ""
}

// HasGlobal reports whether a window global was detected.
func (s *Snapshot) HasGlobal(name string) bool {
	for _, g := range s.Globals {
		if g == name {
			return true
		}
	}
	return false
}
