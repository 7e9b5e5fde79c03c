package page

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// libraryPatterns extract versions from script URLs such as
// jquery-3.4.1.min.js, ajax/libs/angularjs/1.7.8/angular.min.js or react@16.8.0.
var libraryPatterns = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{"jquery", regexp.MustCompile(`(?i)jquery[/@-](\d+\.\d+(?:\.\d+)?)`)},
	{"angularjs", regexp.MustCompile(`(?i)angularjs?[/@-](\d+\.\d+(?:\.\d+)?)`)},
	{"react", regexp.MustCompile(`(?i)\breact[/@-](\d+\.\d+(?:\.\d+)?)`)},
	{"lodash", regexp.MustCompile(`(?i)lodash(?:\.js)?[/@-](\d+\.\d+(?:\.\d+)?)`)},
	{"moment", regexp.MustCompile(`(?i)moment(?:\.js)?[/@-](\d+\.\d+(?:\.\d+)?)`)},
	{"bootstrap", regexp.MustCompile(`(?i)bootstrap[/@-](\d+\.\d+(?:\.\d+)?)`)},
	{"vue", regexp.MustCompile(`(?i)\bvue[/@-](\d+\.\d+(?:\.\d+)?)`)},
}

// bannerPatterns match the license banners bundled libraries keep in inline code.
var bannerPatterns = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{"jquery", regexp.MustCompile(`jQuery (?:JavaScript Library )?v(\d+\.\d+(?:\.\d+)?)`)},
	{"angularjs", regexp.MustCompile(`AngularJS v(\d+\.\d+(?:\.\d+)?)`)},
	{"react", regexp.MustCompile(`@license React v(\d+\.\d+(?:\.\d+)?)`)},
}

// fingerprintMarkers map script URL or inline-code markers to the global a
// fingerprinting library installs.
var fingerprintMarkers = []struct {
	global  string
	markers []string
}{
	{"Fingerprint2", []string{"fingerprint2"}},
	{"fpjs", []string{"fingerprintjs", "fpjs"}},
	{"ClientJS", []string{"clientjs"}},
}

// Quirks-mode public identifier prefixes, from the HTML parsing rules.
var quirksPublicPrefixes = []string{
	"+//silmaril//dtd html pro v0r11 19970101//",
	"-//as//dtd html 3.0 aswedit + extensions//",
	"-//advasoft ltd//dtd html 3.0 aswedit + extensions//",
	"-//ietf//dtd html",
	"-//metrius//dtd metrius presentational//",
	"-//microsoft//dtd internet explorer",
	"-//netscape comm. corp.//dtd",
	"-//o'reilly and associates//dtd html",
	"-//softquad",
	"-//spyglass//dtd html 2.0 extended//",
	"-//sq//dtd html 2.0 hotmetal + extensions//",
	"-//sun microsystems corp.//dtd hotjava html//",
	"-//w3c//dtd html 3",
	"-//w3c//dtd html 4.0 frameset//",
	"-//w3c//dtd html 4.0 transitional//",
	"-//w3c//dtd html experimental",
	"-//w3c//dtd w3 html//",
	"-//w3o//dtd w3 html 3.0//",
	"-//webtechs//dtd mozilla html",
}

// Prefixes that trigger quirks mode only when the system identifier is missing.
var quirksNoSystemPrefixes = []string{
	"-//w3c//dtd html 4.01 frameset//",
	"-//w3c//dtd html 4.01 transitional//",
}

// Parse builds a Snapshot from an HTML document served at rawURL.
// Storage is reported as not captured; the caller fills Cookies.
func Parse(rawURL string, r io.Reader) (*Snapshot, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse document url: %w", err)
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &parser{
		base: base,
		snap: &Snapshot{
			URL:        base.String(),
			CompatMode: QuirksMode,
			Libraries:  map[string]string{},
		},
	}
	p.walk(doc, -1)
	p.detectLibraries()
	p.detectGlobals()
	return p.snap, nil
}

type parser struct {
	base        *url.URL
	snap        *Snapshot
	seenDoctype bool
}

func (p *parser) walk(n *html.Node, form int) {
	switch n.Type {
	case html.DoctypeNode:
		if !p.seenDoctype {
			p.seenDoctype = true
			if !doctypeIsQuirks(n) {
				p.snap.CompatMode = StandardsMode
			}
		}
	case html.ElementNode:
		form = p.element(n, form)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, form)
	}
}

// element records n and returns the index of the enclosing form for its children.
func (p *parser) element(n *html.Node, form int) int {
	switch n.DataAtom {
	case atom.Base:
		if href, ok := attr(n, "href"); ok {
			if u, err := p.base.Parse(strings.TrimSpace(href)); err == nil {
				p.base = u
			}
		}
	case atom.Script:
		src := p.resolveAttr(n, "src")
		integrity, _ := attr(n, "integrity")
		p.snap.Scripts = append(p.snap.Scripts, Script{Src: src, Text: textContent(n), Integrity: integrity})
		p.snap.Elements = append(p.snap.Elements, Element{Tag: "script", Src: src})
		p.addResource(src, "script")
	case atom.Link:
		href := p.resolveAttr(n, "href")
		rel, _ := attr(n, "rel")
		if hasToken(rel, "stylesheet") && href != "" {
			integrity, _ := attr(n, "integrity")
			p.snap.Stylesheets = append(p.snap.Stylesheets, Stylesheet{Href: href, Integrity: integrity})
		}
		if hasToken(rel, "stylesheet") || hasToken(rel, "icon") || hasToken(rel, "preload") || hasToken(rel, "modulepreload") {
			p.addResource(href, "link")
		}
	case atom.Img, atom.Iframe:
		src := p.resolveAttr(n, "src")
		el := Element{Tag: n.Data, Src: src}
		w, wok := dimension(n, "width")
		h, hok := dimension(n, "height")
		if wok && hok {
			el.Width, el.Height, el.Measured = w, h, true
		}
		p.snap.Elements = append(p.snap.Elements, el)
		p.addResource(src, n.Data)
	case atom.Source, atom.Video, atom.Audio, atom.Embed, atom.Track:
		p.addResource(p.resolveAttr(n, "src"), n.Data)
	case atom.Object:
		p.addResource(p.resolveAttr(n, "data"), n.Data)
	case atom.Meta:
		name, _ := attr(n, "name")
		equiv, _ := attr(n, "http-equiv")
		content, _ := attr(n, "content")
		p.snap.Metas = append(p.snap.Metas, Meta{Name: name, HTTPEquiv: equiv, Content: content})
	case atom.Form:
		id, _ := attr(n, "id")
		name, _ := attr(n, "name")
		method, _ := attr(n, "method")
		method = strings.ToLower(strings.TrimSpace(method))
		if method == "" {
			method = "get"
		}
		action := p.base.String()
		if raw, ok := attr(n, "action"); ok && strings.TrimSpace(raw) != "" {
			action = p.resolve(raw)
		}
		p.snap.Forms = append(p.snap.Forms, Form{
			ID:     id,
			Name:   name,
			Action: action,
			Method: method,
			Hidden: isHidden(n),
		})
		return len(p.snap.Forms) - 1
	case atom.Input, atom.Select, atom.Textarea:
		p.field(n, form)
	}
	return form
}

func (p *parser) field(n *html.Node, form int) {
	name, _ := attr(n, "name")
	typ := "text"
	if n.DataAtom != atom.Input {
		typ = n.Data
	} else if t, ok := attr(n, "type"); ok && strings.TrimSpace(t) != "" {
		typ = strings.ToLower(strings.TrimSpace(t))
	}
	if form >= 0 {
		f := &p.snap.Forms[form]
		f.Fields = append(f.Fields, Field{Name: name, Type: typ})
	}
	if n.DataAtom == atom.Input && typ == "image" {
		p.addResource(p.resolveAttr(n, "src"), "input")
	}
	if typ != "password" {
		return
	}
	id, _ := attr(n, "id")
	value, _ := attr(n, "value")
	autocomplete, _ := attr(n, "autocomplete")
	in := PasswordInput{
		ID:           id,
		Name:         name,
		HasValue:     value != "",
		Autocomplete: strings.ToLower(strings.TrimSpace(autocomplete)),
	}
	if form >= 0 {
		in.InForm = true
		in.FormAction = p.snap.Forms[form].Action
	}
	p.snap.PasswordInputs = append(p.snap.PasswordInputs, in)
}

func (p *parser) addResource(name, initiator string) {
	if name == "" || strings.HasPrefix(name, "data:") || strings.HasPrefix(name, "javascript:") {
		return
	}
	p.snap.Resources = append(p.snap.Resources, Resource{Name: name, InitiatorType: initiator})
}

func (p *parser) resolveAttr(n *html.Node, key string) string {
	raw, ok := attr(n, key)
	if !ok || strings.TrimSpace(raw) == "" {
		return ""
	}
	return p.resolve(raw)
}

func (p *parser) resolve(ref string) string {
	u, err := p.base.Parse(strings.TrimSpace(ref))
	if err != nil {
		return strings.TrimSpace(ref)
	}
	return u.String()
}

func (p *parser) detectLibraries() {
	for _, s := range p.snap.Scripts {
		if s.Src != "" {
			for _, lib := range libraryPatterns {
				if _, seen := p.snap.Libraries[lib.key]; seen {
					continue
				}
				if m := lib.pattern.FindStringSubmatch(s.Src); len(m) > 1 {
					p.snap.Libraries[lib.key] = m[1]
				}
			}
			continue
		}
		for _, lib := range bannerPatterns {
			if _, seen := p.snap.Libraries[lib.key]; seen {
				continue
			}
			if m := lib.pattern.FindStringSubmatch(s.Text); len(m) > 1 {
				p.snap.Libraries[lib.key] = m[1]
			}
		}
	}
}

func (p *parser) detectGlobals() {
	for _, fp := range fingerprintMarkers {
		if p.scriptsMention(fp.global, fp.markers) {
			p.snap.Globals = append(p.snap.Globals, fp.global)
		}
	}
}

func (p *parser) scriptsMention(global string, markers []string) bool {
	for _, s := range p.snap.Scripts {
		if s.Src != "" {
			src := strings.ToLower(s.Src)
			for _, m := range markers {
				if strings.Contains(src, m) {
					return true
				}
			}
			continue
		}
		if strings.Contains(s.Text, global+".") || strings.Contains(s.Text, "new "+global+"(") {
			return true
		}
	}
	return false
}

func doctypeIsQuirks(n *html.Node) bool {
	if !strings.EqualFold(n.Data, "html") {
		return true
	}
	var public, system string
	var hasSystem bool
	for _, a := range n.Attr {
		switch a.Key {
		case "public":
			public = strings.ToLower(a.Val)
		case "system":
			system = strings.ToLower(a.Val)
			hasSystem = true
		}
	}
	if public == "html" || public == "-//w3o//dtd w3 html strict 3.0//en//" || public == "-/w3c/dtd html 4.0 transitional/en" {
		return true
	}
	if system == "http://www.ibm.com/data/dtd/v11/ibmxhtml1-transitional.dtd" {
		return true
	}
	for _, prefix := range quirksPublicPrefixes {
		if strings.HasPrefix(public, prefix) {
			return true
		}
	}
	if !hasSystem {
		for _, prefix := range quirksNoSystemPrefixes {
			if strings.HasPrefix(public, prefix) {
				return true
			}
		}
	}
	return false
}

// isHidden approximates the computed style check with the hidden attribute
// and inline display/visibility declarations.
func isHidden(n *html.Node) bool {
	if _, ok := attr(n, "hidden"); ok {
		return true
	}
	style, ok := attr(n, "style")
	if !ok {
		return false
	}
	for _, decl := range strings.Split(style, ";") {
		prop, value, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.ToLower(strings.TrimSpace(value))
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		if (prop == "display" && value == "none") || (prop == "visibility" && value == "hidden") {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func dimension(n *html.Node, key string) (int, bool) {
	raw, ok := attr(n, key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(raw), "px"))
	if err != nil {
		return 0, false
	}
	return v, true
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(strings.ToLower(list)) {
		if f == token {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
