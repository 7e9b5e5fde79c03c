package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/scan"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

// FileCollector replays a saved page.
//
// HTMLPath is either an HTML document or, with a .json extension, an exported
// page.Snapshot. HeadersPath is optional; see LoadHeaders for its format.
type FileCollector struct {
	HTMLPath    string
	HeadersPath string
}

// Collect loads the saved page. The target, when set, is the URL the page is
// attributed to; otherwise a file:// URL of HTMLPath is used.
func (f *FileCollector) Collect(ctx context.Context, target string) (*scan.PageContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageURL := strings.TrimSpace(target)
	if pageURL == "" {
		abs, err := filepath.Abs(f.HTMLPath)
		if err != nil {
			return nil, unavailable(f.HTMLPath, err)
		}
		pageURL = "file://" + filepath.ToSlash(abs)
	} else if normalized, err := NormalizeURL(pageURL); err == nil {
		pageURL = normalized
	}

	doc, err := f.loadDocument(pageURL)
	if err != nil {
		return nil, err
	}
	headers, err := LoadHeaders(f.HeadersPath)
	if err != nil {
		return nil, err
	}
	return &scan.PageContext{URL: pageURL, Headers: headers, Document: doc}, nil
}

func (f *FileCollector) loadDocument(pageURL string) (*page.Snapshot, error) {
	data, err := os.ReadFile(f.HTMLPath)
	if err != nil {
		return nil, unavailable(f.HTMLPath, err)
	}

	if strings.EqualFold(filepath.Ext(f.HTMLPath), ".json") {
		var doc page.Snapshot
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, unavailable(f.HTMLPath, fmt.Errorf("decode snapshot: %w", err))
		}
		if doc.URL == "" {
			doc.URL = pageURL
		}
		return &doc, nil
	}

	doc, err := page.Parse(pageURL, bytes.NewReader(data))
	if err != nil {
		return nil, unavailable(f.HTMLPath, err)
	}
	return doc, nil
}

// LoadHeaders reads a headers document:
//
//	(no path)            headers unavailable
//	null                 nil headers, the acquisition failed
//	{"unavailable":true} headers unavailable
//	{"name":"value",...} the header mapping
func LoadHeaders(path string) (*scan.Headers, error) {
	if path == "" {
		return scan.UnavailableHeaders(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read headers %s: %w", path, err)
	}
	return ParseHeaders(data)
}

// ParseHeaders decodes a headers document; see LoadHeaders.
func ParseHeaders(data []byte) (*scan.Headers, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrInvalidHeaderDoc, err)
	}
	if flag, ok := raw["unavailable"].(bool); ok && len(raw) == 1 {
		if flag {
			return scan.UnavailableHeaders(), nil
		}
		return scan.NewHeaders(nil), nil
	}

	values := make(map[string]string, len(raw))
	for name, v := range raw {
		switch tv := v.(type) {
		case string:
			values[name] = tv
		case float64, bool:
			values[name] = fmt.Sprint(tv)
		default:
			return nil, fmt.Errorf("%w: header %q must be a string", sharedErrors.ErrInvalidHeaderDoc, name)
		}
	}
	return scan.NewHeaders(values), nil
}
