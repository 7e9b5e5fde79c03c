package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
	"github.com/khanhnv2901/vigilante/internal/scan"
)

// Collector builds the page context for one target.
type Collector interface {
	Collect(ctx context.Context, target string) (*scan.PageContext, error)
}

// Mode selects a collector implementation.
type Mode string

const (
	ModeHTTP    Mode = "http"
	ModeBrowser Mode = "browser"
	ModeFile    Mode = "file"
)

// Modes lists the supported modes in help order.
var Modes = []Mode{ModeHTTP, ModeBrowser, ModeFile}

// ParseMode validates a mode name. The empty string selects ModeHTTP.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeHTTP, nil
	case ModeHTTP, ModeBrowser, ModeFile:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (expected http, browser or file)", sharedErrors.ErrInvalidScanMode, s)
	}
}

// Options configures New.
type Options struct {
	Mode           Mode
	Timeout        time.Duration
	HeadersTimeout time.Duration
	ChromePath     string
	HTMLPath       string
	HeadersPath    string
	Logger         *zap.Logger
}

// New returns the collector for opts.Mode.
func New(opts Options) (Collector, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch opts.Mode {
	case ModeHTTP, "":
		c := NewHTTPCollector(opts.Timeout)
		c.Logger = logger
		return c, nil
	case ModeBrowser:
		return &BrowserCollector{
			HeadersTimeout: opts.HeadersTimeout,
			ExecPath:       opts.ChromePath,
			Logger:         logger,
		}, nil
	case ModeFile:
		if opts.HTMLPath == "" {
			return nil, fmt.Errorf("%w: file mode needs an HTML file", sharedErrors.ErrMissingRequired)
		}
		return &FileCollector{HTMLPath: opts.HTMLPath, HeadersPath: opts.HeadersPath}, nil
	default:
		return nil, fmt.Errorf("%w: %q", sharedErrors.ErrInvalidScanMode, opts.Mode)
	}
}

func unavailable(target string, err error) error {
	return fmt.Errorf("%w: %s: %v", sharedErrors.ErrPageUnavailable, target, err)
}
