package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/khanhnv2901/vigilante/internal/collector"
	"github.com/khanhnv2901/vigilante/internal/report"
	consts "github.com/khanhnv2901/vigilante/internal/shared/constants"
	"github.com/khanhnv2901/vigilante/internal/shared/security"
)

// writesToStdout reports whether output selects standard output.
func writesToStdout(output string, f report.Format) bool {
	switch output {
	case "-":
		return true
	case "":
		return !f.Binary()
	}
	return false
}

// isDirOutput reports whether output names a directory: an existing one or a
// path ending in a separator.
func isDirOutput(output string) bool {
	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(os.PathSeparator)) {
		return true
	}
	info, err := os.Stat(output)
	return err == nil && info.IsDir()
}

// targetSlug turns a target into a file-name-safe label built from its host,
// port and path.
func targetSlug(target string) string {
	host := target
	if t, err := collector.ParseTarget(target); err == nil {
		host = t.Host
		if t.Port != "" {
			host += "-" + t.Port
		}
		if p := strings.Trim(t.Path, "/"); p != "" {
			host += "-" + p
		}
	} else {
		host = filepath.Base(target)
	}
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '-'
		}
	}, host)
	slug = strings.Trim(slug, ".-")
	if slug == "" {
		return "page"
	}
	return slug
}

// reportFilename is the dated report name, tagged with the target when several
// reports share a directory.
func reportFilename(f report.Format, at time.Time, target string, tagged bool) string {
	name := report.Filename(f, at)
	if !tagged {
		return name
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + targetSlug(target) + ext
}

// resolveOutputPath places name under the reports directory when output is
// empty, under output when it is a directory, or returns output itself.
// Directories are created as needed.
func resolveOutputPath(output, reportsDir, name string) (string, error) {
	switch {
	case output == "":
		if err := os.MkdirAll(reportsDir, consts.DefaultDirPerm); err != nil {
			return "", fmt.Errorf("create reports directory: %w", err)
		}
		return security.ResolveWithin(reportsDir, name)
	case isDirOutput(output):
		if err := os.MkdirAll(output, consts.DefaultDirPerm); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return security.ResolveWithin(output, name)
	default:
		path, err := filepath.Abs(output)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), consts.DefaultDirPerm); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return path, nil
	}
}
