package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

// JSON writes the report as indented JSON.
func JSON(w io.Writer, r *scan.Report) error {
	return encodeJSON(w, r)
}

// YAML writes the report as YAML.
func YAML(w io.Writer, r *scan.Report) error {
	return encodeYAML(w, r)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
