// Package summaryio reads and writes schema summaries.
package summaryio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/usestring/schemainfer/pkg/inferrer"
)

// ErrUnknownFormat is returned for an output format other than json or yaml.
var ErrUnknownFormat = errors.New("unknown summary format")

// Format selects the serialization of a summary.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// schemaSuffix is appended to the input's base name to name its summary.
const schemaSuffix = "_schema"

// ParseFormat parses a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Write serializes s to w. JSON is indented with two spaces and ends with a
// newline.
func Write(w io.Writer, s *inferrer.Summary, format Format) error {
	switch format {
	case FormatJSON, "":
		data, err := gojson.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// WriteFile writes s to path, creating parent directories as needed.
func WriteFile(path string, s *inferrer.Summary, format Format) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating summary file: %w", err)
	}
	if err := Write(f, s, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read decodes a summary in the given format.
func Read(r io.Reader, format Format) (*inferrer.Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading summary: %w", err)
	}

	s := inferrer.NewSummary()
	switch format {
	case FormatJSON, "":
		err = gojson.Unmarshal(data, s)
	case FormatYAML:
		err = yaml.Unmarshal(data, s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	return s, nil
}

// ReadFile reads a summary, choosing the format from the file extension.
func ReadFile(path string) (*inferrer.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening summary: %w", err)
	}
	defer f.Close()

	s, err := Read(f, formatFromExt(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func formatFromExt(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// SchemaFileName derives the summary file name for an input file:
// "data/users.json" becomes "users_schema.json".
func SchemaFileName(input string, format Format) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + schemaSuffix + format.Ext()
}

// TableName derives a table name from a summary file name:
// "out/users_schema.json" becomes "users".
func TableName(schemaPath string) string {
	base := filepath.Base(schemaPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(stem, schemaSuffix)
}
