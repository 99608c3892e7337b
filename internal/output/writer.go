// Package output serializes CLI reports: the per-message listing of
// inspect and the result of export.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatJSONL, FormatYAML, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (use json, jsonl, yaml or table)", s)
	}
}

// Writer handles output serialization.
type Writer interface {
	// Write outputs a single result.
	Write(data any) error

	// WriteAll outputs multiple results.
	WriteAll(data []any) error

	// Flush ensures all data is written.
	Flush() error

	// Close releases resources.
	Close() error
}

// Tabular is implemented by report rows that can be shown in a table.
type Tabular interface {
	Columns() []string
	Row() []string
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatTable:
		return NewTableWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Print writes items in format and flushes.
func Print(w io.Writer, format Format, items ...any) error {
	out, err := NewWriter(w, format)
	if err != nil {
		return err
	}
	if err := out.WriteAll(items); err != nil {
		return err
	}
	return out.Close()
}
