package output

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// messageRow mirrors the shape of the inspect report.
type messageRow struct {
	Order   int    `json:"order" yaml:"order"`
	Speaker string `json:"speaker" yaml:"speaker"`
	Preview string `json:"preview" yaml:"preview"`
}

func (m messageRow) Columns() []string { return []string{"#", "SPEAKER", "PREVIEW"} }

func (m messageRow) Row() []string {
	return []string{strconv.Itoa(m.Order), m.Speaker, m.Preview}
}

var rows = []any{
	messageRow{Order: 0, Speaker: "Human", Preview: "What is a closure?"},
	messageRow{Order: 1, Speaker: "Assistant", Preview: "A closure captures <scope> & state"},
}

// --- Factory ---

func TestNewWriter(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "*output.JSONWriter"},
		{FormatJSONL, "*output.JSONLWriter"},
		{FormatYAML, "*output.YAMLWriter"},
		{FormatTable, "*output.TableWriter"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			w, err := NewWriter(&bytes.Buffer{}, tt.format)
			if err != nil {
				t.Fatalf("NewWriter() error = %v", err)
			}
			if got := typeName(w); got != tt.want {
				t.Errorf("NewWriter() = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(w Writer) string {
	switch w.(type) {
	case *JSONWriter:
		return "*output.JSONWriter"
	case *JSONLWriter:
		return "*output.JSONLWriter"
	case *YAMLWriter:
		return "*output.YAMLWriter"
	case *TableWriter:
		return "*output.TableWriter"
	}
	return "unknown"
}

func TestNewWriter_UnsupportedFormat(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, Format("csv"))
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("NewWriter() error = %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"json", "JSONL", " yaml ", "table"} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", in, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

// --- JSON ---

func TestJSONWriter_SingleItemIsObject(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, true, "  ")

	if err := w.Write(rows[0]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got messageRow
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if got.Speaker != "Human" {
		t.Errorf("unexpected result: %+v", got)
	}
	if !strings.Contains(buf.String(), "\n  \"order\"") {
		t.Errorf("expected indented output, got %q", buf.String())
	}
}

func TestJSONWriter_MultipleItemsIsArray(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")

	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var got []messageRow
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if len(got) != 2 || got[1].Speaker != "Assistant" {
		t.Errorf("unexpected result: %+v", got)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 1 {
		t.Errorf("expected compact output, got %d lines", len(lines))
	}
}

func TestJSONWriter_KeepsHTMLCharacters(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")
	_ = w.Write(rows[1])
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "<scope> & state") {
		t.Errorf("HTML characters were escaped: %s", buf.String())
	}
}

func TestJSONWriter_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewJSONWriter(buf, true, "  ").Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

// --- JSONL ---

func TestJSONLWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONLWriter(buf)

	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	for i, line := range lines {
		var item messageRow
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// --- YAML ---

func TestYAMLWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewYAMLWriter(buf)

	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got []messageRow
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if len(got) != 2 || got[0].Preview != "What is a closure?" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestYAMLWriter_SingleItem(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewYAMLWriter(buf)
	_ = w.Write(rows[0])
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "order: 0\n") {
		t.Errorf("expected a mapping, got %q", buf.String())
	}
}

// --- Table ---

func TestTableWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewTableWriter(buf)

	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"SPEAKER", "PREVIEW", "Human", "Assistant", "What is a closure?"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestTableWriter_RejectsNonTabular(t *testing.T) {
	w := NewTableWriter(&bytes.Buffer{})
	if err := w.Write(map[string]string{"a": "b"}); err == nil {
		t.Error("expected error for a value without table form")
	}
}

// --- Options and Print ---

func TestWriterOptions(t *testing.T) {
	cfg := &writerConfig{pretty: true}
	WithPretty(false)(cfg)
	WithIndent("\t")(cfg)

	if cfg.pretty || cfg.indent != "\t" {
		t.Errorf("options not applied: %+v", cfg)
	}
}

func TestPrint(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Print(buf, FormatJSON, map[string]any{"success": true}); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"success": true`) {
		t.Errorf("Print() = %q", buf.String())
	}

	if err := Print(buf, Format("xml"), 1); err == nil {
		t.Error("Print() with bad format should fail")
	}
}
