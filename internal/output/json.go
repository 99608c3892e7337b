package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter writes JSON output. HTML characters are left unescaped so
// message previews read as they appear on the page.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
	items  []any
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		items:  make([]any, 0),
	}
}

// Write buffers a single item for JSON array output.
func (w *JSONWriter) Write(data any) error {
	w.items = append(w.items, data)
	return nil
}

// WriteAll writes all items at once.
func (w *JSONWriter) WriteAll(data []any) error {
	w.items = append(w.items, data...)
	return nil
}

// Flush writes the buffered items. A single item is written as an object,
// several as an array.
func (w *JSONWriter) Flush() error {
	if len(w.items) == 0 {
		return w.w.Flush()
	}

	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(false)
	if w.pretty {
		enc.SetIndent("", w.indent)
	}

	var err error
	if len(w.items) == 1 {
		err = enc.Encode(w.items[0])
	} else {
		err = enc.Encode(w.items)
	}
	if err != nil {
		return err
	}
	w.items = w.items[:0]

	return w.w.Flush()
}

// Close flushes and closes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter writes newline-delimited JSON (JSONL).
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{w: bw, enc: enc}
}

// Write writes a single item as a JSON line.
func (w *JSONLWriter) Write(data any) error {
	if err := w.enc.Encode(data); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes multiple items as JSON lines.
func (w *JSONLWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
