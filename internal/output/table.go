package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableWriter renders Tabular items as a bordered table. The first item
// supplies the column headers.
type TableWriter struct {
	w    io.Writer
	rows []Tabular
}

// NewTableWriter creates a table writer.
func NewTableWriter(w io.Writer) *TableWriter {
	return &TableWriter{w: w}
}

// Write buffers a row.
func (w *TableWriter) Write(data any) error {
	row, ok := data.(Tabular)
	if !ok {
		return fmt.Errorf("table output: %T has no table form", data)
	}
	w.rows = append(w.rows, row)
	return nil
}

// WriteAll buffers multiple rows.
func (w *TableWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush renders the table.
func (w *TableWriter) Flush() error {
	if len(w.rows) == 0 {
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(w.rows[0].Columns()...)
	for _, r := range w.rows {
		t.Row(r.Row()...)
	}
	w.rows = w.rows[:0]

	_, err := fmt.Fprintln(w.w, t.Render())
	return err
}

// Close flushes the writer.
func (w *TableWriter) Close() error {
	return w.Flush()
}
