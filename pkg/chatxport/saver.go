package chatxport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Saver persists a finished export.
type Saver interface {
	Save(ctx context.Context, content, filename, mimeType string) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, content, filename, mimeType string) error

// Save calls f.
func (f SaverFunc) Save(ctx context.Context, content, filename, mimeType string) error {
	return f(ctx, content, filename, mimeType)
}

// DirSaver writes exports as files in Dir, creating it when missing.
type DirSaver struct {
	Dir string
}

// Path returns where filename would be written. Any directory part of
// filename is dropped.
func (s DirSaver) Path(filename string) string {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, filepath.Base(filename))
}

// Save writes content to Dir/filename.
func (s DirSaver) Save(ctx context.Context, content, filename, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Path(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriterSaver streams exports to W, typically stdout.
type WriterSaver struct {
	W io.Writer
}

// Save writes content to W.
func (s WriterSaver) Save(ctx context.Context, content, _, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(s.W, content)
	return err
}
