package fetcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// FileFetcher reads saved pages from disk, or from Stdin when the target
// is "-". It implements the Fetcher interface.
type FileFetcher struct {
	Stdin io.Reader
}

// NewFile creates a file fetcher reading "-" from os.Stdin.
func NewFile() *FileFetcher {
	return &FileFetcher{Stdin: os.Stdin}
}

// Fetch reads the target file. Options other than MaxBodySize are ignored.
func (f *FileFetcher) Fetch(ctx context.Context, target string, opts Options) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}

	var r io.Reader
	if target == "-" {
		r = f.Stdin
	} else {
		file, err := os.Open(target)
		if err != nil {
			return Content{}, fmt.Errorf("open page: %w", err)
		}
		defer file.Close()
		r = file
	}

	if opts.MaxBodySize > 0 {
		r = io.LimitReader(r, opts.MaxBodySize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Content{}, fmt.Errorf("read page: %w", err)
	}
	if opts.MaxBodySize > 0 && int64(len(data)) > opts.MaxBodySize {
		return Content{}, fmt.Errorf("page %s exceeds %d bytes", target, opts.MaxBodySize)
	}

	result := Content{
		Source:      target,
		HTML:        string(data),
		ContentType: "text/html",
		FetchedAt:   time.Now(),
	}
	if len(data) == 0 {
		return result, fmt.Errorf("%w: %s", ErrEmptyPage, target)
	}
	if err := parseContent(&result); err != nil {
		return result, fmt.Errorf("failed to parse content: %w", err)
	}
	return result, nil
}

// Close releases resources.
func (f *FileFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *FileFetcher) Type() string {
	return "file"
}
