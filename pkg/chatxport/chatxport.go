// Package chatxport provides the public API for exporting a chat
// conversation page to Markdown, HTML or plain text.
package chatxport

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/chatxport/internal/logger"
	"github.com/jmylchreest/chatxport/pkg/page"
	"github.com/jmylchreest/chatxport/pkg/platform"
	"github.com/jmylchreest/chatxport/pkg/render"
	"github.com/jmylchreest/chatxport/pkg/segment"
)

// Errors surfaced by Export. Segmentation, platform and format failures
// wrap the sentinels of their own packages.
var (
	// ErrExportInFlight is returned when an export is requested while
	// another one is still running on the same Exporter.
	ErrExportInFlight = errors.New("an export is already in progress")

	ErrNoMessagesFound     = segment.ErrNoMessagesFound
	ErrUnsupportedPlatform = platform.ErrUnsupportedPlatform
	ErrUnsupportedFormat   = render.ErrUnsupportedFormat
)

// ActionExport is the only action Handle understands.
const ActionExport = "export"

// Request is an inbound export trigger.
type Request struct {
	Action string `json:"action" yaml:"action"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Response reports the outcome of a Request.
type Response struct {
	Success  bool     `json:"success" yaml:"success"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
	Filename string   `json:"filename,omitempty" yaml:"filename,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Version returns the module version of the chatxport library.
// Returns "(devel)" when built from source without version info.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return "(unknown)"
}

// Exporter runs segment, render and save for a page. It is safe for
// concurrent use, but runs one export at a time.
type Exporter struct {
	config Config
	busy   atomic.Bool
}

// New creates an Exporter. Unset collaborators fall back to the ones
// DefaultConfig would build; they are only built when missing.
func New(opts ...Option) *Exporter {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Segmenter == nil {
		cfg.Segmenter = segment.Default()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.New()
	}
	if cfg.Detector == nil {
		cfg.Detector = platform.Detect
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Exporter{config: cfg}
}

// Export segments the page, renders it in format and hands the document to
// the Saver. A second call while one is running fails with
// ErrExportInFlight. The saver's error is returned as is, without retry.
func (e *Exporter) Export(ctx context.Context, p *page.Page, format render.Format) (*render.Document, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrExportInFlight
	}
	defer e.busy.Store(false)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("export: %w", ErrNoMessagesFound)
	}

	log := logger.Component("export")
	start := time.Now()

	info := e.config.Detector(p.URL())
	log.Debug("platform detected", "url", p.URL(), "platform", info.Tag, "supported", info.Supported)
	if !info.Supported && !e.config.AllowUnsupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, info.Name)
	}

	seg, err := e.config.Segmenter.Segment(p.Root())
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}

	doc, err := e.config.Renderer.Render(seg.Messages, format, render.Meta{
		Platform: info.Tag,
		Time:     e.config.Clock(),
	})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	if e.config.Saver != nil {
		if err := e.config.Saver.Save(ctx, doc.Body, doc.Filename, doc.MimeType); err != nil {
			return nil, fmt.Errorf("save %s: %w", doc.Filename, err)
		}
	}

	log.Info("export complete",
		"platform", info.Tag,
		"strategy", string(seg.Strategy),
		"messages", len(seg.Messages),
		"format", string(format),
		"filename", doc.Filename,
		"warnings", len(doc.Warnings),
		"duration", time.Since(start))

	return doc, nil
}

// Handle serves a Request. It never panics; every failure, including a
// recovered panic, comes back as an unsuccessful Response.
func (e *Exporter) Handle(ctx context.Context, p *page.Page, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("export panicked", "panic", r, "stack", string(debug.Stack()))
			resp = Response{Error: fmt.Sprintf("export failed: %v", r)}
		}
	}()

	if req.Action != ActionExport {
		return Response{Error: fmt.Sprintf("unknown action %q", req.Action)}
	}

	format := render.Markdown
	if req.Format != "" {
		f, err := render.ParseFormat(req.Format)
		if err != nil {
			return Response{Error: err.Error()}
		}
		format = f
	}

	doc, err := e.Export(ctx, p, format)
	if err != nil {
		logger.Warn("export failed", "error", err)
		return Response{Error: err.Error()}
	}

	resp = Response{Success: true, Filename: doc.Filename}
	for _, w := range doc.Warnings {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	return resp
}
