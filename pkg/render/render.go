// Package render serializes segmented conversation turns into a single
// export document in Markdown, HTML or plain text.
package render

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmylchreest/chatxport/internal/logger"
	"github.com/jmylchreest/chatxport/pkg/cleaner"
	"github.com/jmylchreest/chatxport/pkg/cleaner/sanitize"
	"github.com/jmylchreest/chatxport/pkg/normalize"
	"github.com/jmylchreest/chatxport/pkg/segment"
)

// Title heads every export.
const Title = "AI Conversation Export"

// ErrUnsupportedFormat is returned for an output format that has no writer.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an export output format.
type Format string

const (
	Markdown Format = "markdown"
	HTML     Format = "html"
	Text     Format = "text"
)

// ParseFormat maps a user supplied name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return Markdown, nil
	case "html":
		return HTML, nil
	case "text", "txt", "plain":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: %q (expected markdown, html or text)", ErrUnsupportedFormat, s)
	}
}

// Extension is the file extension for the format, without the dot.
func (f Format) Extension() string {
	switch f {
	case HTML:
		return "html"
	case Text:
		return "txt"
	default:
		return "md"
	}
}

// MimeType is the content type for the format.
func (f Format) MimeType() string {
	switch f {
	case HTML:
		return "text/html"
	case Text:
		return "text/plain"
	default:
		return "text/markdown"
	}
}

// Document is a finished export. Warnings lists messages that were degraded
// to plain visible text, and cleaner problems that did not stop a message
// from rendering.
type Document struct {
	Body     string
	Filename string
	MimeType string
	Warnings []*RenderError
}

// RenderError records a message whose content could not be converted.
type RenderError struct {
	Index   int
	Speaker segment.Speaker
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("message %d (%s): %v", e.Index, e.Speaker, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Meta carries the document-level facts that are not part of the messages.
type Meta struct {
	// Platform is the platform tag used in the filename.
	Platform string
	// Time stamps the filename. Zero means now.
	Time time.Time
}

// Renderer turns messages into a Document.
type Renderer struct {
	normalizer normalize.Normalizer
	cleaner    cleaner.Cleaner
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithNormalizer sets the Markdown converter.
func WithNormalizer(n normalize.Normalizer) Option {
	return func(r *Renderer) {
		r.normalizer = n
	}
}

// WithCleaner sets the cleaner applied to message HTML.
func WithCleaner(c cleaner.Cleaner) Option {
	return func(r *Renderer) {
		r.cleaner = c
	}
}

// New creates a Renderer. Defaults are the builtin normalizer and a
// sanitize then bluemonday cleaner chain.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		normalizer: normalize.NewBuiltin(),
		cleaner:    cleaner.NewChain(sanitize.New(nil), cleaner.NewPolicy(nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render serializes messages in order. Only an unknown format fails; a
// message that cannot be converted is written as its visible text and
// reported in Document.Warnings.
func (r *Renderer) Render(messages []segment.Message, format Format, meta Meta) (*Document, error) {
	log := logger.Component("render")

	var (
		body     string
		warnings []*RenderError
		err      error
	)
	switch format {
	case Markdown:
		body, warnings = r.markdown(messages)
	case HTML:
		body, warnings, err = r.htmlDocument(messages)
	case Text:
		body = r.text(messages)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	for _, w := range warnings {
		log.Warn("message degraded to text", "index", w.Index, "speaker", w.Speaker.String(), "error", w.Err)
	}
	log.Debug("rendered", "format", string(format), "messages", len(messages), "bytes", len(body))

	return &Document{
		Body:     body,
		Filename: Filename(meta.Platform, format, meta.Time),
		MimeType: format.MimeType(),
		Warnings: warnings,
	}, nil
}

var unsafeTag = regexp.MustCompile(`[^a-z0-9-]+`)

// Filename builds ai-conversation-<platform>-<YYYY-MM-DD>.<ext> using the
// UTC date of t.
func Filename(platform string, format Format, t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	tag := strings.Trim(unsafeTag.ReplaceAllString(strings.ToLower(platform), "-"), "-")
	if tag == "" {
		tag = "unknown"
	}
	return fmt.Sprintf("ai-conversation-%s-%s.%s", tag, t.UTC().Format("2006-01-02"), format.Extension())
}

// visibleText joins the rendered text of every part with a blank line.
func visibleText(m segment.Message) string {
	texts := make([]string, 0, len(m.Parts))
	for _, part := range m.Parts {
		if t := strings.TrimSpace(part.Text()); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n\n")
}
