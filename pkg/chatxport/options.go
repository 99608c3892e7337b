package chatxport

import (
	"time"

	"github.com/jmylchreest/chatxport/pkg/platform"
	"github.com/jmylchreest/chatxport/pkg/render"
	"github.com/jmylchreest/chatxport/pkg/segment"
)

// Config holds the collaborators of an Exporter.
type Config struct {
	Segmenter *segment.Segmenter
	Renderer  *render.Renderer
	Saver     Saver
	Detector  platform.Detector
	Clock     func() time.Time

	// AllowUnsupported exports from platforms without tuned selectors.
	AllowUnsupported bool
}

// DefaultConfig returns the stock collaborators. No Saver is set, so
// exports are returned but not written anywhere.
func DefaultConfig() Config {
	return Config{
		Segmenter: segment.Default(),
		Renderer:  render.New(),
		Detector:  platform.Detect,
		Clock:     time.Now,
	}
}

// Option configures an Exporter.
type Option func(*Config)

// WithSegmenter sets the segmenter.
func WithSegmenter(s *segment.Segmenter) Option {
	return func(c *Config) {
		c.Segmenter = s
	}
}

// WithRenderer sets the renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(c *Config) {
		c.Renderer = r
	}
}

// WithSaver sets where finished documents are written.
func WithSaver(s Saver) Option {
	return func(c *Config) {
		c.Saver = s
	}
}

// WithPlatformDetector replaces URL based platform detection.
func WithPlatformDetector(d platform.Detector) Option {
	return func(c *Config) {
		c.Detector = d
	}
}

// WithClock sets the time source used for filenames.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Clock = now
	}
}

// WithAllowUnsupported permits exports from unsupported platforms.
func WithAllowUnsupported(enabled bool) Option {
	return func(c *Config) {
		c.AllowUnsupported = enabled
	}
}
