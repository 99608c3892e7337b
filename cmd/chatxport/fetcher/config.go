// Package fetcher provides the browser snapshotter for the CLI. It renders
// a conversation in Chrome and returns the markup with every element's
// layout box stamped on it.
package fetcher

import (
	"time"
)

// Config holds configuration for the snapshotter.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// UserDataDir points Chrome at an existing profile so the signed-in
	// session of the chat service is reused.
	UserDataDir string
	// Headful shows the browser window, e.g. to sign in by hand.
	Headful      bool
	WindowWidth  int
	WindowHeight int
	// ChromePath overrides binary discovery.
	ChromePath string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:    defaultUserAgent,
		Timeout:      60 * time.Second,
		WindowWidth:  1280,
		WindowHeight: 1024,
	}
}

// Chrome user agent for better compatibility
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = d.WindowWidth
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = d.WindowHeight
	}
	return c
}
