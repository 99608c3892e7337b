// Package fetcher retrieves conversation pages for export.
//
// Static and file fetchers return markup without geometry. A page with
// layout stamps comes from the browser snapshotter in cmd/chatxport/fetcher,
// which implements the same interface.
package fetcher

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jmylchreest/chatxport/pkg/page"
)

// Fetcher abstracts page retrieval strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL or path.
	Fetch(ctx context.Context, target string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// Options controls fetching behavior.
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	WaitForSelector string        // CSS selector to wait for (dynamic fetchers)
	WaitDuration    time.Duration // Additional wait after load
	Headers         map[string]string
	Cookies         []Cookie
	MaxBodySize     int64 // Zero means no limit
}

// Cookie represents an HTTP cookie, typically a session cookie for the
// chat service.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// HTTPCookie converts to a net/http cookie.
func (c Cookie) HTTPCookie() *http.Cookie {
	path := c.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: path}
}

// ParseCookie parses "name=value" with an optional ";domain=..." suffix.
func ParseCookie(s string) (Cookie, error) {
	parts := strings.Split(s, ";")
	name, value, ok := strings.Cut(strings.TrimSpace(parts[0]), "=")
	if !ok || strings.TrimSpace(name) == "" {
		return Cookie{}, errors.New("cookie must be name=value")
	}
	c := Cookie{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}
	for _, attr := range parts[1:] {
		k, v, _ := strings.Cut(strings.TrimSpace(attr), "=")
		switch strings.ToLower(k) {
		case "domain":
			c.Domain = v
		case "path":
			c.Path = v
		}
	}
	return c, nil
}

// Content represents fetched page data.
type Content struct {
	// Source is what was fetched: a URL, a file path or "-" for stdin.
	Source string
	// URL is the page address, empty when unknown.
	URL         string
	HTML        string
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	// Stamped is true when the HTML carries layout stamps.
	Stamped bool
}

// Page parses the content into a page. A known URL overrides the
// data-xport-url stamp.
func (c Content) Page() (*page.Page, error) {
	return page.Load(c.HTML, page.Options{URL: c.URL})
}

// Error types for distinguishing failure reasons.
var (
	// ErrLoginRequired indicates the service redirected to a sign-in page
	// instead of the conversation.
	ErrLoginRequired = errors.New("login required")
	// ErrEmptyPage indicates the response had no body.
	ErrEmptyPage = errors.New("empty page")
)

// loginMarkers appear in the URL of sign-in pages of the supported services.
var loginMarkers = []string{"/login", "/signin", "/sign-in", "/auth/"}

// IsLoginURL reports whether a final URL is a sign-in page.
func IsLoginURL(finalURL string) bool {
	u := strings.ToLower(finalURL)
	for _, m := range loginMarkers {
		if strings.Contains(u, m) {
			return true
		}
	}
	return false
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
