package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/jmylchreest/chatxport/internal/logger"
	"github.com/jmylchreest/chatxport/pkg/page"
)

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int64
}

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent:   defaultUserAgent,
		Timeout:     30 * time.Second,
		MaxBodySize: 10 << 20,
	}
}

// Chrome user agent for better compatibility
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// StaticFetcher uses Colly for plain HTTP fetching. Chat services render
// conversations client side, so this mostly suits saved or server
// rendered share pages. It implements the Fetcher interface.
type StaticFetcher struct {
	config StaticConfig
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultStaticConfig().UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultStaticConfig().Timeout
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultStaticConfig().MaxBodySize
	}
	return &StaticFetcher{config: cfg}
}

// Fetch retrieves page content using Colly.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	logger.Debug("static fetch starting", "url", targetURL)

	result := Content{
		Source:    targetURL,
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	userAgent := coalesce(opts.UserAgent, f.config.UserAgent)
	maxBody := opts.MaxBodySize
	if maxBody == 0 {
		maxBody = f.config.MaxBodySize
	}
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxBodySize(int(maxBody)),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	c.SetRequestTimeout(timeout)
	logger.Debug("static fetch configured", "user_agent", userAgent, "timeout", timeout, "max_body", maxBody)

	if len(opts.Cookies) > 0 {
		cookies := make([]*http.Cookie, 0, len(opts.Cookies))
		for _, ck := range opts.Cookies {
			cookies = append(cookies, ck.HTTPCookie())
		}
		if err := c.SetCookies(targetURL, cookies); err != nil {
			return result, fmt.Errorf("set cookies: %w", err)
		}
	}

	if len(opts.Headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range opts.Headers {
				r.Headers.Set(k, v)
			}
		})
	}

	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.HTML = string(r.Body)
		result.URL = r.Request.URL.String()
		logger.Debug("static fetch response received",
			"status", r.StatusCode,
			"content_type", result.ContentType,
			"body_size", len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
			result.StatusCode = statusCode
		}
		fetchErr = fmt.Errorf("fetch error: %w", err)
		logger.Debug("static fetch error", "status", statusCode, "error", err)
	})

	if err := c.Visit(targetURL); err != nil {
		logger.Debug("static fetch visit failed", "url", targetURL, "error", err)
		return result, fmt.Errorf("failed to visit URL: %w", err)
	}

	if fetchErr != nil {
		return result, fetchErr
	}
	if IsLoginURL(result.URL) {
		return result, fmt.Errorf("%w: redirected to %s", ErrLoginRequired, result.URL)
	}
	if strings.TrimSpace(result.HTML) == "" {
		return result, fmt.Errorf("%w: %s", ErrEmptyPage, targetURL)
	}

	if err := parseContent(&result); err != nil {
		return result, fmt.Errorf("failed to parse content: %w", err)
	}

	logger.Debug("static fetch complete", "url", result.URL, "title", result.Title, "stamped", result.Stamped)
	return result, nil
}

// parseContent fills the title and stamp flag from the HTML.
func parseContent(content *Content) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return err
	}
	content.Title = strings.TrimSpace(doc.Find("title").First().Text())
	content.Stamped = doc.Find("[" + page.BoxAttr + "]").Length() > 0
	return nil
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}
