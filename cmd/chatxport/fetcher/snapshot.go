package fetcher

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/chatxport/internal/logger"
	"github.com/jmylchreest/chatxport/pkg/fetcher"
)

// stampScript clones the document, stamps each clone element with the
// bounding box of its live counterpart and returns the clone's markup. The
// live DOM is only read.
//
//go:embed stamp.js
var stampScript string

// defaultWaitSelector is waited for when no selector is configured. It
// matches a rendered message on the supported platform.
const defaultWaitSelector = `[data-testid="user-message"], .font-claude-message, main`

// Snapshotter uses chromedp to render a conversation and capture it with
// layout stamps. It implements fetcher.Fetcher.
type Snapshotter struct {
	config    Config
	allocCtx  context.Context
	cancelCtx context.CancelFunc
}

// NewSnapshotter creates a snapshotter with a browser allocator. Chrome is
// started lazily on the first Fetch.
func NewSnapshotter(cfg Config) (*Snapshotter, error) {
	cfg = cfg.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !cfg.Headful),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.UserDataDir != "" {
		dir, err := filepath.Abs(cfg.UserDataDir)
		if err != nil {
			return nil, fmt.Errorf("resolve user data dir: %w", err)
		}
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("user data dir: %w", err)
		}
		opts = append(opts, chromedp.UserDataDir(dir))
	}
	if chromePath := FindChromePath(cfg.ChromePath); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	logger.Debug("snapshotter created",
		"headful", cfg.Headful,
		"user_data_dir", cfg.UserDataDir != "",
		"window", fmt.Sprintf("%dx%d", cfg.WindowWidth, cfg.WindowHeight),
		"timeout", cfg.Timeout)

	return &Snapshotter{
		config:    cfg,
		allocCtx:  allocCtx,
		cancelCtx: cancelAlloc,
	}, nil
}

// Fetch loads targetURL, waits for the conversation to render and returns
// the stamped markup.
func (s *Snapshotter) Fetch(ctx context.Context, targetURL string, opts fetcher.Options) (fetcher.Content, error) {
	result := fetcher.Content{
		Source:    targetURL,
		URL:       targetURL,
		FetchedAt: time.Now(),
	}
	if _, err := url.ParseRequestURI(targetURL); err != nil {
		return result, fmt.Errorf("invalid URL: %w", err)
	}

	browserCtx, cancelBrowser := chromedp.NewContext(s.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	defer cancelBrowser()

	// Stop the browser when the caller gives up.
	stop := context.AfterFunc(ctx, cancelBrowser)
	defer stop()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = s.config.Timeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	waitSelector := coalesce(opts.WaitForSelector, defaultWaitSelector)

	var (
		markup   string
		title    string
		location string
	)
	actions := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(int64(s.config.WindowWidth), int64(s.config.WindowHeight), 1, false),
	}
	if len(opts.Cookies) > 0 {
		actions = append(actions, setCookies(targetURL, opts.Cookies))
	}
	if len(opts.Headers) > 0 {
		headers := network.Headers{}
		for k, v := range opts.Headers {
			headers[k] = v
		}
		actions = append(actions, network.Enable(), network.SetExtraHTTPHeaders(headers))
	}
	actions = append(actions,
		chromedp.Navigate(targetURL),
		chromedp.Location(&location),
	)

	logger.Debug("snapshot navigating", "url", targetURL, "wait_selector", waitSelector, "timeout", timeout)
	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		return result, s.failure(browserCtx, ctx, targetURL, err)
	}
	if fetcher.IsLoginURL(location) {
		result.URL = location
		return result, fmt.Errorf("%w: redirected to %s", fetcher.ErrLoginRequired, location)
	}

	capture := []chromedp.Action{chromedp.WaitReady(waitSelector, chromedp.ByQuery)}
	if opts.WaitDuration > 0 {
		capture = append(capture, chromedp.Sleep(opts.WaitDuration))
	}
	capture = append(capture,
		chromedp.Title(&title),
		chromedp.Location(&location),
		chromedp.Evaluate(stampScript, &markup),
	)
	if err := chromedp.Run(timeoutCtx, capture...); err != nil {
		return result, s.failure(browserCtx, ctx, targetURL, err)
	}

	if opts.MaxBodySize > 0 && int64(len(markup)) > opts.MaxBodySize {
		return result, fmt.Errorf("snapshot of %s is %d bytes, limit %d", targetURL, len(markup), opts.MaxBodySize)
	}

	result.URL = location
	result.HTML = markup
	result.Title = title
	result.StatusCode = 200 // chromedp doesn't easily expose status codes
	result.ContentType = "text/html"
	result.Stamped = strings.Contains(markup, "data-xport-box")

	logger.Debug("snapshot complete",
		"url", location,
		"title", title,
		"html_size", len(markup))

	return result, nil
}

// failure classifies a browser error and, when debugging, keeps a
// screenshot of the page state.
func (s *Snapshotter) failure(browserCtx, callerCtx context.Context, targetURL string, err error) error {
	if shot := captureScreenshot(browserCtx); shot != nil {
		path := filepath.Join(os.TempDir(), fmt.Sprintf("chatxport-debug-%d.png", time.Now().UnixNano()))
		if writeErr := os.WriteFile(path, shot, 0o644); writeErr == nil {
			logger.Debug("debug screenshot saved", "path", path)
		}
	}
	if callerErr := callerCtx.Err(); callerErr != nil {
		return callerErr
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "deadline exceeded") {
		return fmt.Errorf("%w: conversation did not render within the timeout", ErrRenderTimeout)
	}
	return fmt.Errorf("browser automation failed for %s: %w", targetURL, err)
}

// ErrRenderTimeout indicates the wait selector never appeared.
var ErrRenderTimeout = errors.New("render timeout")

// captureScreenshot returns a screenshot, or nil if the browser cannot
// produce one.
func captureScreenshot(ctx context.Context) []byte {
	var screenshot []byte
	captureCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := chromedp.Run(captureCtx, chromedp.CaptureScreenshot(&screenshot)); err != nil {
		return nil
	}
	return screenshot
}

// Close releases browser resources.
func (s *Snapshotter) Close() error {
	if s.cancelCtx != nil {
		s.cancelCtx()
	}
	return nil
}

// Type returns the fetcher type.
func (s *Snapshotter) Type() string {
	return "dynamic"
}

// setCookies returns a chromedp action that sets cookies before navigation.
func setCookies(targetURL string, cookies []fetcher.Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		u, err := url.Parse(targetURL)
		if err != nil {
			return fmt.Errorf("failed to parse URL for cookies: %w", err)
		}

		params := make([]*network.CookieParam, 0, len(cookies))
		for _, c := range cookies {
			params = append(params, cookieParam(u, c))
		}
		return network.SetCookies(params).Do(ctx)
	})
}

func cookieParam(u *url.URL, c fetcher.Cookie) *network.CookieParam {
	domain := c.Domain
	if domain == "" {
		domain = u.Hostname()
	}
	path := c.Path
	if path == "" {
		path = "/"
	}
	return &network.CookieParam{
		Name:   c.Name,
		Value:  c.Value,
		Domain: domain,
		Path:   path,
		Secure: u.Scheme == "https",
	}
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
