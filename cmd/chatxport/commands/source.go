package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/chatxport/internal/logger"
	"github.com/jmylchreest/chatxport/pkg/fetcher"
	"github.com/jmylchreest/chatxport/pkg/page"
)

var errNoSource = errors.New("no conversation given: use --url, --input or a file argument")

// addSourceFlags registers the flags that locate and fetch a conversation.
func addSourceFlags(flags *pflag.FlagSet) {
	flags.StringP("url", "u", "", "conversation URL")
	flags.StringP("input", "i", "", "saved HTML file, or - for stdin")
	flags.String("fetch-mode", "", "fetch mode: file, static, dynamic (default: file for input, dynamic for URLs)")
	addFetchFlags(flags)
}

// addFetchFlags registers the flags shared by every fetch mode.
func addFetchFlags(flags *pflag.FlagSet) {
	flags.Duration("timeout", 60*time.Second, "fetch timeout")
	flags.String("user-data-dir", "", "Chrome profile directory holding a signed-in session")
	flags.Bool("headful", false, "show the browser window")
	flags.String("wait-selector", "", "CSS selector to wait for before capturing")
	flags.Duration("wait", 0, "extra wait after the selector appears")
	flags.StringArray("cookie", nil, `cookie to send, "name=value; domain=..." (can be repeated)`)
	flags.String("max-page-size", "10MB", "max page size (e.g., 5MB, 0=unlimited)")
}

// sourceTarget returns the URL, path or "-" named by flags or arguments.
func sourceTarget(cmd *cobra.Command, args []string) (string, error) {
	u, _ := cmd.Flags().GetString("url")
	in, _ := cmd.Flags().GetString("input")
	if len(args) > 0 {
		if u != "" || in != "" {
			return "", errors.New("give the conversation once: a file argument or --url/--input")
		}
		in = args[0]
	}

	switch {
	case u != "" && in != "":
		return "", errors.New("use either --url or --input, not both")
	case u != "":
		return u, nil
	case in != "":
		return in, nil
	default:
		return "", errNoSource
	}
}

// acquire fetches the conversation and parses it into a page.
func acquire(ctx context.Context, cmd *cobra.Command, cfg Config, target string) (fetcher.Content, *page.Page, error) {
	mode := cfg.ResolveMode(target)
	f, err := cfg.NewFetcher(mode)
	if err != nil {
		return fetcher.Content{}, nil, err
	}
	defer func() { _ = f.Close() }()

	if ff, ok := f.(*fetcher.FileFetcher); ok {
		ff.Stdin = cmd.InOrStdin()
	}

	opts, err := cfg.FetchOptions()
	if err != nil {
		return fetcher.Content{}, nil, err
	}

	logger.Debug("fetching conversation", "target", target, "mode", mode, "timeout", opts.Timeout)
	content, err := f.Fetch(ctx, target, opts)
	if err != nil {
		return content, nil, fmt.Errorf("fetch %s: %w", target, err)
	}

	p, err := content.Page()
	if err != nil {
		return content, nil, fmt.Errorf("parse %s: %w", target, err)
	}

	logger.Debug("page loaded",
		"source", content.Source,
		"url", p.URL(),
		"size", humanize.Bytes(uint64(len(content.HTML))),
		"layout", p.HasLayout())
	if !p.HasLayout() {
		logger.Debug("page has no layout stamps, layout fallback unavailable", "fetcher", f.Type())
	}
	return content, p, nil
}
