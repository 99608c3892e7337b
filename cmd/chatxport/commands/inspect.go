package commands

import (
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatxport/internal/logger"
	"github.com/jmylchreest/chatxport/internal/output"
	"github.com/jmylchreest/chatxport/pkg/platform"
	"github.com/jmylchreest/chatxport/pkg/segment"
)

const previewLength = 60

// messageRow is one detected message in the inspect report.
type messageRow struct {
	Order   int    `json:"order" yaml:"order"`
	Speaker string `json:"speaker" yaml:"speaker"`
	Parts   int    `json:"parts" yaml:"parts"`
	Box     string `json:"box,omitempty" yaml:"box,omitempty"`
	Chars   int    `json:"chars" yaml:"chars"`
	Preview string `json:"preview" yaml:"preview"`
}

func (r messageRow) Columns() []string {
	return []string{"#", "SPEAKER", "PARTS", "BOX", "CHARS", "PREVIEW"}
}

func (r messageRow) Row() []string {
	return []string{
		strconv.Itoa(r.Order),
		r.Speaker,
		strconv.Itoa(r.Parts),
		r.Box,
		humanize.Comma(int64(r.Chars)),
		r.Preview,
	}
}

// inspectReport is the full inspect result for json and yaml output.
type inspectReport struct {
	URL      string        `json:"url,omitempty" yaml:"url,omitempty"`
	Platform platform.Info `json:"platform" yaml:"platform"`
	Model    string        `json:"model" yaml:"model"`
	Strategy string        `json:"strategy" yaml:"strategy"`
	Layout   bool          `json:"layout" yaml:"layout"`
	Messages []messageRow  `json:"messages" yaml:"messages"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [file|-]",
	Short: "List the messages detected on a conversation page",
	Long: `Inspect runs message detection without exporting and prints what it
found: speaker, layout box and a preview of each message, plus the
detection strategy that produced them.

Table and jsonl output list the messages; json and yaml output wrap them
with the page URL, platform and strategy.

Examples:
  chatxport inspect snapshot.html
  chatxport inspect -u "https://claude.ai/chat/..." --output yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	flags := inspectCmd.Flags()
	addSourceFlags(flags)
	flags.String("output", "table", "output format: table, json, jsonl, yaml")
	flags.String("platform", "", "platform tag, overrides detection from the page URL")
}

func runInspect(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outStr, _ := cmd.Flags().GetString("output")
	outFormat, err := output.ParseFormat(outStr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	target, err := sourceTarget(cmd, args)
	if err != nil {
		return err
	}

	_, p, err := acquire(ctx, cmd, cfg, target)
	if err != nil {
		return err
	}

	seg, err := segment.New(cfg.Segment)
	if err != nil {
		return err
	}
	res, err := seg.Segment(p.Root())
	if err != nil {
		return err
	}

	info := platform.Detect(p.URL())
	if cfg.Platform != "" {
		info = platform.Fixed(cfg.Platform)(p.URL())
	}

	report := inspectReport{
		URL:      p.URL(),
		Platform: info,
		Model:    platform.ModelVersion(p.Root()),
		Strategy: string(res.Strategy),
		Layout:   p.HasLayout(),
		Messages: rows(res.Messages),
	}
	logger.Debug("inspect complete",
		"platform", info.Tag,
		"strategy", report.Strategy,
		"messages", len(report.Messages))

	w, err := output.NewWriter(cmd.OutOrStdout(), outFormat)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	switch outFormat {
	case output.FormatTable, output.FormatJSONL:
		items := make([]any, len(report.Messages))
		for i, r := range report.Messages {
			items[i] = r
		}
		if err := w.WriteAll(items); err != nil {
			return err
		}
		logInfo("%d messages, strategy %s, platform %s", len(report.Messages), report.Strategy, info.Name)
	default:
		if err := w.Write(report); err != nil {
			return err
		}
	}
	return w.Flush()
}

func rows(messages []segment.Message) []messageRow {
	out := make([]messageRow, 0, len(messages))
	for _, m := range messages {
		texts := make([]string, 0, len(m.Parts))
		for _, part := range m.Parts {
			if t := strings.TrimSpace(part.Text()); t != "" {
				texts = append(texts, t)
			}
		}
		text := strings.Join(texts, " ")

		row := messageRow{
			Order:   m.Order,
			Speaker: m.Speaker.String(),
			Parts:   len(m.Parts),
			Chars:   utf8.RuneCountInString(text),
			Preview: preview(text),
		}
		if !m.Box.IsZero() {
			row.Box = m.Box.String()
		}
		out = append(out, row)
	}
	return out
}

// preview folds whitespace and shortens s to previewLength runes.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= previewLength {
		return s
	}
	r := []rune(s)
	return string(r[:previewLength-1]) + "…"
}
