package commands

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatxport/internal/logger"
	"github.com/jmylchreest/chatxport/internal/output"
	"github.com/jmylchreest/chatxport/pkg/chatxport"
)

var exportCmd = &cobra.Command{
	Use:   "export [file|-]",
	Short: "Export a conversation to a document",
	Long: `Export a chat conversation to Markdown, HTML or plain text.

The conversation comes from a URL, a saved HTML file or stdin. URLs are
rendered in Chrome by default so the layout fallback has geometry to
work with; saved files only have geometry if they were captured with
'chatxport snapshot'.

The document is written to the output directory as
ai-conversation-<platform>-<date>.<ext>, or to stdout with --stdout.

Examples:
  # Export a live conversation
  chatxport export -u "https://claude.ai/chat/..." --user-data-dir ~/chrome-profile

  # Export a snapshot as HTML and report the result as JSON
  chatxport export snapshot.html -f html -o exports/ --result json

  # Pipe a page through, forcing the platform
  cat page.html | chatxport export - --platform claude --stdout`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	flags := exportCmd.Flags()

	addSourceFlags(flags)

	// Output settings
	flags.StringP("format", "f", "markdown", "document format: markdown, html, text")
	flags.StringP("output-dir", "o", ".", "directory to write the document to")
	flags.Bool("stdout", false, "write the document to stdout instead of a file")
	flags.String("result", "", "print the export result as json or yaml")

	// Conversion settings
	flags.String("platform", "", "platform tag, overrides detection from the page URL")
	flags.Bool("allow-unsupported", false, "export from platforms without tuned selectors")
	flags.String("normalizer", "builtin", "Markdown converter: builtin, library")
	flags.Bool("safe-html", true, "apply the bluemonday safety policy to HTML exports")
}

func runExport(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Debug("export command starting")

	resultFormat, err := resultFormatFlag(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	toStdout, _ := cmd.Flags().GetBool("stdout")

	report := func(resp chatxport.Response) error {
		if resultFormat != "" {
			w := cmd.OutOrStdout()
			if toStdout {
				w = cmd.ErrOrStderr()
			}
			if err := output.Print(w, resultFormat, resp); err != nil {
				return err
			}
		}
		if !resp.Success {
			return errors.New(resp.Error)
		}
		return nil
	}

	target, err := sourceTarget(cmd, args)
	if err != nil {
		return err
	}

	_, p, err := acquire(ctx, cmd, cfg, target)
	if err != nil {
		return report(chatxport.Response{Error: err.Error()})
	}

	opts, err := cfg.ExporterOptions()
	if err != nil {
		return err
	}

	dir := chatxport.DirSaver{Dir: cfg.OutputDir}
	var saver chatxport.Saver = dir
	if toStdout {
		saver = chatxport.WriterSaver{W: cmd.OutOrStdout()}
	}

	e := chatxport.New(append(opts, chatxport.WithSaver(saver))...)
	resp := e.Handle(ctx, p, chatxport.Request{
		Action: chatxport.ActionExport,
		Format: cfg.Format,
	})

	if err := report(resp); err != nil {
		return err
	}
	if !toStdout {
		logInfo("Exported %s", dir.Path(resp.Filename))
	}
	return nil
}

// resultFormatFlag validates --result. Only json and yaml describe a
// single response.
func resultFormatFlag(cmd *cobra.Command) (output.Format, error) {
	s, _ := cmd.Flags().GetString("result")
	if s == "" {
		return "", nil
	}
	f, err := output.ParseFormat(s)
	if err != nil {
		return "", err
	}
	if f != output.FormatJSON && f != output.FormatYAML {
		return "", fmt.Errorf("unsupported result format: %s (use json or yaml)", s)
	}
	return f, nil
}
