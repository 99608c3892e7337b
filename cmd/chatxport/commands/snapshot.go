package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatxport/internal/logger"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save a conversation page with layout stamps",
	Long: `Snapshot renders a conversation in Chrome and saves its markup with
every element's layout box stamped on it. The file can be exported or
inspected later, offline, with full layout information.

Examples:
  chatxport snapshot -u "https://claude.ai/chat/..." -o chat.html \
      --user-data-dir ~/chrome-profile`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	flags := snapshotCmd.Flags()
	flags.StringP("url", "u", "", "conversation URL (required)")
	flags.StringP("output", "o", "-", "file to write the snapshot to, - for stdout")
	addFetchFlags(flags)

	_ = snapshotCmd.MarkFlagRequired("url")
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	target, _ := cmd.Flags().GetString("url")

	f, err := cfg.NewFetcher(modeDynamic)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	opts, err := cfg.FetchOptions()
	if err != nil {
		return err
	}

	content, err := f.Fetch(ctx, target, opts)
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" || outPath == "-" {
		_, err := cmd.OutOrStdout().Write([]byte(content.HTML))
		return err
	}
	if err := os.WriteFile(outPath, []byte(content.HTML), 0o644); err != nil { //#nosec G306 -- snapshot is a user document
		logger.Error("failed to write snapshot", "path", outPath, "error", err)
		return err
	}

	logger.Debug("snapshot written", "url", content.URL, "title", content.Title, "stamped", content.Stamped)
	logInfo("Saved %s (%s)", outPath, humanize.Bytes(uint64(len(content.HTML))))
	return nil
}
