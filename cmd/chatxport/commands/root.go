// Package commands implements the CLI commands for chatxport.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/chatxport/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "chatxport",
	Short: "Export AI chat conversations to Markdown, HTML or text",
	Long: `Chatxport turns a rendered chat conversation into a document.

It finds the human and assistant turns on the page, converts each turn
to Markdown, sanitized HTML or plain text, and writes a single file named
after the platform and date.

Examples:
  # Export a live conversation using a signed-in Chrome profile
  chatxport export -u "https://claude.ai/chat/..." \
      --user-data-dir ~/.config/chatxport/chrome

  # Export a saved snapshot as HTML
  chatxport export -i conversation.html -f html -o exports/

  # Show which messages were detected
  chatxport inspect -i conversation.html --output table`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.chatxport.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".chatxport")
		viper.SetConfigType("yaml")
	}

	// Environment variables, e.g. CHATXPORT_FETCH_USER_DATA_DIR
	viper.SetEnvPrefix("CHATXPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

// initLogger configures logging from the global flags.
func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
}

// loadConfig merges the running command's flags into the configuration.
func loadConfig(cmd *cobra.Command) (Config, error) {
	v := viper.GetViper()
	bindFlags(v, cmd.Flags())
	cfg, err := decodeConfig(v)
	if err != nil {
		return cfg, err
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "file", used)
	}
	return cfg, nil
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
