package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chatxport/internal/output"
	"github.com/jmylchreest/chatxport/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		short, _ := cmd.Flags().GetBool("short")
		if short {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		}

		outStr, _ := cmd.Flags().GetString("output")
		if outStr == "" {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return err
		}
		format, err := output.ParseFormat(outStr)
		if err != nil {
			return err
		}
		return output.Print(cmd.OutOrStdout(), format, version.Get())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().Bool("short", false, "print only the version")
	versionCmd.Flags().String("output", "", "print as json or yaml")
}
