package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/evalctl/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "evalctl %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
