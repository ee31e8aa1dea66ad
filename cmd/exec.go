package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/evalctl/internal/session"
)

var (
	execCode       string
	execLoadConfig bool
)

var execCmd = &cobra.Command{
	Use:   "exec [file]",
	Short: "Evaluate a file, an expression or standard input",
	Long: `Evaluate input as a single submission and exit. The input comes from -e,
from the named file, or from standard input when neither is given or the
file is '-'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(cmd.InOrStdin(), execCode, cmd.Flags().Changed("eval"), args)
		if err != nil {
			return err
		}

		sess, _, err := newSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		r := newRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr())
		if execLoadConfig {
			if err := submit(sess, r, ":load-config"); err != nil {
				return errors.Join(errReported, err)
			}
		}
		if err := submit(sess, r, input); err != nil && !errors.Is(err, session.ErrQuit) {
			return errors.Join(errReported, err)
		}
		return nil
	},
}

func init() {
	execCmd.Flags().StringVarP(&execCode, "eval", "e", "", "Code to evaluate")
	execCmd.Flags().BoolVar(&execLoadConfig, "load-config", false, "Run :load-config first")
	rootCmd.AddCommand(execCmd)
}

// readInput returns the code given inline, or the content of the file
// named in args, or standard input.
func readInput(stdin io.Reader, inline string, hasInline bool, args []string) (string, error) {
	if hasInline {
		if len(args) > 0 {
			return "", fmt.Errorf("cannot combine -e with a file argument")
		}
		return inline, nil
	}
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
