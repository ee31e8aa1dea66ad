package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	completeCode string
	completePos  int
)

var completeCmd = &cobra.Command{
	Use:   "complete [file]",
	Short: "Print completion candidates for a position in the input",
	Long: `Print the replaced byte range, then one candidate per line. --pos is a byte
offset into the input; -1 means the end. Meta-commands in the input are
considered: dependencies they declare are offered as completions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readInput(cmd.InOrStdin(), completeCode, cmd.Flags().Changed("eval"), args)
		if err != nil {
			return err
		}
		pos := completePos
		if pos < 0 || pos > len(src) {
			pos = len(src)
		}

		sess, _, err := newSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		c, err := sess.Completions(src, pos)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d %d\n", c.StartOffset, c.EndOffset)
		for _, item := range c.Items {
			fmt.Fprintln(out, item.Code)
		}
		return nil
	},
}

func init() {
	completeCmd.Flags().StringVarP(&completeCode, "eval", "e", "", "Input to complete")
	completeCmd.Flags().IntVar(&completePos, "pos", -1, "Byte offset to complete at")
	rootCmd.AddCommand(completeCmd)
}
