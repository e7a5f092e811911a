package main

import (
	"context"

	"github.com/aretw0/history/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [script.yaml]",
	Short: "Run a navigation script or read commands from stdin",
	Long: `Without arguments, reads commands (push /a, replace /b, go -1, back, forward,
block <message>, unblock, location) line by line and prints each resulting location.
With a script argument, replays the YAML script and prints a report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		opts := cli.RunOptions{
			Input:  cmd.InOrStdin(),
			Output: cmd.OutOrStdout(),
		}
		if len(args) > 0 {
			opts.ScriptPath = args[0]
		}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.Pretty, _ = cmd.Flags().GetBool("pretty")
		opts.Format, _ = cmd.Flags().GetString("format")

		sigCtx, stop := cli.SignalContext(context.Background())
		defer stop()

		return cli.Execute(sigCtx, stack, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, abort on first error)")
	runCmd.Flags().StringP("session", "s", "", "Resume and persist the named session")
	runCmd.Flags().Bool("pretty", false, "Render the script report as styled Markdown")
	runCmd.Flags().StringP("format", "f", cli.FormatMarkdown, "Script report format (markdown, mermaid, json)")
}
