package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/history"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of history",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "history version %s\n", strings.TrimSpace(history.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
