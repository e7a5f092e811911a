package main

import (
	"context"

	"github.com/aretw0/history/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP session server",
	Long:  `Exposes session histories over a JSON API, with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		addr, _ := cmd.Flags().GetString("addr")

		sigCtx, stop := cli.SignalContext(context.Background())
		defer stop()

		return cli.Serve(sigCtx, stack, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (defaults to http.addr from the config)")
}
