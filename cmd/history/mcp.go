package main

import (
	"context"
	"fmt"

	"github.com/aretw0/history/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes session histories as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		sigCtx, stop := cli.SignalContext(context.Background())
		defer stop()

		switch transport {
		case "stdio":
			return cli.ServeMCP(sigCtx, stack, 0)
		case "sse":
			if port <= 0 {
				return fmt.Errorf("--port must be positive for sse")
			}
			return cli.ServeMCP(sigCtx, stack, port)
		default:
			return fmt.Errorf("unknown transport %q", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio, sse)")
	mcpCmd.Flags().Int("port", 8080, "Port for SSE server")
}
