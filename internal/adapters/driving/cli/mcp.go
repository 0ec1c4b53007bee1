package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sessync/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can trigger
syncs and read the agent status.

By default, the server communicates over stdio using JSON-RPC. Use --port to
start an HTTP server instead.

Examples:
  # Stdio mode (default)
  sessync mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  sessync mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	return withAgent(cmd, func(ctx context.Context, agent driving.AgentService) error {
		server, err := mcp.NewServer(&mcp.Ports{Agent: agent}, version)
		if err != nil {
			return err
		}

		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(ctx, addr)
		}
		return server.Run(ctx)
	})
}
