// ABOUTME: MCP server subcommand
// ABOUTME: Serves the campaign tools and resources over stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/outbound/handlers"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, env *Env, _ []string) error {
	env.Log.Info("starting MCP server", "version", env.Version)
	server := handlers.NewServer(env.Engine, env.Version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
