// Package mcptools exposes panel sessions as Model Context Protocol tools.
package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients. It is set by the linker at build time.
var Version = "dev"

// ServerName identifies this server to MCP clients.
const ServerName = "agentroom"

// NewServer creates an MCP server with the session tools registered:
// new_session, get_history and run_round.
func NewServer(tools *SessionTools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "new_session",
		Description: "Create a new panel session with an empty transcript. Returns the session id.",
	}, tools.NewSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_history",
		Description: "Return the full transcript of a session. Unknown sessions return an empty transcript.",
	}, tools.GetHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_round",
		Description: "Submit a prompt to a session. The Moderator and the enabled experts discuss it for one bounded round; the updated transcript is returned and persisted.",
	}, tools.RunRound)

	return server
}

// RunStdio serves on stdin/stdout until stdin closes or ctx is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves server over the streamable HTTP transport.
func HTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
}
