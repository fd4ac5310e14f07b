package main

import (
	"os/signal"
	"syscall"

	"github.com/dusk-indust/agentroom/internal/llm"
	"github.com/dusk-indust/agentroom/internal/mcptools"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the session tools over MCP on stdio",
		Long: `Runs an MCP server on stdin/stdout exposing new_session, get_history and
run_round. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := buildServices(a.cfg, llm.OSEnv(), a.logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			a.logger.Info("mcp server starting on stdio")
			return mcptools.RunStdio(ctx, svc.mcpServer(a.cfg, a.logger))
		},
	}
}
