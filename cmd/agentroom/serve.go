package main

import (
	"context"
	"errors"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/dusk-indust/agentroom/internal/api"
	"github.com/dusk-indust/agentroom/internal/llm"
	"github.com/dusk-indust/agentroom/internal/mcptools"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr string
		mcp  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API over HTTP",
		Long: `Serves the session API:
  POST /api/new_session
  GET  /api/history/{id}
  POST /api/run_round
  POST /api/run_round/stream   (server-sent events)
  GET  /healthz
With --mcp the MCP tools are also served at /mcp.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return a.serve(ctx, ln, mcp || a.cfg.Server.MCP)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8000)")
	cmd.Flags().BoolVar(&mcp, "mcp", false, "also serve MCP tools at /mcp")
	return cmd
}

// serve runs the HTTP server on ln until ctx is cancelled, then shuts down
// gracefully.
func (a *app) serve(ctx context.Context, ln net.Listener, withMCP bool) error {
	svc, err := buildServices(a.cfg, llm.OSEnv(), a.logger)
	if err != nil {
		ln.Close()
		return err
	}
	defer svc.Close()

	opts := []api.Option{
		api.WithLogger(a.logger.Named("http")),
		api.WithDefaultMode(a.cfg.Panel.DefaultMode),
	}
	if withMCP {
		opts = append(opts, api.WithMount("/mcp", mcptools.HTTPHandler(svc.mcpServer(a.cfg, a.logger))))
	}
	server := api.NewServer(svc.sessions, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}
