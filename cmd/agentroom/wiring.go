package main

import (
	"fmt"

	"github.com/dusk-indust/agentroom/internal/config"
	"github.com/dusk-indust/agentroom/internal/history"
	"github.com/dusk-indust/agentroom/internal/llm"
	"github.com/dusk-indust/agentroom/internal/mcptools"
	"github.com/dusk-indust/agentroom/internal/panel"
	"github.com/dusk-indust/agentroom/internal/roles"
	"github.com/dusk-indust/agentroom/internal/session"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// services is everything a subcommand needs once config is loaded.
type services struct {
	store    history.Store
	sessions *session.Service
}

func (s *services) Close() error {
	return s.store.Close()
}

// buildServices opens the history store and assembles the round pipeline.
// The completion endpoint is resolved once from the environment here.
func buildServices(cfg *config.Config, env llm.Env, logger *zap.Logger) (*services, error) {
	store, err := history.Open(history.Options{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	logger.Info("history store opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("path", cfg.Storage.Path))

	endpoint := llm.ResolveEndpoint(env)
	assembler := panel.NewAssembler(
		roles.NewRegistry(cfg.Roles.Directives),
		panel.EndpointClientFactory(endpoint, logger),
	)
	engine := panel.NewEngine(panel.WithLogger(logger.Named("engine")))
	runner := session.NewPanelRunner(assembler, engine, cfg.Panel.TurnCap, cfg.Panel.HistoryWindow)

	return &services{
		store:    store,
		sessions: session.NewService(store, runner, session.WithLogger(logger.Named("session"))),
	}, nil
}

func (s *services) mcpServer(cfg *config.Config, logger *zap.Logger) *mcp.Server {
	return mcptools.NewServer(mcptools.NewSessionTools(s.sessions, cfg.Panel.DefaultMode, logger.Named("mcp")))
}
