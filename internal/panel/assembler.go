package panel

import (
	"context"
	"fmt"

	"github.com/dusk-indust/agentroom/internal/llm"
	"github.com/dusk-indust/agentroom/internal/roles"
	"go.uber.org/zap"
)

// ClientFactory builds the completion client shared by one panel.
type ClientFactory func(ctx context.Context) (llm.Client, error)

// EndpointClientFactory returns a factory that builds a client for ep on
// every call, logging the endpoint each time.
func EndpointClientFactory(ep llm.Endpoint, logger *zap.Logger) ClientFactory {
	return func(ctx context.Context) (llm.Client, error) {
		return llm.NewClient(ctx, ep, logger)
	}
}

// StaticClientFactory always returns c.
func StaticClientFactory(c llm.Client) ClientFactory {
	return func(context.Context) (llm.Client, error) { return c, nil }
}

// Assembler builds panels from a role registry and a client factory.
type Assembler struct {
	registry  *roles.Registry
	newClient ClientFactory
}

// NewAssembler creates an Assembler. A nil registry uses the defaults.
func NewAssembler(registry *roles.Registry, newClient ClientFactory) *Assembler {
	if registry == nil {
		registry = roles.DefaultRegistry()
	}
	return &Assembler{registry: registry, newClient: newClient}
}

// Assemble builds a panel: the Moderator first, then each enabled expert in
// first-occurrence order. Unknown names, duplicates and "Moderator" are
// dropped. All participants share one client.
func (a *Assembler) Assemble(ctx context.Context, mode string, enabled []string) (*Panel, error) {
	client, err := a.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("panel: build completion client: %w", err)
	}

	m := roles.ParseMode(mode)
	p := &Panel{Mode: m}
	p.Participants = append(p.Participants,
		NewParticipant(roles.RoleModerator, a.registry.DirectiveFor(roles.RoleModerator, m), client))

	seen := map[roles.Role]bool{roles.RoleModerator: true}
	for _, name := range enabled {
		role, ok := roles.Lookup(name)
		if !ok || seen[role] {
			continue
		}
		seen[role] = true
		p.Participants = append(p.Participants,
			NewParticipant(role, a.registry.DirectiveFor(role, m), client))
	}
	return p, nil
}
