// Package llm adapts an external text-completion endpoint behind a single
// Complete call.
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Message roles understood by Client implementations.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the history passed to a completion call.
type Message struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// Client returns one text completion for a directive and an ordered history.
// Implementations do not retry; transport and provider errors are returned
// unchanged apart from wrapping.
type Client interface {
	Complete(ctx context.Context, directive string, history []Message) (string, error)
}

// NewClient logs the resolved endpoint and builds the matching client.
func NewClient(ctx context.Context, ep Endpoint, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("connecting to completion endpoint",
		zap.String("provider", string(ep.Provider)),
		zap.String("base_url", ep.BaseURL),
		zap.String("model", ep.Model))

	switch ep.Provider {
	case ProviderGemini:
		return NewGenAIClient(ctx, ep)
	case ProviderOpenAICompatible, "":
		return NewOpenAIClient(ep), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", ep.Provider)
	}
}
