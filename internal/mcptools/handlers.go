package mcptools

import (
	"context"

	"github.com/dusk-indust/agentroom/internal/session"
	"github.com/dusk-indust/agentroom/internal/transcript"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Sessions is the session behaviour the tools need.
type Sessions interface {
	NewSession(ctx context.Context) (string, []transcript.Entry, error)
	History(ctx context.Context, id string) ([]transcript.Entry, error)
	RunRound(ctx context.Context, req session.RoundRequest) ([]transcript.Entry, error)
}

// SessionTools handles MCP tool calls against a session service.
type SessionTools struct {
	sessions    Sessions
	defaultMode string
	logger      *zap.Logger
}

// NewSessionTools creates SessionTools. An empty defaultMode leaves mode
// selection to the service.
func NewSessionTools(sessions Sessions, defaultMode string, logger *zap.Logger) *SessionTools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionTools{sessions: sessions, defaultMode: defaultMode, logger: logger}
}

// NewSession creates an empty session.
func (t *SessionTools) NewSession(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ NewSessionInput,
) (*mcp.CallToolResult, NewSessionOutput, error) {
	id, entries, err := t.sessions.NewSession(ctx)
	if err != nil {
		return nil, NewSessionOutput{}, err
	}
	return nil, NewSessionOutput{SessionID: id, Messages: transcript.Clone(entries)}, nil
}

// GetHistory returns a session's transcript. Unknown sessions are empty.
func (t *SessionTools) GetHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetHistoryInput,
) (*mcp.CallToolResult, GetHistoryOutput, error) {
	entries, err := t.sessions.History(ctx, input.SessionID)
	if err != nil {
		return nil, GetHistoryOutput{}, err
	}
	return nil, GetHistoryOutput{SessionID: input.SessionID, Messages: transcript.Clone(entries)}, nil
}

// RunRound runs one panel round and returns the updated transcript.
func (t *SessionTools) RunRound(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunRoundInput,
) (*mcp.CallToolResult, RunRoundOutput, error) {
	mode := input.Mode
	if mode == "" {
		mode = t.defaultMode
	}

	entries, err := t.sessions.RunRound(ctx, session.RoundRequest{
		SessionID: input.SessionID,
		Prompt:    input.UserPrompt,
		Mode:      mode,
		Enabled:   input.EnabledAgents,
	})
	if err != nil {
		t.logger.Warn("run_round tool failed",
			zap.String("session_id", input.SessionID),
			zap.Error(err))
		return nil, RunRoundOutput{}, err
	}

	return nil, RunRoundOutput{
		SessionID: input.SessionID,
		Messages:  transcript.Clone(entries),
		Added:     roundLength(entries),
	}, nil
}

// roundLength counts the entries from the last user prompt to the end, which
// is what the round just appended.
func roundLength(entries []transcript.Entry) int {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Role == transcript.RoleUser {
			return len(entries) - i
		}
	}
	return 0
}
