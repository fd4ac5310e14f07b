package mcptools

import "github.com/dusk-indust/agentroom/internal/transcript"

// --- MCP tool types ---
// These tools let an MCP client drive panel sessions without the HTTP API.

// NewSessionInput is the input for the new_session tool.
type NewSessionInput struct{}

// NewSessionOutput is the result of the new_session tool.
type NewSessionOutput struct {
	SessionID string             `json:"session_id"`
	Messages  []transcript.Entry `json:"messages"`
}

// GetHistoryInput is the input for the get_history tool.
type GetHistoryInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier returned by new_session"`
}

// GetHistoryOutput is the result of the get_history tool.
type GetHistoryOutput struct {
	SessionID string             `json:"session_id"`
	Messages  []transcript.Entry `json:"messages"`
}

// RunRoundInput is the input for the run_round tool.
type RunRoundInput struct {
	SessionID     string   `json:"session_id" jsonschema:"session identifier returned by new_session"`
	UserPrompt    string   `json:"user_prompt" jsonschema:"research idea or follow-up for the panel"`
	Mode          string   `json:"mode,omitempty" jsonschema:"FREESTYLE (default) or EVIDENCE"`
	EnabledAgents []string `json:"enabled_agents,omitempty" jsonschema:"experts to seat after the Moderator: BioExpert, AIExpert, Reviewer, GrantsWriter (default: all)"`
}

// RunRoundOutput is the result of the run_round tool.
type RunRoundOutput struct {
	SessionID string             `json:"session_id"`
	Messages  []transcript.Entry `json:"messages"`
	// Added counts the entries this round appended, user prompt included.
	Added int `json:"added"`
}
