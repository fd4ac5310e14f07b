package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dusk-indust/agentroom/internal/panel"
	"github.com/dusk-indust/agentroom/internal/session"
	"github.com/dusk-indust/agentroom/internal/transcript"
	"go.uber.org/zap"
)

// RunRoundRequest is the body of POST /api/run_round.
type RunRoundRequest struct {
	SessionID     string   `json:"session_id"`
	UserPrompt    string   `json:"user_prompt"`
	Mode          string   `json:"mode,omitempty"`
	EnabledAgents []string `json:"enabled_agents,omitempty"`
}

// SessionResponse is returned by POST /api/new_session.
type SessionResponse struct {
	SessionID string             `json:"session_id"`
	Messages  []transcript.Entry `json:"messages"`
}

// MessagesResponse carries a full transcript.
type MessagesResponse struct {
	Messages []transcript.Entry `json:"messages"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	id, entries, err := s.sessions.NewSession(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, Messages: transcript.Clone(entries)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.sessions.History(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessagesResponse{Messages: transcript.Clone(entries)})
}

func (s *Server) handleRunRound(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRound(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	entries, err := s.sessions.RunRound(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessagesResponse{Messages: transcript.Clone(entries)})
}

// handleRunRoundStream runs a round and reports each turn as it happens.
// Validation problems are still reported as plain 422 responses; once the
// stream starts, failures arrive as an error event.
func (s *Server) handleRunRoundStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRound(w, r)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	sw := NewSSEWriter(w)
	sw.Init()

	log := s.logger.With(zap.String("session_id", req.SessionID))
	req.OnTurn = func(ev panel.TurnEvent) {
		if err := sw.WriteEvent(StreamEvent{Type: EventTurn, Turn: &ev}); err != nil {
			log.Debug("stream write failed", zap.Error(err))
		}
	}

	entries, err := s.sessions.RunRound(r.Context(), req)
	if err != nil {
		_, detail := s.classify(err)
		if werr := sw.WriteEvent(StreamEvent{Type: EventError, Detail: detail}); werr != nil {
			log.Debug("stream write failed", zap.Error(werr))
		}
		return
	}
	if err := sw.WriteEvent(StreamEvent{Type: EventDone, Messages: transcript.Clone(entries)}); err != nil {
		log.Debug("stream write failed", zap.Error(err))
	}
}

func (s *Server) decodeRound(w http.ResponseWriter, r *http.Request) (session.RoundRequest, error) {
	var body RunRoundRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return session.RoundRequest{}, &session.ValidationError{Err: fmt.Errorf("malformed request body: %w", err)}
	}

	mode := body.Mode
	if mode == "" {
		mode = s.defaultMode
	}
	return session.RoundRequest{
		SessionID: body.SessionID,
		Prompt:    body.UserPrompt,
		Mode:      mode,
		Enabled:   body.EnabledAgents,
	}, nil
}

// classify maps an error to an HTTP status and client-facing detail.
func (s *Server) classify(err error) (int, string) {
	var ve *session.ValidationError
	var ue *session.UpstreamError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ve.Err.Error()
	case errors.As(err, &ue):
		return http.StatusBadGateway, ue.Error()
	default:
		s.logger.Error("request failed", zap.Error(err))
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, detail := s.classify(err)
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
