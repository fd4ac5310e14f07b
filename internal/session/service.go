// Package session manages conversation sessions: creating them, reading
// their transcripts and appending panel rounds.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/agentroom/internal/history"
	"github.com/dusk-indust/agentroom/internal/panel"
	"github.com/dusk-indust/agentroom/internal/roles"
	"github.com/dusk-indust/agentroom/internal/transcript"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IDLength is the number of characters in a session ID.
const IDLength = 8

// RoundRequest is one user turn submitted to a session.
type RoundRequest struct {
	SessionID string
	Prompt    string
	Mode      string
	// Enabled lists expert role names in speaking order. Nil enables every
	// expert; an empty, non-nil slice runs the Moderator alone.
	Enabled []string
	OnTurn  func(panel.TurnEvent)
}

// Service owns the session lifecycle on top of a history store.
type Service struct {
	store  history.Store
	runner RoundRunner
	logger *zap.Logger
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithIDGenerator replaces the session ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService creates a Service.
func NewService(store history.Store, runner RoundRunner, opts ...Option) *Service {
	s := &Service{
		store:  store,
		runner: runner,
		logger: zap.NewNop(),
		newID:  NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a short random session ID.
func NewID() string {
	return uuid.NewString()[:IDLength]
}

// NewSession creates a session and persists its empty transcript before
// returning.
func (s *Service) NewSession(ctx context.Context) (string, []transcript.Entry, error) {
	id := s.newID()
	entries := []transcript.Entry{}
	if err := s.store.Save(ctx, id, entries); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info("session created", zap.String("session_id", id))
	return id, entries, nil
}

// History returns the persisted transcript, empty for unknown sessions.
func (s *Service) History(ctx context.Context, id string) ([]transcript.Entry, error) {
	entries, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return transcript.Clone(entries), nil
}

// RunRound validates the request, runs one panel round seeded with the
// session history, and persists history + user entry + round entries. On any
// failure nothing is persisted.
func (s *Service) RunRound(ctx context.Context, req RoundRequest) ([]transcript.Entry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prior, err := s.store.Load(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	enabled := req.Enabled
	if enabled == nil {
		enabled = roles.ExpertNames()
	}

	log := s.logger.With(zap.String("session_id", req.SessionID))
	log.Info("round started",
		zap.String("mode", string(roles.ParseMode(req.Mode))),
		zap.Strings("enabled", enabled),
		zap.Int("history_len", len(prior)))

	added, err := s.runner.RunPanelRound(ctx, PanelRequest{
		Prompt:  req.Prompt,
		Mode:    req.Mode,
		Enabled: enabled,
		History: transcript.Clone(prior),
		OnTurn:  req.OnTurn,
	})
	if err != nil {
		log.Error("round failed", zap.Error(err))
		return nil, &UpstreamError{Err: err}
	}

	full := make([]transcript.Entry, 0, len(prior)+1+len(added))
	full = append(full, prior...)
	full = append(full, transcript.UserEntry(req.Prompt))
	full = append(full, added...)

	if err := s.store.Save(ctx, req.SessionID, full); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	log.Info("round saved", zap.Int("new_entries", len(added)), zap.Int("history_len", len(full)))
	return full, nil
}

// Validate reports the first problem with req as a *ValidationError.
func (req RoundRequest) Validate() error {
	if strings.TrimSpace(req.SessionID) == "" {
		return &ValidationError{Err: ErrMissingSession}
	}
	if err := history.ValidateID(req.SessionID); err != nil {
		return &ValidationError{Err: err}
	}
	if req.Prompt == "" {
		return &ValidationError{Err: ErrEmptyPrompt}
	}
	return nil
}
