package panel

import (
	"context"
	"errors"
	"fmt"

	"github.com/dusk-indust/agentroom/internal/transcript"
	"go.uber.org/zap"
)

// DefaultTurnCap bounds the utterances produced in one round.
const DefaultTurnCap = 6

// ErrEmptyPanel is returned when a round is started without participants.
var ErrEmptyPanel = errors.New("panel: no participants")

// RoundError reports the turn that aborted a round.
type RoundError struct {
	Turn    int
	Speaker string
	Err     error
}

func (e *RoundError) Error() string {
	return fmt.Sprintf("round failed at turn %d (%s): %v", e.Turn, e.Speaker, e.Err)
}

func (e *RoundError) Unwrap() error { return e.Err }

// TurnEvent is emitted after each produced utterance.
type TurnEvent struct {
	Turn    int    `json:"turn"`
	Speaker string `json:"speaker"`
	Content string `json:"content"`
}

// StopCondition reports whether the round should end after u.
type StopCondition func(u transcript.TextUtterance) bool

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithStopCondition ends a round early when fn returns true.
func WithStopCondition(fn StopCondition) EngineOption {
	return func(e *Engine) { e.stop = fn }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// Engine runs round-robin rounds. It holds no per-round state and may be
// shared across concurrent rounds.
type Engine struct {
	stop   StopCondition
	logger *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunRound drives p in strict rotation starting at the Moderator until
// turnCap utterances exist or the stop condition fires. A turnCap <= 0 uses
// DefaultTurnCap. If any turn fails, no utterances are returned.
//
// onTurn, when non-nil, is called synchronously after every utterance.
func (e *Engine) RunRound(ctx context.Context, kickoff string, p *Panel, turnCap int, onTurn func(TurnEvent)) ([]transcript.Utterance, error) {
	if p == nil || p.Len() == 0 {
		return nil, ErrEmptyPanel
	}
	if turnCap <= 0 {
		turnCap = DefaultTurnCap
	}

	inRound := []transcript.TextUtterance{{Source: TaskSource, Content: kickoff}}
	out := make([]transcript.Utterance, 0, turnCap)

	for turn := 0; len(out) < turnCap; turn++ {
		speaker := p.Participants[turn%p.Len()]

		if err := ctx.Err(); err != nil {
			return nil, &RoundError{Turn: turn, Speaker: speaker.Name(), Err: err}
		}

		u, err := speaker.Speak(ctx, inRound)
		if err != nil {
			e.logger.Warn("turn failed",
				zap.Int("turn", turn),
				zap.String("speaker", speaker.Name()),
				zap.Error(err))
			return nil, &RoundError{Turn: turn, Speaker: speaker.Name(), Err: err}
		}

		inRound = append(inRound, u)
		out = append(out, u)

		e.logger.Debug("turn complete",
			zap.Int("turn", turn),
			zap.String("speaker", u.Source),
			zap.Int("content_len", len(u.Content)))
		if onTurn != nil {
			onTurn(TurnEvent{Turn: turn, Speaker: u.Source, Content: u.Content})
		}

		if e.stop != nil && e.stop(u) {
			break
		}
	}

	e.logger.Info("round complete",
		zap.Int("utterances", len(out)),
		zap.Strings("panel", p.Names()))
	return out, nil
}

// BuildKickoff prefixes the user prompt with rendered history context and the
// instruction that opens the discussion.
func BuildKickoff(contextBlock, prompt string) string {
	return contextBlock + "\n\nUSER PROMPT: " + prompt + "\n\nModerator, please start the panel discussion."
}
