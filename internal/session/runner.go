package session

import (
	"context"

	"github.com/dusk-indust/agentroom/internal/panel"
	"github.com/dusk-indust/agentroom/internal/transcript"
)

// RoundRunner produces the assistant entries for one round.
type RoundRunner interface {
	RunPanelRound(ctx context.Context, req PanelRequest) ([]transcript.Entry, error)
}

// PanelRequest is everything a runner needs for one round.
type PanelRequest struct {
	Prompt  string
	Mode    string
	Enabled []string
	History []transcript.Entry
	OnTurn  func(panel.TurnEvent)
}

// Compile-time interface check.
var _ RoundRunner = (*PanelRunner)(nil)

// PanelRunner wires the assembler, context formatter, engine and normalizer
// into one round.
type PanelRunner struct {
	assembler     *panel.Assembler
	engine        *panel.Engine
	turnCap       int
	historyWindow int
}

// NewPanelRunner creates a PanelRunner. Non-positive turnCap and
// historyWindow fall back to the package defaults.
func NewPanelRunner(assembler *panel.Assembler, engine *panel.Engine, turnCap, historyWindow int) *PanelRunner {
	if turnCap <= 0 {
		turnCap = panel.DefaultTurnCap
	}
	if historyWindow <= 0 {
		historyWindow = transcript.HistoryWindow
	}
	return &PanelRunner{
		assembler:     assembler,
		engine:        engine,
		turnCap:       turnCap,
		historyWindow: historyWindow,
	}
}

// RunPanelRound assembles a fresh panel and runs one round over it.
func (r *PanelRunner) RunPanelRound(ctx context.Context, req PanelRequest) ([]transcript.Entry, error) {
	p, err := r.assembler.Assemble(ctx, req.Mode, req.Enabled)
	if err != nil {
		return nil, err
	}

	kickoff := panel.BuildKickoff(transcript.FormatContextWindow(req.History, r.historyWindow), req.Prompt)
	utterances, err := r.engine.RunRound(ctx, kickoff, p, r.turnCap, req.OnTurn)
	if err != nil {
		return nil, err
	}
	return transcript.NormalizeAll(utterances), nil
}
