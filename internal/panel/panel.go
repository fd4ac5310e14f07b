// Package panel assembles expert panels and drives them through a
// round-robin conversation.
package panel

import (
	"context"
	"fmt"

	"github.com/dusk-indust/agentroom/internal/llm"
	"github.com/dusk-indust/agentroom/internal/roles"
	"github.com/dusk-indust/agentroom/internal/transcript"
)

// TaskSource is the speaker recorded for the kickoff message inside a round.
const TaskSource = "user"

// Participant is a role bound to a directive and a completion client for the
// duration of one round.
type Participant struct {
	Role      roles.Role
	Directive string
	client    llm.Client
}

// NewParticipant binds role and directive to client.
func NewParticipant(role roles.Role, directive string, client llm.Client) *Participant {
	return &Participant{Role: role, Directive: directive, client: client}
}

// Name returns the participant's speaker name.
func (p *Participant) Name() string {
	return string(p.Role)
}

// Speak produces the participant's next utterance given everything said so
// far in the round.
func (p *Participant) Speak(ctx context.Context, inRound []transcript.TextUtterance) (transcript.TextUtterance, error) {
	text, err := p.client.Complete(ctx, p.Directive, p.perspective(inRound))
	if err != nil {
		return transcript.TextUtterance{}, fmt.Errorf("%s: %w", p.Role, err)
	}
	return transcript.TextUtterance{Source: p.Name(), Content: text}, nil
}

// perspective renders the in-round transcript as seen by p: its own turns
// are assistant messages, everyone else's are named user messages.
func (p *Participant) perspective(inRound []transcript.TextUtterance) []llm.Message {
	out := make([]llm.Message, len(inRound))
	for i, u := range inRound {
		if u.Source == p.Name() {
			out[i] = llm.Message{Role: llm.RoleAssistant, Content: u.Content}
			continue
		}
		out[i] = llm.Message{Role: llm.RoleUser, Name: u.Source, Content: u.Content}
	}
	return out
}

// Panel is the ordered participant list for one round. The Moderator is
// always first.
type Panel struct {
	Mode         roles.Mode
	Participants []*Participant
}

// Len returns the number of participants.
func (p *Panel) Len() int {
	return len(p.Participants)
}

// Names returns the participant names in turn order.
func (p *Panel) Names() []string {
	out := make([]string, len(p.Participants))
	for i, pt := range p.Participants {
		out[i] = pt.Name()
	}
	return out
}
