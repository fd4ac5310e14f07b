package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dusk-indust/agentroom/internal/llm"
	"github.com/dusk-indust/agentroom/internal/roles"
	"github.com/dusk-indust/agentroom/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// opencensus starts a stats worker at init, pulled in by the genai auth stack.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// ---------------------------------------------------------------------------
// Mock client
// ---------------------------------------------------------------------------

type call struct {
	directive string
	history   []llm.Message
}

// mockClient records every Complete call. complete, when set, decides the
// reply; otherwise the reply names the call number.
type mockClient struct {
	mu       sync.Mutex
	calls    []call
	complete func(n int, directive string, history []llm.Message) (string, error)
}

func (m *mockClient) Complete(ctx context.Context, directive string, history []llm.Message) (string, error) {
	m.mu.Lock()
	n := len(m.calls)
	hist := make([]llm.Message, len(history))
	copy(hist, history)
	m.calls = append(m.calls, call{directive: directive, history: hist})
	m.mu.Unlock()

	if m.complete != nil {
		return m.complete(n, directive, history)
	}
	return fmt.Sprintf("reply %d", n), nil
}

func (m *mockClient) Calls() []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]call(nil), m.calls...)
}

func assemble(t *testing.T, client llm.Client, mode string, enabled ...string) *Panel {
	t.Helper()
	p, err := NewAssembler(nil, StaticClientFactory(client)).Assemble(context.Background(), mode, enabled)
	require.NoError(t, err)
	return p
}

func speakers(us []transcript.Utterance) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.(transcript.TextUtterance).Source
	}
	return out
}

// ---------------------------------------------------------------------------
// Assembler
// ---------------------------------------------------------------------------

func TestAssemble_ModeratorOnly(t *testing.T) {
	p := assemble(t, &mockClient{}, "FREESTYLE")
	assert.Equal(t, []string{"Moderator"}, p.Names())
	assert.Equal(t, roles.ModeFreestyle, p.Mode)
}

func TestAssemble_DropsDuplicatesAndUnknowns(t *testing.T) {
	tests := []struct {
		enabled []string
		want    []string
	}{
		{
			enabled: []string{"Reviewer", "BioExpert", "Reviewer", "Wizard", "BioExpert"},
			want:    []string{"Moderator", "Reviewer", "BioExpert"},
		},
		{
			enabled: []string{"Moderator", "AIExpert", "moderator", "aiexpert"},
			want:    []string{"Moderator", "AIExpert"},
		},
		{
			enabled: []string{"GrantsWriter", "AIExpert", "Reviewer", "BioExpert", "GrantsWriter"},
			want:    []string{"Moderator", "GrantsWriter", "AIExpert", "Reviewer", "BioExpert"},
		},
		{
			enabled: []string{"", "  ", "Nobody"},
			want:    []string{"Moderator"},
		},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.enabled, ","), func(t *testing.T) {
			p := assemble(t, &mockClient{}, "freestyle", tt.enabled...)
			assert.Equal(t, tt.want, p.Names())
			assert.LessOrEqual(t, p.Len(), 5)
		})
	}
}

func TestAssemble_SharesOneClient(t *testing.T) {
	client := &mockClient{}
	builds := 0
	factory := func(context.Context) (llm.Client, error) {
		builds++
		return client, nil
	}

	p, err := NewAssembler(nil, factory).Assemble(context.Background(), "", roles.ExpertNames())
	require.NoError(t, err)
	assert.Equal(t, 1, builds)
	for _, pt := range p.Participants {
		assert.Same(t, client, pt.client)
	}
}

func TestAssemble_EvidenceDirectives(t *testing.T) {
	p := assemble(t, &mockClient{}, " evidence ", "BioExpert")
	require.Equal(t, 2, p.Len())
	assert.Equal(t, roles.ModeEvidence, p.Mode)
	for _, pt := range p.Participants {
		assert.True(t, strings.HasSuffix(pt.Directive, roles.EvidenceAddendum), pt.Role)
	}

	p = assemble(t, &mockClient{}, "EVIDENT", "BioExpert")
	for _, pt := range p.Participants {
		assert.NotContains(t, pt.Directive, "EVIDENCE MODE IS ACTIVE")
	}
}

func TestAssemble_RegistryOverrides(t *testing.T) {
	reg := roles.NewRegistry(map[string]string{"Moderator": "Chair briefly."})
	p, err := NewAssembler(reg, StaticClientFactory(&mockClient{})).Assemble(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Chair briefly.", p.Participants[0].Directive)
}

func TestAssemble_ClientFactoryError(t *testing.T) {
	boom := errors.New("no credentials")
	factory := func(context.Context) (llm.Client, error) { return nil, boom }

	p, err := NewAssembler(nil, factory).Assemble(context.Background(), "", nil)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, boom)
}

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

func TestRunRound_FullPanelWrapsRotation(t *testing.T) {
	client := &mockClient{}
	p := assemble(t, client, "", roles.ExpertNames()...)

	out, err := NewEngine().RunRound(context.Background(), "kick", p, 6, nil)
	require.NoError(t, err)

	require.Len(t, out, 6)
	assert.Equal(t,
		[]string{"Moderator", "BioExpert", "AIExpert", "Reviewer", "GrantsWriter", "Moderator"},
		speakers(out))
	assert.Len(t, client.Calls(), 6)
}

func TestRunRound_NeverExceedsTurnCap(t *testing.T) {
	experts := roles.ExpertNames()
	for size := 0; size <= len(experts); size++ {
		for turnCap := 1; turnCap <= 12; turnCap++ {
			client := &mockClient{}
			p := assemble(t, client, "", experts[:size]...)

			out, err := NewEngine().RunRound(context.Background(), "k", p, turnCap, nil)
			require.NoError(t, err)
			assert.Len(t, out, turnCap, "size=%d cap=%d", size, turnCap)
			assert.Equal(t, "Moderator", speakers(out)[0])
		}
	}
}

func TestRunRound_DefaultTurnCap(t *testing.T) {
	p := assemble(t, &mockClient{}, "", "BioExpert")

	out, err := NewEngine().RunRound(context.Background(), "k", p, 0, nil)
	require.NoError(t, err)
	assert.Len(t, out, DefaultTurnCap)
	assert.Equal(t, []string{"Moderator", "BioExpert", "Moderator", "BioExpert", "Moderator", "BioExpert"}, speakers(out))
}

func TestRunRound_EachTurnSeesWholeRound(t *testing.T) {
	client := &mockClient{}
	p := assemble(t, client, "", "BioExpert")

	_, err := NewEngine().RunRound(context.Background(), "the kickoff", p, 3, nil)
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 3)

	// Moderator opens with only the task.
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Name: TaskSource, Content: "the kickoff"}}, calls[0].history)

	// BioExpert sees the task and the moderator's reply as user messages.
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Name: TaskSource, Content: "the kickoff"},
		{Role: llm.RoleUser, Name: "Moderator", Content: "reply 0"},
	}, calls[1].history)
	assert.Equal(t, p.Participants[1].Directive, calls[1].directive)

	// Moderator's second turn sees its own first turn as assistant.
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Name: TaskSource, Content: "the kickoff"},
		{Role: llm.RoleAssistant, Content: "reply 0"},
		{Role: llm.RoleUser, Name: "BioExpert", Content: "reply 1"},
	}, calls[2].history)
}

func TestRunRound_FailureIsAtomic(t *testing.T) {
	boom := errors.New("401 unauthorized")
	client := &mockClient{complete: func(n int, _ string, _ []llm.Message) (string, error) {
		if n == 3 {
			return "", boom
		}
		return "ok", nil
	}}
	p := assemble(t, client, "", roles.ExpertNames()...)

	var events []TurnEvent
	out, err := NewEngine().RunRound(context.Background(), "k", p, 6, func(ev TurnEvent) {
		events = append(events, ev)
	})

	assert.Nil(t, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var re *RoundError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, re.Turn)
	assert.Equal(t, "Reviewer", re.Speaker)
	assert.Contains(t, err.Error(), "401 unauthorized")
	assert.Len(t, client.Calls(), 4, "no turns after the failure")
	assert.Len(t, events, 3)
}

func TestRunRound_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &mockClient{complete: func(n int, _ string, _ []llm.Message) (string, error) {
		if n == 1 {
			cancel()
		}
		return "ok", nil
	}}
	p := assemble(t, client, "", "BioExpert", "AIExpert")

	out, err := NewEngine().RunRound(ctx, "k", p, 6, nil)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, client.Calls(), 2)
}

func TestRunRound_StopCondition(t *testing.T) {
	client := &mockClient{complete: func(n int, _ string, _ []llm.Message) (string, error) {
		if n == 2 {
			return "That concludes the panel. TERMINATE", nil
		}
		return "more", nil
	}}
	p := assemble(t, client, "", roles.ExpertNames()...)
	engine := NewEngine(WithStopCondition(func(u transcript.TextUtterance) bool {
		return strings.Contains(u.Content, "TERMINATE")
	}))

	out, err := engine.RunRound(context.Background(), "k", p, 6, nil)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestRunRound_OnTurnEvents(t *testing.T) {
	p := assemble(t, &mockClient{}, "", "Reviewer")

	var events []TurnEvent
	_, err := NewEngine().RunRound(context.Background(), "k", p, 3, func(ev TurnEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	assert.Equal(t, []TurnEvent{
		{Turn: 0, Speaker: "Moderator", Content: "reply 0"},
		{Turn: 1, Speaker: "Reviewer", Content: "reply 1"},
		{Turn: 2, Speaker: "Moderator", Content: "reply 2"},
	}, events)
}

func TestRunRound_EmptyPanel(t *testing.T) {
	_, err := NewEngine().RunRound(context.Background(), "k", &Panel{}, 6, nil)
	assert.ErrorIs(t, err, ErrEmptyPanel)

	_, err = NewEngine().RunRound(context.Background(), "k", nil, 6, nil)
	assert.ErrorIs(t, err, ErrEmptyPanel)
}

func TestRunRound_ConcurrentRoundsDoNotShareState(t *testing.T) {
	engine := NewEngine()
	var wg sync.WaitGroup
	results := make([][]transcript.Utterance, 8)
	panels := make([]*Panel, len(results))
	for i := range panels {
		panels[i] = assemble(t, &mockClient{}, "", "BioExpert")
	}
	for i, p := range panels {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := engine.RunRound(context.Background(), fmt.Sprintf("k%d", i), p, 4, nil)
			assert.NoError(t, err)
			results[i] = out
		}()
	}
	wg.Wait()

	for _, out := range results {
		assert.Equal(t, []string{"Moderator", "BioExpert", "Moderator", "BioExpert"}, speakers(out))
	}
}

func TestBuildKickoff(t *testing.T) {
	got := BuildKickoff("", "Test research idea")
	assert.Equal(t, "\n\nUSER PROMPT: Test research idea\n\nModerator, please start the panel discussion.", got)

	got = BuildKickoff(transcript.FormatContext([]transcript.Entry{transcript.UserEntry("old")}), "new")
	assert.True(t, strings.HasPrefix(got, "Previous Conversation Context:\nUser: old\n\nUSER PROMPT: new"))
}
