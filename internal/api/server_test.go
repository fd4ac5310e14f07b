package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dusk-indust/agentroom/internal/history"
	"github.com/dusk-indust/agentroom/internal/panel"
	"github.com/dusk-indust/agentroom/internal/session"
	"github.com/dusk-indust/agentroom/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

// stubRunner emits one turn per enabled expert plus the Moderator.
type stubRunner struct {
	mu       sync.Mutex
	requests []session.PanelRequest
	err      error
}

func (s *stubRunner) RunPanelRound(_ context.Context, req session.PanelRequest) ([]transcript.Entry, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	names := append([]string{"Moderator"}, req.Enabled...)
	out := make([]transcript.Entry, 0, len(names))
	for i, name := range names {
		content := fmt.Sprintf("%s on %q", name, req.Prompt)
		if req.OnTurn != nil {
			req.OnTurn(panel.TurnEvent{Turn: i, Speaker: name, Content: content})
		}
		out = append(out, transcript.Entry{Role: transcript.RoleAssistant, Name: name, Content: content})
	}
	return out, nil
}

func (s *stubRunner) last() session.PanelRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

// brokenSessions fails every call with err.
type brokenSessions struct{ err error }

func (b brokenSessions) NewSession(context.Context) (string, []transcript.Entry, error) {
	return "", nil, b.err
}

func (b brokenSessions) History(context.Context, string) ([]transcript.Entry, error) {
	return nil, b.err
}

func (b brokenSessions) RunRound(context.Context, session.RoundRequest) ([]transcript.Entry, error) {
	return nil, b.err
}

func newTestServer(t *testing.T, runner session.RoundRunner, opts ...Option) *httptest.Server {
	t.Helper()
	svc := session.NewService(history.NewMemStore(), runner)
	ts := httptest.NewServer(NewServer(svc, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func newSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/new_session", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[SessionResponse](t, resp).SessionID
}

// ---------------------------------------------------------------------------
// Endpoints
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &stubRunner{})
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestNewSession(t *testing.T) {
	ts := newTestServer(t, &stubRunner{})

	resp, err := http.Post(ts.URL+"/api/new_session", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, string(raw), `"messages":[]`)

	var body SessionResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Len(t, body.SessionID, session.IDLength)
}

func TestHistory_UnknownSession(t *testing.T) {
	ts := newTestServer(t, &stubRunner{})

	resp, err := http.Get(ts.URL + "/api/history/fake")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[MessagesResponse](t, resp)
	assert.NotNil(t, body.Messages)
	assert.Empty(t, body.Messages)
}

func TestRunRound_FullFlow(t *testing.T) {
	ts := newTestServer(t, &stubRunner{})
	id := newSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/run_round", RunRoundRequest{
		SessionID:     id,
		UserPrompt:    "Test research idea",
		Mode:          "FREESTYLE",
		EnabledAgents: []string{"BioExpert"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[MessagesResponse](t, resp)

	require.Len(t, body.Messages, 3)
	assert.Equal(t, transcript.UserEntry("Test research idea"), body.Messages[0])
	for _, m := range body.Messages[1:] {
		assert.Equal(t, transcript.RoleAssistant, m.Role)
		assert.Contains(t, []string{"Moderator", "BioExpert"}, m.Name)
	}

	hist, err := http.Get(ts.URL + "/api/history/" + id)
	require.NoError(t, err)
	assert.Equal(t, body.Messages, decode[MessagesResponse](t, hist).Messages)
}

func TestRunRound_EnabledAgentsDefaults(t *testing.T) {
	runner := &stubRunner{}
	ts := newTestServer(t, runner, WithDefaultMode("EVIDENCE"))

	resp := postJSON(t, ts.URL+"/api/run_round", map[string]any{
		"session_id":  "abcd1234",
		"user_prompt": "hi",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, []string{"BioExpert", "AIExpert", "Reviewer", "GrantsWriter"}, runner.last().Enabled)
	assert.Equal(t, "EVIDENCE", runner.last().Mode)

	resp = postJSON(t, ts.URL+"/api/run_round", map[string]any{
		"session_id":     "abcd1234",
		"user_prompt":    "hi",
		"mode":           "freestyle",
		"enabled_agents": []string{},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Empty(t, runner.last().Enabled)
	assert.Equal(t, "freestyle", runner.last().Mode)
}

func TestRunRound_EmptyPromptIs422(t *testing.T) {
	runner := &stubRunner{}
	ts := newTestServer(t, runner)
	id := newSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/run_round", RunRoundRequest{SessionID: id, UserPrompt: ""})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, session.ErrEmptyPrompt.Error(), decode[ErrorResponse](t, resp).Detail)
	assert.Empty(t, runner.requests)

	hist, err := http.Get(ts.URL + "/api/history/" + id)
	require.NoError(t, err)
	assert.Empty(t, decode[MessagesResponse](t, hist).Messages)
}

func TestRunRound_UnstorableSessionIDIs422(t *testing.T) {
	runner := &stubRunner{}
	ts := newTestServer(t, runner)

	resp := postJSON(t, ts.URL+"/api/run_round", RunRoundRequest{SessionID: "a/b", UserPrompt: "hi"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode[ErrorResponse](t, resp).Detail, "invalid session id")
	assert.Empty(t, runner.requests)
}

func TestRunRound_MalformedJSONIs422(t *testing.T) {
	ts := newTestServer(t, &stubRunner{})

	resp, err := http.Post(ts.URL+"/api/run_round", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode[ErrorResponse](t, resp).Detail, "malformed request body")
}

func TestRunRound_UpstreamFailureIs502(t *testing.T) {
	ts := newTestServer(t, &stubRunner{err: errors.New("model endpoint unreachable")})
	id := newSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/run_round", RunRoundRequest{SessionID: id, UserPrompt: "hi"})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, decode[ErrorResponse](t, resp).Detail, "model endpoint unreachable")

	hist, err := http.Get(ts.URL + "/api/history/" + id)
	require.NoError(t, err)
	assert.Empty(t, decode[MessagesResponse](t, hist).Messages)
}

func TestStoreFailureIs500(t *testing.T) {
	srv := NewServer(brokenSessions{err: errors.New("database is locked")})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/history/abcd1234")
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal error", decode[ErrorResponse](t, resp).Detail)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, &stubRunner{})
	resp, err := http.Get(ts.URL + "/api/run_round")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWithMount(t *testing.T) {
	mounted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	ts := newTestServer(t, &stubRunner{}, WithMount("/mcp", mounted))

	resp, err := http.Post(ts.URL+"/mcp", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ts := newTestServer(t, &stubRunner{}, WithLogger(zap.New(core)))

	resp, err := http.Get(ts.URL + "/api/history/abcd1234")
	require.NoError(t, err)
	resp.Body.Close()

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/history/abcd1234", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

// ---------------------------------------------------------------------------
// Streaming
// ---------------------------------------------------------------------------

func collect(t *testing.T, resp *http.Response) []StreamEvent {
	t.Helper()
	var out []StreamEvent
	for ev := range ReadEvents(context.Background(), resp.Body) {
		require.NoError(t, ev.Err)
		out = append(out, ev)
	}
	return out
}

func TestRunRoundStream(t *testing.T) {
	ts := newTestServer(t, &stubRunner{})
	id := newSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/run_round/stream", RunRoundRequest{
		SessionID:     id,
		UserPrompt:    "idea",
		EnabledAgents: []string{"Reviewer"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := collect(t, resp)
	require.Len(t, events, 3)

	assert.Equal(t, EventTurn, events[0].Type)
	require.NotNil(t, events[0].Turn)
	assert.Equal(t, "Moderator", events[0].Turn.Speaker)
	assert.Equal(t, EventTurn, events[1].Type)
	assert.Equal(t, "Reviewer", events[1].Turn.Speaker)

	assert.Equal(t, EventDone, events[2].Type)
	require.Len(t, events[2].Messages, 3)
	assert.Equal(t, transcript.UserEntry("idea"), events[2].Messages[0])

	hist, err := http.Get(ts.URL + "/api/history/" + id)
	require.NoError(t, err)
	assert.Equal(t, events[2].Messages, decode[MessagesResponse](t, hist).Messages)
}

func TestRunRoundStream_ValidationIsPlain422(t *testing.T) {
	runner := &stubRunner{}
	ts := newTestServer(t, runner)

	resp := postJSON(t, ts.URL+"/api/run_round/stream", RunRoundRequest{SessionID: "abcd1234"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	resp.Body.Close()
	assert.Empty(t, runner.requests)
}

func TestRunRoundStream_UpstreamErrorEvent(t *testing.T) {
	ts := newTestServer(t, &stubRunner{err: errors.New("timeout talking to model")})
	id := newSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/run_round/stream", RunRoundRequest{SessionID: id, UserPrompt: "idea"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := collect(t, resp)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Contains(t, events[0].Detail, "timeout talking to model")
}

func TestReadEvents_ParsesFrames(t *testing.T) {
	raw := ": keep-alive\n" +
		"event: turn\n" +
		"data: {\"turn\":{\"turn\":0,\"speaker\":\"Moderator\",\"content\":\"hi\"}}\n\n" +
		"event: error\n" +
		"data: not json\n\n" +
		"event: done\n" +
		"data: {\"messages\":\n" +
		"data: []}\n"

	var got []StreamEvent
	for ev := range ReadEvents(context.Background(), io.NopCloser(strings.NewReader(raw))) {
		got = append(got, ev)
	}
	require.Len(t, got, 3)

	assert.Equal(t, EventTurn, got[0].Type)
	require.NoError(t, got[0].Err)
	assert.Equal(t, "Moderator", got[0].Turn.Speaker)

	assert.Equal(t, EventError, got[1].Type)
	assert.Error(t, got[1].Err)

	assert.Equal(t, EventDone, got[2].Type)
	assert.NoError(t, got[2].Err)
}

func TestSSEWriter_Format(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := NewSSEWriter(rec)
	sw.Init()
	require.NoError(t, sw.WriteEvent(StreamEvent{Type: EventError, Detail: "boom"}))

	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "event: error\ndata: {\"detail\":\"boom\"}\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}
