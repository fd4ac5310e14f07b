package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dusk-indust/agentroom/internal/panel"
	"github.com/dusk-indust/agentroom/internal/transcript"
)

// Stream event names.
const (
	EventTurn  = "turn"
	EventDone  = "done"
	EventError = "error"
)

// StreamEvent is one server-sent event of a streamed round. Exactly one of
// Turn, Messages or Detail is set, matching Type.
type StreamEvent struct {
	Type     string             `json:"-"`
	Turn     *panel.TurnEvent   `json:"turn,omitempty"`
	Messages []transcript.Entry `json:"messages,omitempty"`
	Detail   string             `json:"detail,omitempty"`

	// Err is set by ReadEvents when an event cannot be decoded.
	Err error `json:"-"`
}

// SSEWriter writes Server-Sent Events to an http.ResponseWriter.
// Call Init once before writing any events.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter wraps w. If w is not an http.Flusher, events may be buffered.
func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	f, _ := w.(http.Flusher)
	return &SSEWriter{w: w, flusher: f}
}

// Init sets the SSE response headers and flushes them to the client.
func (sw *SSEWriter) Init() {
	h := sw.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	sw.w.WriteHeader(http.StatusOK)
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
}

// WriteEvent writes ev as
//
//	event: <type>
//	data: {json}
//
// and flushes.
func (sw *SSEWriter) WriteEvent(ev StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("sse: marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return fmt.Errorf("sse: write event: %w", err)
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

// ReadEvents parses Server-Sent Events from body and delivers them on the
// returned channel, which is closed when the body is exhausted or ctx is
// done. The body is closed when reading finishes. Comment lines and unknown
// fields are ignored; multiple data lines in one event are joined with
// newlines. Undecodable payloads arrive as events with Err set.
func ReadEvents(ctx context.Context, body io.ReadCloser) <-chan StreamEvent {
	ch := make(chan StreamEvent)
	go func() {
		defer close(ch)
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

		var (
			eventType string
			data      strings.Builder
		)
		flush := func() bool {
			if data.Len() == 0 {
				eventType = ""
				return true
			}
			ok := emit(ctx, ch, eventType, data.String())
			eventType = ""
			data.Reset()
			return ok
		}

		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			line := scanner.Text()

			switch {
			case line == "":
				if !flush() {
					return
				}
			case strings.HasPrefix(line, ":"):
			case strings.HasPrefix(line, "event:"):
				eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				payload := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(payload)
			}
		}
		flush()
	}()
	return ch
}

func emit(ctx context.Context, ch chan<- StreamEvent, eventType, raw string) bool {
	var ev StreamEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		ev = StreamEvent{Err: fmt.Errorf("sse: unmarshal event: %w", err)}
	}
	ev.Type = eventType
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
