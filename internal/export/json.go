// Package export renders session transcripts for use outside agentroom.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/dusk-indust/agentroom/internal/transcript"
)

// HistorySource loads a session transcript.
type HistorySource interface {
	History(ctx context.Context, id string) ([]transcript.Entry, error)
}

// SessionExport is the top-level JSON export structure.
type SessionExport struct {
	SessionID  string             `json:"sessionId"`
	ExportedAt string             `json:"exportedAt"`
	Rounds     int                `json:"rounds"`
	Speakers   []SpeakerStats     `json:"speakers"`
	Messages   []transcript.Entry `json:"messages"`
}

// SpeakerStats counts one speaker's contributions.
type SpeakerStats struct {
	Name       string `json:"name"`
	Turns      int    `json:"turns"`
	Characters int    `json:"characters"`
}

// ExportSession builds a SessionExport for id.
func ExportSession(ctx context.Context, src HistorySource, id string) (*SessionExport, error) {
	entries, err := src.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return Build(id, entries, time.Now()), nil
}

// Build summarizes entries. Speakers are listed in order of first
// appearance; a round starts at every user entry.
func Build(id string, entries []transcript.Entry, now time.Time) *SessionExport {
	out := &SessionExport{
		SessionID:  id,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Speakers:   []SpeakerStats{},
		Messages:   transcript.Clone(entries),
	}

	index := make(map[string]int)
	for _, e := range entries {
		if e.Role == transcript.RoleUser {
			out.Rounds++
		}
		name := e.Speaker()
		i, ok := index[name]
		if !ok {
			i = len(out.Speakers)
			index[name] = i
			out.Speakers = append(out.Speakers, SpeakerStats{Name: name})
		}
		out.Speakers[i].Turns++
		out.Speakers[i].Characters += len([]rune(e.Content))
	}
	return out
}
