// Package transcript defines the persisted conversation format and converts
// engine output into it.
package transcript

import (
	"strings"
)

// Entry roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// UserName is the speaker name recorded for the user's own prompt.
const UserName = "User"

// HistoryWindow is the number of trailing entries rendered as context for the
// next round.
const HistoryWindow = 10

// ContextLabel prefixes a non-empty context block.
const ContextLabel = "Previous Conversation Context:"

// Entry is the canonical persisted unit of a transcript.
type Entry struct {
	Role    string `json:"role"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Speaker returns the entry's name, falling back to its role.
func (e Entry) Speaker() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Role
}

// UserEntry returns the transcript entry recording the user's prompt.
func UserEntry(prompt string) Entry {
	return Entry{Role: RoleUser, Name: UserName, Content: prompt}
}

// Window returns a copy of the last k entries of history.
func Window(history []Entry, k int) []Entry {
	if k < 0 {
		k = 0
	}
	start := len(history) - k
	if start < 0 {
		start = 0
	}
	out := make([]Entry, len(history)-start)
	copy(out, history[start:])
	return out
}

// FormatContext renders the last HistoryWindow entries of history as a text
// block, one "speaker: content" line per entry. Empty history yields "".
func FormatContext(history []Entry) string {
	return FormatContextWindow(history, HistoryWindow)
}

// FormatContextWindow is FormatContext with an explicit window size.
func FormatContextWindow(history []Entry, k int) string {
	window := Window(history, k)
	if len(window) == 0 {
		return ""
	}
	lines := make([]string, len(window))
	for i, e := range window {
		lines[i] = e.Speaker() + ": " + e.Content
	}
	return ContextLabel + "\n" + strings.Join(lines, "\n")
}

// Clone returns an independent copy of entries. A nil input yields an empty,
// non-nil slice so callers always serialize "[]".
func Clone(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
