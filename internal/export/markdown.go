package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/agentroom/internal/transcript"
)

// Markdown renders the transcript with one heading per round and one
// section per entry.
func Markdown(se *SessionExport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Session %s\n\n", se.SessionID)
	fmt.Fprintf(&sb, "_Exported %s. %d round(s)._\n", se.ExportedAt, se.Rounds)

	round := 0
	for _, e := range se.Messages {
		if e.Role == transcript.RoleUser {
			round++
			fmt.Fprintf(&sb, "\n## Round %d\n", round)
		}
		fmt.Fprintf(&sb, "\n### %s\n\n%s\n", e.Speaker(), strings.TrimSpace(e.Content))
	}
	return sb.String()
}

// GenerateMermaid produces a Mermaid sequence diagram of who spoke after
// whom. Each message is drawn as an arrow from its speaker to the next
// speaker, labelled with a short excerpt.
func GenerateMermaid(entries []transcript.Entry) string {
	var sb strings.Builder
	sb.WriteString("sequenceDiagram\n")

	// Participants in order of first appearance, with Mermaid-safe IDs.
	ids := make(map[string]string)
	getID := func(name string) string {
		if id, ok := ids[name]; ok {
			return id
		}
		id := fmt.Sprintf("P%d", len(ids))
		ids[name] = id
		sb.WriteString(fmt.Sprintf("  participant %s as %s\n", id, name))
		return id
	}
	for _, e := range entries {
		getID(e.Speaker())
	}

	for i, e := range entries {
		src := getID(e.Speaker())
		dst := src
		if i+1 < len(entries) {
			dst = getID(entries[i+1].Speaker())
		}
		sb.WriteString(fmt.Sprintf("  %s->>%s: %s\n", src, dst, excerpt(e.Content, 40)))
	}
	return sb.String()
}

// excerpt returns the first line of s, cut to n runes, with characters that
// break Mermaid message text replaced.
func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.NewReplacer(";", ",", "#", "", ":", " -").Replace(s)
	r := []rune(s)
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
