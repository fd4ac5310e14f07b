package transcript

import (
	"fmt"
	"strings"
)

// Utterance is one message produced during a round. The set of
// implementations is closed: TextUtterance, StructuredUtterance and
// UnknownUtterance.
type Utterance interface {
	utterance()
}

// TextUtterance is a plain text message.
type TextUtterance struct {
	Source  string
	Name    string
	Content string
}

// Field is one labelled section of a structured utterance.
type Field struct {
	Label string
	Value string
}

// StructuredUtterance carries labelled sections, e.g. an evidence-mode
// critique, and is persisted through its canonical text rendering.
type StructuredUtterance struct {
	Source string
	Name   string
	Fields []Field
}

// Text renders the fields as "Label: Value" lines in order.
func (s StructuredUtterance) Text() string {
	lines := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Label == "" {
			lines = append(lines, f.Value)
			continue
		}
		lines = append(lines, f.Label+": "+f.Value)
	}
	return strings.Join(lines, "\n")
}

// UnknownUtterance wraps anything else the engine may surface. Content is used
// when set, otherwise Raw is rendered with fmt.
type UnknownUtterance struct {
	Source  string
	Name    string
	Content string
	Raw     any
}

func (TextUtterance) utterance()       {}
func (StructuredUtterance) utterance() {}
func (UnknownUtterance) utterance()    {}

// Normalize converts an utterance into an assistant transcript entry. The
// second return value is false when the utterance carries nothing usable and
// must be skipped.
func Normalize(u Utterance) (Entry, bool) {
	var (
		source, name, content string
		usable                bool
	)

	switch v := u.(type) {
	case *TextUtterance:
		if v == nil {
			return Entry{}, false
		}
		return Normalize(*v)
	case *StructuredUtterance:
		if v == nil {
			return Entry{}, false
		}
		return Normalize(*v)
	case *UnknownUtterance:
		if v == nil {
			return Entry{}, false
		}
		return Normalize(*v)
	case TextUtterance:
		source, name, content = v.Source, v.Name, v.Content
		usable = true
	case StructuredUtterance:
		source, name, content = v.Source, v.Name, v.Text()
		usable = len(v.Fields) > 0 || v.Source != "" || v.Name != ""
	case UnknownUtterance:
		source, name = v.Source, v.Name
		switch {
		case v.Content != "":
			content = v.Content
			usable = true
		case v.Raw != nil:
			content = fmt.Sprint(v.Raw)
			usable = true
		}
	default:
		return Entry{}, false
	}

	if !usable {
		return Entry{}, false
	}
	return Entry{Role: RoleAssistant, Name: speakerName(source, name), Content: content}, true
}

// NormalizeAll normalizes utterances in order, dropping any that cannot be
// normalized.
func NormalizeAll(us []Utterance) []Entry {
	out := make([]Entry, 0, len(us))
	for _, u := range us {
		if e, ok := Normalize(u); ok {
			out = append(out, e)
		}
	}
	return out
}

func speakerName(source, name string) string {
	switch {
	case source != "":
		return source
	case name != "":
		return name
	default:
		return RoleAssistant
	}
}
