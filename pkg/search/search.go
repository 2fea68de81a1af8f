// ABOUTME: Substring search over a conversation subset
// ABOUTME: Field-scoped modes plus an OR-of-all-fields mode

package search

import (
	"strings"

	"github.com/lukketsvane/esperanto/pkg/record"
)

// Mode selects the field a search term is matched against.
type Mode string

const (
	ModeTitle       Mode = "title"
	ModeMessage     Mode = "message" // first user message excerpt
	ModeParticipant Mode = "participant"
	ModeAll         Mode = "all" // title, first message, participant, conversation id
)

// ValidMode reports whether m names a supported search mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeTitle, ModeMessage, ModeParticipant, ModeAll:
		return true
	}
	return false
}

// Search returns the conversations whose selected field contains term,
// case-insensitively. An empty term returns the input unchanged. An
// unresolved participant never matches in participant scope.
func Search(convs []record.Conversation, term string, mode Mode) []record.Conversation {
	if term == "" {
		return convs
	}

	needle := strings.ToLower(term)
	out := make([]record.Conversation, 0, len(convs))
	for _, c := range convs {
		if matches(c, needle, mode) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c record.Conversation, needle string, mode Mode) bool {
	switch mode {
	case ModeTitle:
		return contains(c.Title, needle)
	case ModeMessage:
		return contains(c.FirstUserMessage, needle)
	case ModeParticipant:
		return c.ParticipantID != nil && contains(*c.ParticipantID, needle)
	case ModeAll:
		return contains(c.Title, needle) ||
			contains(c.FirstUserMessage, needle) ||
			(c.ParticipantID != nil && contains(*c.ParticipantID, needle)) ||
			contains(c.ConversationID, needle)
	default:
		return false
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
