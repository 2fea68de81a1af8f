// ABOUTME: Sort orders for the conversation browser
// ABOUTME: Stable sorting on time, confidence, message counts, title

package query

import (
	"sort"

	"github.com/lukketsvane/esperanto/pkg/record"
)

// SortField selects the column the conversation browser sorts on.
type SortField string

const (
	SortCreateTime    SortField = "create_time"
	SortConfidence    SortField = "match_confidence"
	SortUserMsgs      SortField = "user_msg_count"
	SortAssistantMsgs SortField = "assistant_msg_count"
	SortTitle         SortField = "title"
)

// ValidSortField reports whether f names a supported sort column.
func ValidSortField(f SortField) bool {
	switch f {
	case SortCreateTime, SortConfidence, SortUserMsgs, SortAssistantMsgs, SortTitle:
		return true
	}
	return false
}

// Sort returns a new slice sorted on the given field. Unknown fields
// fall back to create_time. The sort is stable so equal keys keep
// their filtered order.
func Sort(convs []record.Conversation, field SortField, descending bool) []record.Conversation {
	out := make([]record.Conversation, len(convs))
	copy(out, convs)

	less := lessFunc(field)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})

	return out
}

func lessFunc(field SortField) func(a, b record.Conversation) bool {
	switch field {
	case SortConfidence:
		return func(a, b record.Conversation) bool { return a.MatchConfidence < b.MatchConfidence }
	case SortUserMsgs:
		return func(a, b record.Conversation) bool { return a.UserMsgCount < b.UserMsgCount }
	case SortAssistantMsgs:
		return func(a, b record.Conversation) bool { return a.AssistantMsgCount < b.AssistantMsgCount }
	case SortTitle:
		return func(a, b record.Conversation) bool { return a.Title < b.Title }
	default:
		return func(a, b record.Conversation) bool { return a.CreateTime < b.CreateTime }
	}
}
