// ABOUTME: Conversation record data model
// ABOUTME: Raw upstream shapes and the normalized canonical form

package record

// RawRecord is one conversation as emitted by the upstream matching
// pipeline. The shape is loose: optional fields may be absent and
// match_confidence arrives in three different encodings.
type RawRecord struct {
	ConversationID       string                 `json:"conversation_id"`
	Title                string                 `json:"title"`
	CreateTime           float64                `json:"create_time"`
	UpdateTime           float64                `json:"update_time"`
	SourceFolder         string                 `json:"source_folder"`
	ParticipantID        *string                `json:"participant_id"`
	MatchMethod          string                 `json:"match_method"`
	MatchConfidence      any                    `json:"match_confidence"` // absent, 0-1 float, label, or numeric string
	MatchTimeDiffMinutes *float64               `json:"match_time_diff_minutes"`
	Mapping              map[string]MessageNode `json:"mapping"`
}

// MessageNode is one entry in the message tree, keyed by node ID.
// Parent/children links form a tree; only role counts are derived
// from it, never traversal order.
type MessageNode struct {
	ID       string   `json:"id"`
	Message  *Message `json:"message"`
	Parent   *string  `json:"parent"`
	Children []string `json:"children"`
}

// Message is the payload carried by a message node.
type Message struct {
	Author  Author  `json:"author"`
	Content Content `json:"content"`
}

// Author identifies who produced a message.
type Author struct {
	Role string `json:"role"` // "user", "assistant", "system", "tool"
}

// Content holds the ordered content parts of a message. Parts are
// usually strings but multimodal records carry objects.
type Content struct {
	ContentType string `json:"content_type"`
	Parts       []any  `json:"parts"`
}

// Conversation is the canonical, query-ready form of one raw record.
// Built once per load and treated as immutable afterwards.
type Conversation struct {
	ConversationID       string   `json:"conversation_id"`
	Title                string   `json:"title"`
	ParticipantID        *string  `json:"participant_id"` // nil when the match is unresolved
	SourceFolder         string   `json:"source_folder"`
	MatchMethod          string   `json:"match_method"`
	MatchConfidence      float64  `json:"match_confidence"` // 0-1 after normalization
	MatchTimeDiffMinutes *float64 `json:"match_time_diff_minutes,omitempty"`
	CreateTime           float64  `json:"create_time"` // epoch seconds, may be fractional
	CreateTimeStr        string   `json:"create_time_str"`
	CreateDate           string   `json:"create_date"` // ISO YYYY-MM-DD, sortable filter key
	UpdateTime           float64  `json:"update_time"`
	UserMsgCount         int      `json:"user_msg_count"`
	AssistantMsgCount    int      `json:"assistant_msg_count"`
	TotalMessages        int      `json:"total_messages"` // always user + assistant
	FirstUserMessage     string   `json:"first_user_message"`

	// Retained for detail views; excluded from list payloads.
	Mapping map[string]MessageNode `json:"-"`
}
