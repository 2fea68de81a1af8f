// ABOUTME: Raw record normalization into canonical conversations
// ABOUTME: Confidence decoding, message-tree counting, date derivation

package record

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultMatchMethod is assumed when the source record carries no
// match method. Records matched through an explicit participant
// identifier were never fuzzy-matched and arrive without the tag.
const DefaultMatchMethod = "explicit_id"

// Timestamp formats for the derived string fields. All derivation is
// done in UTC so the same payload normalizes identically everywhere.
const (
	timeFormat = "2006-01-02 15:04:05"
	dateFormat = "2006-01-02"
)

// excerptLimit caps the first-user-message excerpt, in runes.
const excerptLimit = 200

// Normalize converts a raw payload into the canonical conversation
// set. It is total: a malformed record gets field defaults, never an
// error, so one bad record cannot abort the batch.
func Normalize(raw []RawRecord) []Conversation {
	out := make([]Conversation, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalizeOne(r))
	}
	return out
}

func normalizeOne(r RawRecord) Conversation {
	method := r.MatchMethod
	if method == "" {
		method = DefaultMatchMethod
	}

	userCount, assistantCount, firstUserMsg := countMessages(r.Mapping)

	// Fractional epoch seconds are kept to millisecond precision.
	ts := time.UnixMilli(int64(r.CreateTime * 1000)).UTC()

	return Conversation{
		ConversationID:       r.ConversationID,
		Title:                r.Title,
		ParticipantID:        r.ParticipantID,
		SourceFolder:         r.SourceFolder,
		MatchMethod:          method,
		MatchConfidence:      NormalizeConfidence(r.MatchConfidence),
		MatchTimeDiffMinutes: r.MatchTimeDiffMinutes,
		CreateTime:           r.CreateTime,
		CreateTimeStr:        ts.Format(timeFormat),
		CreateDate:           ts.Format(dateFormat),
		UpdateTime:           r.UpdateTime,
		UserMsgCount:         userCount,
		AssistantMsgCount:    assistantCount,
		TotalMessages:        userCount + assistantCount,
		FirstUserMessage:     firstUserMsg,
		Mapping:              r.Mapping,
	}
}

// NormalizeConfidence resolves the three source encodings of match
// confidence into a single float:
//
//	absent/null            -> 1.0 (explicit match, treated as certain)
//	"high"/"medium"/"low"  -> 0.95 / 0.75 / 0.5 (case-insensitive)
//	other numeric string   -> parsed value
//	unparseable string     -> 1.0
//	numeric                -> passed through, no clamping
func NormalizeConfidence(v any) float64 {
	switch c := v.(type) {
	case nil:
		return 1.0
	case float64:
		return c
	case int:
		return float64(c)
	case string:
		switch strings.ToLower(c) {
		case "high":
			return 0.95
		case "medium":
			return 0.75
		case "low":
			return 0.5
		}
		if f, err := strconv.ParseFloat(c, 64); err == nil {
			return f
		}
		return 1.0
	default:
		return 1.0
	}
}

// countMessages walks every node in the mapping and tallies user and
// assistant messages. Other roles (system, tool, absent) do not count.
// The first user message with non-empty content supplies the excerpt;
// node IDs are walked in sorted order so the choice is deterministic
// even though the tree itself carries no traversal order.
func countMessages(mapping map[string]MessageNode) (userCount, assistantCount int, firstUserMsg string) {
	if len(mapping) == 0 {
		return 0, 0, ""
	}

	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node := mapping[id]
		if node.Message == nil {
			continue
		}
		switch node.Message.Author.Role {
		case "user":
			userCount++
			if firstUserMsg == "" {
				firstUserMsg = truncate(firstPart(node.Message.Content.Parts), excerptLimit)
			}
		case "assistant":
			assistantCount++
		}
	}

	return userCount, assistantCount, firstUserMsg
}

func firstPart(parts []any) string {
	if len(parts) == 0 {
		return ""
	}
	if s, ok := parts[0].(string); ok {
		return s
	}
	return fmt.Sprint(parts[0])
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
