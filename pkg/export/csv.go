// ABOUTME: Delimited-text export of a conversation subset
// ABOUTME: RFC 4180 CSV with a fixed column order

package export

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/lukketsvane/esperanto/pkg/record"
)

// Header is the fixed column order of the export.
var Header = []string{
	"conversation_id",
	"title",
	"participant_id",
	"source_folder",
	"match_method",
	"match_confidence",
	"match_time_diff_minutes",
	"create_time_str",
	"user_msg_count",
	"assistant_msg_count",
	"total_messages",
}

// ToCSV serializes a subset as CSV: a header row plus one row per
// record. Fields containing delimiters or quotes are quoted with
// internal quotes doubled, so the output round-trips through any
// standard CSV reader. An unresolved participant exports as an empty
// field.
func ToCSV(convs []record.Conversation) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return "", err
	}

	for _, c := range convs {
		if err := w.Write(row(c)); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func row(c record.Conversation) []string {
	participant := ""
	if c.ParticipantID != nil {
		participant = *c.ParticipantID
	}

	timeDiff := ""
	if c.MatchTimeDiffMinutes != nil {
		timeDiff = strconv.FormatFloat(*c.MatchTimeDiffMinutes, 'f', -1, 64)
	}

	return []string{
		c.ConversationID,
		c.Title,
		participant,
		c.SourceFolder,
		c.MatchMethod,
		strconv.FormatFloat(c.MatchConfidence, 'f', -1, 64),
		timeDiff,
		c.CreateTimeStr,
		strconv.Itoa(c.UserMsgCount),
		strconv.Itoa(c.AssistantMsgCount),
		strconv.Itoa(c.TotalMessages),
	}
}
