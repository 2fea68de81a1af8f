// ABOUTME: Per-participant roll-ups over a conversation subset
// ABOUTME: Counts, message totals, histograms, mean confidence, activity span

package stats

import (
	"sort"

	"github.com/lukketsvane/esperanto/pkg/query"
	"github.com/lukketsvane/esperanto/pkg/record"
)

// ParticipantSummary is one participant's roll-up over the input
// subset. Rebuilt on every call; never cached.
type ParticipantSummary struct {
	ParticipantID          string         `json:"participant_id"`
	ConversationCount      int            `json:"conversation_count"`
	TotalUserMessages      int            `json:"total_user_messages"`
	TotalAssistantMessages int            `json:"total_assistant_messages"`
	AvgConfidence          float64        `json:"avg_confidence"` // full precision, round at presentation
	MatchMethods           map[string]int `json:"match_methods"`
	ConfidenceLevels       map[string]int `json:"confidence_levels"`
	Folders                []string       `json:"folders"` // sorted distinct folders
	FirstSeen              string         `json:"first_seen"`
	LastSeen               string         `json:"last_seen"`
}

// BuildParticipantSummary groups a subset by participant, skipping
// records with no resolved participant. Earliest/latest tracking
// compares numeric create_time; the exported fields carry the
// formatted time strings. Output is sorted by conversation count
// descending, then participant ID for a stable order across ties.
func BuildParticipantSummary(convs []record.Conversation) []ParticipantSummary {
	type acc struct {
		summary       ParticipantSummary
		confidenceSum float64
		folders       map[string]struct{}
		firstTime     float64
		lastTime      float64
	}

	byParticipant := make(map[string]*acc)
	order := make([]string, 0)

	for _, c := range convs {
		if c.ParticipantID == nil {
			continue
		}
		pid := *c.ParticipantID

		a, ok := byParticipant[pid]
		if !ok {
			a = &acc{
				summary: ParticipantSummary{
					ParticipantID:    pid,
					MatchMethods:     make(map[string]int),
					ConfidenceLevels: make(map[string]int),
				},
				folders:   make(map[string]struct{}),
				firstTime: c.CreateTime,
				lastTime:  c.CreateTime,
			}
			a.summary.FirstSeen = c.CreateTimeStr
			a.summary.LastSeen = c.CreateTimeStr
			byParticipant[pid] = a
			order = append(order, pid)
		}

		a.summary.ConversationCount++
		a.summary.TotalUserMessages += c.UserMsgCount
		a.summary.TotalAssistantMessages += c.AssistantMsgCount
		a.summary.MatchMethods[c.MatchMethod]++
		a.summary.ConfidenceLevels[query.Bucket(c.MatchConfidence)]++
		a.confidenceSum += c.MatchConfidence
		a.folders[c.SourceFolder] = struct{}{}

		if c.CreateTime < a.firstTime {
			a.firstTime = c.CreateTime
			a.summary.FirstSeen = c.CreateTimeStr
		}
		if c.CreateTime > a.lastTime {
			a.lastTime = c.CreateTime
			a.summary.LastSeen = c.CreateTimeStr
		}
	}

	out := make([]ParticipantSummary, 0, len(byParticipant))
	for _, pid := range order {
		a := byParticipant[pid]
		a.summary.AvgConfidence = a.confidenceSum / float64(a.summary.ConversationCount)

		folders := make([]string, 0, len(a.folders))
		for f := range a.folders {
			folders = append(folders, f)
		}
		sort.Strings(folders)
		a.summary.Folders = folders

		out = append(out, a.summary)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ConversationCount != out[j].ConversationCount {
			return out[i].ConversationCount > out[j].ConversationCount
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})

	return out
}
