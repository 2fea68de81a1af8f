// ABOUTME: Dataset-level statistics over a conversation subset
// ABOUTME: Counts, histograms, overview ratios, confidence tiers, folder roll-ups

package stats

import (
	"sort"

	"github.com/lukketsvane/esperanto/pkg/query"
	"github.com/lukketsvane/esperanto/pkg/record"
)

// UnmatchedMethod is the match-method tag of conversations the
// pipeline could not associate with any participant.
const UnmatchedMethod = "unmatched"

// highConfidenceMin is the overview threshold for "high confidence"
// matches, distinct from the filter bucket boundary.
const highConfidenceMin = 0.80

// Stats holds dataset-wide counts and histograms for a subset.
// Histograms map string keys to counts; key order is not significant.
type Stats struct {
	TotalConversations  int            `json:"total_conversations"`
	TotalParticipants   int            `json:"total_participants"` // distinct non-null participants
	TotalFolders        int            `json:"total_folders"`
	TotalMessages       int            `json:"total_messages"`
	MatchMethods        map[string]int `json:"match_methods"`
	ConfidenceLevels    map[string]int `json:"confidence_levels"`
	ConversationsByDate map[string]int `json:"conversations_by_date"`
}

// CalculateStats computes counts and histograms over the given subset
// in a single pass. The empty subset yields zero counts and empty,
// non-nil histograms.
func CalculateStats(convs []record.Conversation) Stats {
	s := Stats{
		MatchMethods:        make(map[string]int),
		ConfidenceLevels:    make(map[string]int),
		ConversationsByDate: make(map[string]int),
	}

	participants := make(map[string]struct{})
	folders := make(map[string]struct{})

	for _, c := range convs {
		s.TotalConversations++
		s.TotalMessages += c.TotalMessages
		if c.ParticipantID != nil {
			participants[*c.ParticipantID] = struct{}{}
		}
		folders[c.SourceFolder] = struct{}{}
		s.MatchMethods[c.MatchMethod]++
		s.ConfidenceLevels[query.Bucket(c.MatchConfidence)]++
		s.ConversationsByDate[c.CreateDate]++
	}

	s.TotalParticipants = len(participants)
	s.TotalFolders = len(folders)
	return s
}

// OverviewMetrics are the headline ratios shown on the overview view.
// Every ratio is 0 when its denominator is 0.
type OverviewMetrics struct {
	TotalConversations             int     `json:"total_conversations"`
	MatchedConversations           int     `json:"matched_conversations"`
	MatchedPercent                 float64 `json:"matched_percent"`
	UniqueParticipants             int     `json:"unique_participants"`
	AvgConversationsPerParticipant float64 `json:"avg_conversations_per_participant"`
	UniqueFolders                  int     `json:"unique_folders"`
	AvgConversationsPerFolder      float64 `json:"avg_conversations_per_folder"`
	HighConfidenceCount            int     `json:"high_confidence_count"` // confidence >= 0.80
	HighConfidencePercent          float64 `json:"high_confidence_percent"`
	TotalUserMessages              int     `json:"total_user_messages"`
	TotalAssistantMessages         int     `json:"total_assistant_messages"`
	AvgUserMessages                float64 `json:"avg_user_messages"`
	AvgAssistantMessages           float64 `json:"avg_assistant_messages"`
}

// Overview computes the headline metrics for a subset.
func Overview(convs []record.Conversation) OverviewMetrics {
	m := OverviewMetrics{TotalConversations: len(convs)}

	participants := make(map[string]struct{})
	folders := make(map[string]struct{})

	for _, c := range convs {
		if c.MatchMethod != UnmatchedMethod {
			m.MatchedConversations++
		}
		if c.ParticipantID != nil {
			participants[*c.ParticipantID] = struct{}{}
		}
		folders[c.SourceFolder] = struct{}{}
		if c.MatchConfidence >= highConfidenceMin {
			m.HighConfidenceCount++
		}
		m.TotalUserMessages += c.UserMsgCount
		m.TotalAssistantMessages += c.AssistantMsgCount
	}

	m.UniqueParticipants = len(participants)
	m.UniqueFolders = len(folders)
	m.MatchedPercent = percent(m.MatchedConversations, m.TotalConversations)
	m.HighConfidencePercent = percent(m.HighConfidenceCount, m.TotalConversations)
	m.AvgConversationsPerParticipant = ratio(m.TotalConversations, m.UniqueParticipants)
	m.AvgConversationsPerFolder = ratio(m.TotalConversations, m.UniqueFolders)
	m.AvgUserMessages = ratio(m.TotalUserMessages, m.TotalConversations)
	m.AvgAssistantMessages = ratio(m.TotalAssistantMessages, m.TotalConversations)

	return m
}

// TierCount is one row of the six-tier confidence breakdown.
type TierCount struct {
	Tier    string  `json:"tier"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ConfidenceTiers breaks a subset into the six analytics tiers, from
// excellent down to unmatched. Rows are always returned in the same
// order, including zero-count rows.
func ConfidenceTiers(convs []record.Conversation) []TierCount {
	tiers := []struct {
		label string
		in    func(conf float64) bool
	}{
		{"0.95-1.00 (Excellent)", func(c float64) bool { return c >= 0.95 }},
		{"0.80-0.94 (High)", func(c float64) bool { return c >= 0.80 && c < 0.95 }},
		{"0.60-0.79 (Medium)", func(c float64) bool { return c >= 0.60 && c < 0.80 }},
		{"0.40-0.59 (Low)", func(c float64) bool { return c >= 0.40 && c < 0.60 }},
		{"0.01-0.39 (Very Low)", func(c float64) bool { return c > 0.0 && c < 0.40 }},
		{"0.00 (Unmatched)", func(c float64) bool { return c == 0.0 }},
	}

	out := make([]TierCount, len(tiers))
	for i, tier := range tiers {
		count := 0
		for _, c := range convs {
			if tier.in(c.MatchConfidence) {
				count++
			}
		}
		out[i] = TierCount{
			Tier:    tier.label,
			Count:   count,
			Percent: percent(count, len(convs)),
		}
	}
	return out
}

// FolderSummary is a per-folder roll-up.
type FolderSummary struct {
	Folder            string  `json:"folder"`
	ConversationCount int     `json:"conversation_count"`
	MatchedCount      int     `json:"matched_count"`
	MatchedPercent    float64 `json:"matched_percent"`
	ParticipantCount  int     `json:"participant_count"` // distinct matched participants
	TotalMessages     int     `json:"total_messages"`
}

// FolderSummaries rolls up a subset per source folder, sorted by
// folder name.
func FolderSummaries(convs []record.Conversation) []FolderSummary {
	type acc struct {
		summary      FolderSummary
		participants map[string]struct{}
	}

	byFolder := make(map[string]*acc)
	for _, c := range convs {
		a, ok := byFolder[c.SourceFolder]
		if !ok {
			a = &acc{
				summary:      FolderSummary{Folder: c.SourceFolder},
				participants: make(map[string]struct{}),
			}
			byFolder[c.SourceFolder] = a
		}

		a.summary.ConversationCount++
		a.summary.TotalMessages += c.TotalMessages
		if c.MatchMethod != UnmatchedMethod {
			a.summary.MatchedCount++
		}
		if c.ParticipantID != nil {
			a.participants[*c.ParticipantID] = struct{}{}
		}
	}

	out := make([]FolderSummary, 0, len(byFolder))
	for _, a := range byFolder {
		a.summary.ParticipantCount = len(a.participants)
		a.summary.MatchedPercent = percent(a.summary.MatchedCount, a.summary.ConversationCount)
		out = append(out, a.summary)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Folder < out[j].Folder })
	return out
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func percent(num, den int) float64 {
	return ratio(num, den) * 100
}
