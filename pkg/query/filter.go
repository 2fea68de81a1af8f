// ABOUTME: Filter specification and engine over canonical conversations
// ABOUTME: Stable AND filtering across folder, method, bucket, participant, dates

package query

import (
	"github.com/lukketsvane/esperanto/pkg/record"
)

// All is the wildcard value meaning "no constraint" for a dimension.
// The empty string is treated the same way.
const All = "All"

// Confidence bucket names used for categorical filtering.
const (
	BucketHigh   = "high"
	BucketMedium = "medium"
	BucketLow    = "low"
)

// Bucket thresholds: high >= 0.90, medium >= 0.70, low below.
const (
	bucketHighMin   = 0.90
	bucketMediumMin = 0.70
)

// FilterSpec describes one view's active constraints. Every field is
// independently optional; a record passes only when it satisfies all
// active constraints.
type FilterSpec struct {
	Folder           string // exact match on source_folder
	MatchMethod      string // exact match on match_method
	ConfidenceBucket string // bucket match: high / medium / low
	ParticipantID    string // exact match, never matches a nil participant
	DateFrom         string // inclusive ISO date lower bound
	DateTo           string // inclusive ISO date upper bound
}

// FilterBuilder provides a fluent interface for building filter specs.
type FilterBuilder struct {
	spec FilterSpec
}

// NewFilterBuilder creates a new filter builder with no constraints.
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{}
}

// Folder constrains the source folder.
func (fb *FilterBuilder) Folder(folder string) *FilterBuilder {
	fb.spec.Folder = folder
	return fb
}

// MatchMethod constrains the match method.
func (fb *FilterBuilder) MatchMethod(method string) *FilterBuilder {
	fb.spec.MatchMethod = method
	return fb
}

// ConfidenceBucket constrains the confidence bucket.
func (fb *FilterBuilder) ConfidenceBucket(bucket string) *FilterBuilder {
	fb.spec.ConfidenceBucket = bucket
	return fb
}

// ParticipantID constrains the matched participant.
func (fb *FilterBuilder) ParticipantID(id string) *FilterBuilder {
	fb.spec.ParticipantID = id
	return fb
}

// DateRange constrains create_date to an inclusive ISO-date range.
// Either bound may be empty.
func (fb *FilterBuilder) DateRange(from, to string) *FilterBuilder {
	fb.spec.DateFrom = from
	fb.spec.DateTo = to
	return fb
}

// Build returns the constructed filter spec.
func (fb *FilterBuilder) Build() FilterSpec {
	return fb.spec
}

// Bucket maps a confidence score to its categorical bucket.
func Bucket(confidence float64) string {
	switch {
	case confidence >= bucketHighMin:
		return BucketHigh
	case confidence >= bucketMediumMin:
		return BucketMedium
	default:
		return BucketLow
	}
}

// Apply returns the conversations matching every active constraint in
// spec. The result is a new slice preserving input order; the input is
// never mutated.
func Apply(convs []record.Conversation, spec FilterSpec) []record.Conversation {
	out := make([]record.Conversation, 0, len(convs))
	for _, c := range convs {
		if spec.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s FilterSpec) matches(c record.Conversation) bool {
	if !wildcard(s.Folder) && c.SourceFolder != s.Folder {
		return false
	}
	if !wildcard(s.MatchMethod) && c.MatchMethod != s.MatchMethod {
		return false
	}
	if !wildcard(s.ConfidenceBucket) && Bucket(c.MatchConfidence) != s.ConfidenceBucket {
		return false
	}
	if !wildcard(s.ParticipantID) {
		if c.ParticipantID == nil || *c.ParticipantID != s.ParticipantID {
			return false
		}
	}
	// Lexicographic comparison of YYYY-MM-DD is chronological.
	if s.DateFrom != "" && c.CreateDate < s.DateFrom {
		return false
	}
	if s.DateTo != "" && c.CreateDate > s.DateTo {
		return false
	}
	return true
}

func wildcard(v string) bool {
	return v == "" || v == All
}
