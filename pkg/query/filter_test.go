// ABOUTME: Tests for the filter engine and sort orders
// ABOUTME: Verifies AND semantics, bucket thresholds, and filter laws

package query

import (
	"reflect"
	"testing"

	"github.com/lukketsvane/esperanto/pkg/record"
)

func strPtr(s string) *string { return &s }

func testConversations() []record.Conversation {
	return []record.Conversation{
		{
			ConversationID:  "c1",
			Title:           "Greetings",
			SourceFolder:    "F1",
			MatchMethod:     "explicit_id",
			MatchConfidence: 0.95,
			ParticipantID:   strPtr("p1"),
			CreateTime:      1700000000,
			CreateDate:      "2023-11-14",
			UserMsgCount:    3,
		},
		{
			ConversationID:  "c2",
			Title:           "Follow-up",
			SourceFolder:    "F1",
			MatchMethod:     "timestamp_proximity",
			MatchConfidence: 0.8,
			ParticipantID:   strPtr("p2"),
			CreateTime:      1700100000,
			CreateDate:      "2023-11-16",
			UserMsgCount:    1,
		},
		{
			ConversationID:  "c3",
			Title:           "Stray chat",
			SourceFolder:    "F2",
			MatchMethod:     "unmatched",
			MatchConfidence: 0.5,
			ParticipantID:   nil,
			CreateTime:      1700200000,
			CreateDate:      "2023-11-17",
			UserMsgCount:    2,
		},
	}
}

func ids(convs []record.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ConversationID
	}
	return out
}

func TestBucket(t *testing.T) {
	cases := []struct {
		confidence float64
		want       string
	}{
		{1.0, BucketHigh},
		{0.95, BucketHigh},
		{0.90, BucketHigh},
		{0.89, BucketMedium},
		{0.70, BucketMedium},
		{0.69, BucketLow},
		{0.0, BucketLow},
	}

	for _, tc := range cases {
		if got := Bucket(tc.confidence); got != tc.want {
			t.Errorf("Bucket(%v) = %s, want %s", tc.confidence, got, tc.want)
		}
	}
}

func TestFilterBuilder(t *testing.T) {
	spec := NewFilterBuilder().
		Folder("F1").
		MatchMethod("explicit_id").
		ConfidenceBucket(BucketHigh).
		ParticipantID("p1").
		DateRange("2023-11-01", "2023-11-30").
		Build()

	if spec.Folder != "F1" || spec.MatchMethod != "explicit_id" {
		t.Error("Builder did not set folder/method constraints")
	}
	if spec.ConfidenceBucket != BucketHigh || spec.ParticipantID != "p1" {
		t.Error("Builder did not set bucket/participant constraints")
	}
	if spec.DateFrom != "2023-11-01" || spec.DateTo != "2023-11-30" {
		t.Error("Builder did not set date range")
	}
}

func TestApplyNoConstraints(t *testing.T) {
	convs := testConversations()

	for _, spec := range []FilterSpec{{}, {Folder: All, MatchMethod: All, ConfidenceBucket: All, ParticipantID: All}} {
		got := Apply(convs, spec)
		if !reflect.DeepEqual(got, convs) {
			t.Errorf("Unconstrained filter changed content: %v", ids(got))
		}
	}
}

func TestApplyByDimension(t *testing.T) {
	convs := testConversations()

	cases := []struct {
		name string
		spec FilterSpec
		want []string
	}{
		{"folder", FilterSpec{Folder: "F1"}, []string{"c1", "c2"}},
		{"method", FilterSpec{MatchMethod: "unmatched"}, []string{"c3"}},
		{"bucket high", FilterSpec{ConfidenceBucket: BucketHigh}, []string{"c1"}},
		{"bucket medium", FilterSpec{ConfidenceBucket: BucketMedium}, []string{"c2"}},
		{"bucket low", FilterSpec{ConfidenceBucket: BucketLow}, []string{"c3"}},
		{"participant", FilterSpec{ParticipantID: "p2"}, []string{"c2"}},
		{"date from", FilterSpec{DateFrom: "2023-11-16"}, []string{"c2", "c3"}},
		{"date to", FilterSpec{DateTo: "2023-11-16"}, []string{"c1", "c2"}},
		{"date range inclusive", FilterSpec{DateFrom: "2023-11-16", DateTo: "2023-11-16"}, []string{"c2"}},
		{"and across fields", FilterSpec{Folder: "F1", ConfidenceBucket: BucketMedium}, []string{"c2"}},
		{"no match", FilterSpec{Folder: "F2", ParticipantID: "p1"}, []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Apply(convs, tc.spec))
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Apply(%+v) = %v, want %v", tc.spec, got, tc.want)
			}
		})
	}
}

func TestApplyNilParticipantNeverMatches(t *testing.T) {
	convs := testConversations()

	// c3 has no participant and must never appear under a participant
	// constraint, whatever the value.
	for _, id := range []string{"p1", "p2", "p3"} {
		for _, c := range Apply(convs, FilterSpec{ParticipantID: id}) {
			if c.ParticipantID == nil {
				t.Errorf("Nil participant matched spec %q", id)
			}
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	convs := testConversations()
	spec := FilterSpec{Folder: "F1", ConfidenceBucket: BucketHigh}

	once := Apply(convs, spec)
	twice := Apply(once, spec)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Filter not idempotent: %v vs %v", ids(once), ids(twice))
	}
}

func TestApplyMonotone(t *testing.T) {
	convs := testConversations()
	specs := []FilterSpec{
		{},
		{Folder: "F1"},
		{ConfidenceBucket: BucketHigh},
		{DateFrom: "2023-11-16"},
	}

	inputIDs := make(map[string]bool)
	for _, c := range convs {
		inputIDs[c.ConversationID] = true
	}

	for _, spec := range specs {
		for _, c := range Apply(convs, spec) {
			if !inputIDs[c.ConversationID] {
				t.Errorf("Filter produced id %q not in input", c.ConversationID)
			}
		}
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	convs := testConversations()

	got := ids(Apply(convs, FilterSpec{Folder: "F1"}))
	want := []string{"c1", "c2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter reordered records: %v", got)
	}
}

func TestSort(t *testing.T) {
	convs := testConversations()

	cases := []struct {
		name       string
		field      SortField
		descending bool
		want       []string
	}{
		{"time ascending", SortCreateTime, false, []string{"c1", "c2", "c3"}},
		{"time descending", SortCreateTime, true, []string{"c3", "c2", "c1"}},
		{"confidence descending", SortConfidence, true, []string{"c1", "c2", "c3"}},
		{"user msgs descending", SortUserMsgs, true, []string{"c1", "c3", "c2"}},
		{"title ascending", SortTitle, false, []string{"c2", "c1", "c3"}},
		{"unknown falls back to time", SortField("bogus"), false, []string{"c1", "c2", "c3"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Sort(convs, tc.field, tc.descending))
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Sort(%s, desc=%v) = %v, want %v", tc.field, tc.descending, got, tc.want)
			}
		})
	}

	// Input must be untouched.
	if got := ids(convs); !reflect.DeepEqual(got, []string{"c1", "c2", "c3"}) {
		t.Errorf("Sort mutated its input: %v", got)
	}
}
