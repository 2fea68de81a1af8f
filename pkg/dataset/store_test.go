// ABOUTME: Tests for the dataset store
// ABOUTME: Verifies load lifecycle, failure handling, and accessors

package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lukketsvane/esperanto/pkg/query"
	"github.com/lukketsvane/esperanto/pkg/search"
)

const testPayload = `[
	{
		"conversation_id": "a",
		"title": "Hello World",
		"source_folder": "F1",
		"match_confidence": "high",
		"participant_id": "p1",
		"create_time": 1700000000,
		"mapping": {
			"1": {"message": {"author": {"role": "user"}, "content": {"parts": ["hi"]}}}
		}
	},
	{
		"conversation_id": "b",
		"title": "Second",
		"source_folder": "F2",
		"match_method": "timestamp_proximity",
		"match_confidence": 0.5,
		"create_time": 1700100000
	}
]`

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matched_conversations.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	s := NewStore()
	if s.Phase() != PhaseLoading {
		t.Errorf("Expected loading phase, got %s", s.Phase())
	}

	if err := s.LoadFile(writeTestFile(t, testPayload)); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if s.Phase() != PhaseReady {
		t.Errorf("Expected ready phase, got %s", s.Phase())
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 conversations, got %d", s.Len())
	}
	if s.Err() != nil {
		t.Errorf("Expected nil error after load, got %v", s.Err())
	}

	c, err := s.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if c.MatchConfidence != 0.95 {
		t.Errorf("Expected normalized confidence 0.95, got %v", c.MatchConfidence)
	}
	if c.FirstUserMessage != "hi" {
		t.Errorf("Expected excerpt 'hi', got '%s'", c.FirstUserMessage)
	}
}

func TestLoadFileMissing(t *testing.T) {
	s := NewStore()

	err := s.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
	if s.Phase() != PhaseError {
		t.Errorf("Expected error phase, got %s", s.Phase())
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty set after failed load, got %d", s.Len())
	}
}

func TestLoadFileMalformedJSON(t *testing.T) {
	s := NewStore()

	err := s.LoadFile(writeTestFile(t, `{"not": "an array"}`))
	if err == nil {
		t.Fatal("Expected error for non-array payload")
	}
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
	if s.Phase() != PhaseError || s.Len() != 0 {
		t.Errorf("Expected error phase with empty set, got %s with %d records", s.Phase(), s.Len())
	}
}

func TestLoadFileToleratesMalformedRecord(t *testing.T) {
	payload := `[
		{
			"conversation_id": "a",
			"title": "Hello World",
			"source_folder": "F1",
			"match_confidence": "high",
			"create_time": 1700000000
		},
		{
			"conversation_id": 5,
			"title": "Broken",
			"source_folder": "F3",
			"create_time": "oops"
		},
		"junk"
	]`

	s := NewStore()
	if err := s.LoadFile(writeTestFile(t, payload)); err != nil {
		t.Fatalf("LoadFile failed on a malformed record: %v", err)
	}
	if s.Phase() != PhaseReady {
		t.Fatalf("Expected ready phase, got %s", s.Phase())
	}

	// The well-formed record and the partially decodable one survive;
	// only the non-object element is dropped.
	if s.Len() != 2 {
		t.Fatalf("Expected 2 conversations, got %d", s.Len())
	}

	convs := s.Conversations()
	if convs[0].ConversationID != "a" {
		t.Errorf("Expected well-formed record first, got %q", convs[0].ConversationID)
	}

	broken := convs[1]
	if broken.Title != "Broken" || broken.SourceFolder != "F3" {
		t.Errorf("Expected clean fields retained, got title %q folder %q", broken.Title, broken.SourceFolder)
	}
	if broken.ConversationID != "" || broken.CreateTime != 0 {
		t.Errorf("Expected mismatched fields zeroed, got id %q create_time %v", broken.ConversationID, broken.CreateTime)
	}
}

func TestGetBeforeLoad(t *testing.T) {
	s := NewStore()

	_, err := s.Get("a")
	if !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Expected ErrNotLoaded before load, got %v", err)
	}

	s.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	_, err = s.Get("a")
	if !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Expected ErrNotLoaded after failed load, got %v", err)
	}
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testPayload))
	}))
	defer srv.Close()

	s := NewStore()
	if err := s.LoadURL(context.Background(), srv.URL); err != nil {
		t.Fatalf("LoadURL failed: %v", err)
	}
	if s.Phase() != PhaseReady || s.Len() != 2 {
		t.Errorf("Expected ready phase with 2 records, got %s with %d", s.Phase(), s.Len())
	}
}

func TestLoadURLNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewStore()
	err := s.LoadURL(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
	if s.Phase() != PhaseError {
		t.Errorf("Expected error phase, got %s", s.Phase())
	}
}

func TestGetNotFound(t *testing.T) {
	s := NewStore()
	if err := s.LoadFile(writeTestFile(t, testPayload)); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	_, err := s.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUniqueValues(t *testing.T) {
	s := NewStore()
	if err := s.LoadFile(writeTestFile(t, testPayload)); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if got := s.Folders(); !reflect.DeepEqual(got, []string{"F1", "F2"}) {
		t.Errorf("Folders = %v, want [F1 F2]", got)
	}
	// Record "a" has no match_method and defaults to explicit_id.
	if got := s.MatchMethods(); !reflect.DeepEqual(got, []string{"explicit_id", "timestamp_proximity"}) {
		t.Errorf("MatchMethods = %v", got)
	}
}

func TestStoreDerivedViews(t *testing.T) {
	s := NewStore()
	if err := s.LoadFile(writeTestFile(t, testPayload)); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	highOnly := s.Filter(query.FilterSpec{ConfidenceBucket: query.BucketHigh})
	if len(highOnly) != 1 || highOnly[0].ConversationID != "a" {
		t.Errorf("Expected high bucket to keep only 'a', got %d records", len(highOnly))
	}

	hits := s.Search(query.FilterSpec{}, "hello", search.ModeTitle)
	if len(hits) != 1 || hits[0].ConversationID != "a" {
		t.Errorf("Expected title search to find 'a', got %d hits", len(hits))
	}

	st := s.Stats(query.FilterSpec{Folder: "F2"})
	if st.TotalConversations != 1 {
		t.Errorf("Expected 1 conversation in F2 stats, got %d", st.TotalConversations)
	}
	if st.TotalParticipants != 0 {
		t.Errorf("Expected 0 participants in F2 (unresolved), got %d", st.TotalParticipants)
	}
}
