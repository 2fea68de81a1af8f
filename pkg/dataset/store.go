// ABOUTME: In-memory canonical conversation store
// ABOUTME: One-shot load from file or URL, read-only for the session

package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/lukketsvane/esperanto/pkg/query"
	"github.com/lukketsvane/esperanto/pkg/record"
	"github.com/lukketsvane/esperanto/pkg/search"
	"github.com/lukketsvane/esperanto/pkg/stats"
)

// Phase is the load lifecycle state: loading -> ready | error.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseError
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Store holds the canonical conversation set. The set is built once by
// a Load call and never mutated afterwards; every derived structure is
// freshly allocated, so concurrent readers need no coordination beyond
// the phase guard.
type Store struct {
	mu    sync.RWMutex
	phase Phase
	err   error
	convs []record.Conversation
}

// NewStore creates an empty store in the loading phase.
func NewStore() *Store {
	return &Store{phase: PhaseLoading}
}

// LoadFile reads and normalizes a dataset from a local JSON file.
// On failure the store enters the error phase with an empty set.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return s.fail(fmt.Errorf("%w: read %s: %v", ErrNoData, path, err))
	}
	return s.load(data)
}

// LoadURL fetches and normalizes a dataset from a static URL. A
// non-2xx response or unreachable host fails the load; there is no
// retry.
func (s *Store) LoadURL(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return s.fail(fmt.Errorf("%w: build request: %v", ErrNoData, err))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return s.fail(fmt.Errorf("%w: fetch %s: %v", ErrNoData, url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.fail(fmt.Errorf("%w: fetch %s: status %d", ErrNoData, url, resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return s.fail(fmt.Errorf("%w: read response: %v", ErrNoData, err))
	}
	return s.load(data)
}

func (s *Store) load(data []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return s.fail(fmt.Errorf("%w: decode payload: %v", ErrNoData, err))
	}

	raw := make([]record.RawRecord, 0, len(elems))
	for _, elem := range elems {
		if r, ok := decodeRecord(elem); ok {
			raw = append(raw, r)
		}
	}

	convs := record.Normalize(raw)

	s.mu.Lock()
	s.convs = convs
	s.phase = PhaseReady
	s.err = nil
	s.mu.Unlock()
	return nil
}

// decodeRecord decodes one payload element. A record with
// type-mismatched fields keeps whatever fields decode cleanly; only a
// non-object element is dropped. A bad record never fails the batch.
func decodeRecord(elem json.RawMessage) (record.RawRecord, bool) {
	var raw record.RawRecord
	if err := json.Unmarshal(elem, &raw); err == nil {
		return raw, true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil {
		return record.RawRecord{}, false
	}

	var out record.RawRecord
	for name, v := range fields {
		switch name {
		case "conversation_id":
			json.Unmarshal(v, &out.ConversationID)
		case "title":
			json.Unmarshal(v, &out.Title)
		case "create_time":
			json.Unmarshal(v, &out.CreateTime)
		case "update_time":
			json.Unmarshal(v, &out.UpdateTime)
		case "source_folder":
			json.Unmarshal(v, &out.SourceFolder)
		case "participant_id":
			json.Unmarshal(v, &out.ParticipantID)
		case "match_method":
			json.Unmarshal(v, &out.MatchMethod)
		case "match_confidence":
			json.Unmarshal(v, &out.MatchConfidence)
		case "match_time_diff_minutes":
			json.Unmarshal(v, &out.MatchTimeDiffMinutes)
		case "mapping":
			json.Unmarshal(v, &out.Mapping)
		}
	}
	return out, true
}

func (s *Store) fail(err error) error {
	s.mu.Lock()
	s.convs = nil
	s.phase = PhaseError
	s.err = err
	s.mu.Unlock()
	return err
}

// Phase returns the current lifecycle phase.
func (s *Store) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Err returns the load error, nil unless the phase is error.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Len returns the size of the canonical set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}

// Conversations returns the canonical set. Callers must treat the
// slice as read-only.
func (s *Store) Conversations() []record.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.convs
}

// Get returns the conversation with the given ID. Before a successful
// load it returns ErrNotLoaded.
func (s *Store) Get(conversationID string) (record.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.phase != PhaseReady {
		return record.Conversation{}, ErrNotLoaded
	}

	for _, c := range s.convs {
		if c.ConversationID == conversationID {
			return c, nil
		}
	}
	return record.Conversation{}, fmt.Errorf("%w: %s", ErrNotFound, conversationID)
}

// Filter returns the subset matching the spec, preserving load order.
func (s *Store) Filter(spec query.FilterSpec) []record.Conversation {
	return query.Apply(s.Conversations(), spec)
}

// Search runs a term search over the subset matching the spec.
func (s *Store) Search(spec query.FilterSpec, term string, mode search.Mode) []record.Conversation {
	return search.Search(s.Filter(spec), term, mode)
}

// Stats computes dataset statistics over the subset matching the spec.
func (s *Store) Stats(spec query.FilterSpec) stats.Stats {
	return stats.CalculateStats(s.Filter(spec))
}

// Folders returns the sorted distinct source folders, for filter
// dropdowns.
func (s *Store) Folders() []string {
	return s.uniqueValues(func(c record.Conversation) string { return c.SourceFolder })
}

// MatchMethods returns the sorted distinct match methods.
func (s *Store) MatchMethods() []string {
	return s.uniqueValues(func(c record.Conversation) string { return c.MatchMethod })
}

func (s *Store) uniqueValues(key func(record.Conversation) string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, c := range s.convs {
		if v := key(c); v != "" {
			seen[v] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
