// HTTP handlers for the viewer API
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lukketsvane/esperanto/pkg/dataset"
	"github.com/lukketsvane/esperanto/pkg/export"
	"github.com/lukketsvane/esperanto/pkg/query"
	"github.com/lukketsvane/esperanto/pkg/record"
	"github.com/lukketsvane/esperanto/pkg/search"
	"github.com/lukketsvane/esperanto/pkg/stats"
)

const defaultPageSize = 100

// filterFromQuery builds a filter spec from the shared query
// parameters every view accepts.
func filterFromQuery(q url.Values) query.FilterSpec {
	return query.NewFilterBuilder().
		Folder(q.Get("folder")).
		MatchMethod(q.Get("method")).
		ConfidenceBucket(q.Get("confidence")).
		ParticipantID(q.Get("participant")).
		DateRange(q.Get("from"), q.Get("to")).
		Build()
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	subset := s.store.Filter(filterFromQuery(r.URL.Query()))

	writeJSON(w, http.StatusOK, map[string]any{
		"dataset_total":  s.store.Len(),
		"filtered_total": len(subset),
		"stats":          stats.CalculateStats(subset),
		"overview":       stats.Overview(subset),
	})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	subset := s.store.Filter(filterFromQuery(q))

	sortField := query.SortField(q.Get("sort"))
	if q.Get("sort") != "" && !query.ValidSortField(sortField) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown sort field %q", q.Get("sort")))
		return
	}
	if q.Get("sort") == "" {
		sortField = query.SortCreateTime
	}
	descending := q.Get("order") != "asc"

	sorted := query.Sort(subset, sortField, descending)

	offset := intParam(q, "offset", 0)
	limit := intParam(q, "limit", defaultPageSize)
	page := window(sorted, offset, limit)

	writeJSON(w, http.StatusOK, map[string]any{
		"total":         len(sorted),
		"offset":        offset,
		"count":         len(page),
		"conversations": page,
	})
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, dataset.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, dataset.ErrNotLoaded):
			writeError(w, http.StatusServiceUnavailable, dataset.RemediationMessage)
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	subset := s.store.Filter(filterFromQuery(r.URL.Query()))
	summaries := stats.BuildParticipantSummary(subset)

	writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(summaries),
		"participants": summaries,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	subset := s.store.Filter(filterFromQuery(r.URL.Query()))

	writeJSON(w, http.StatusOK, map[string]any{
		"confidence_tiers":      stats.ConfidenceTiers(subset),
		"conversations_by_date": stats.CalculateStats(subset).ConversationsByDate,
		"folders":               stats.FolderSummaries(subset),
		"messages":              stats.Overview(subset),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	mode := search.Mode(q.Get("mode"))
	if q.Get("mode") == "" {
		mode = search.ModeAll
	}
	if !search.ValidMode(mode) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown search mode %q", q.Get("mode")))
		return
	}

	subset := s.store.Filter(filterFromQuery(q))
	hits := search.Search(subset, q.Get("q"), mode)
	s.metrics.RecordSearch(len(hits))

	writeJSON(w, http.StatusOK, map[string]any{
		"term":          q.Get("q"),
		"mode":          mode,
		"count":         len(hits),
		"conversations": hits,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	subset := s.store.Filter(filterFromQuery(r.URL.Query()))

	csvData, err := export.ToCSV(subset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.RecordExport(len(subset))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="matched_conversations.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(csvData))
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"folders":            s.store.Folders(),
		"match_methods":      s.store.MatchMethods(),
		"confidence_buckets": []string{query.BucketHigh, query.BucketMedium, query.BucketLow},
		"search_modes":       []search.Mode{search.ModeTitle, search.ModeMessage, search.ModeParticipant, search.ModeAll},
	})
}

func intParam(q url.Values, name string, fallback int) int {
	v := q.Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func window(convs []record.Conversation, offset, limit int) []record.Conversation {
	if offset >= len(convs) {
		return []record.Conversation{}
	}
	end := offset + limit
	if end > len(convs) {
		end = len(convs)
	}
	return convs[offset:end]
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
