// Package handlers exposes the dedup engine over a small JSON API, used
// by the crawler fleet to check candidates before submitting them.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yngdkt/fin-llm-dataset/internal/master"
	"github.com/yngdkt/fin-llm-dataset/internal/record"
)

// Handler serves match queries against a bootstrapped master service.
type Handler struct {
	svc *master.Service
}

// New creates a handler over the given service.
func New(svc *master.Service) *Handler {
	return &Handler{svc: svc}
}

// matchResponse is the wire shape of a match query result.
type matchResponse struct {
	Matched        bool    `json:"matched"`
	MatchedID      string  `json:"matched_record_id,omitempty"`
	MatchedTitle   string  `json:"matched_title,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	MatchType      string  `json:"match_type,omitempty"`
	RequiresReview bool    `json:"requires_review,omitempty"`
}

// HandleMatch answers POST /api/match with the tiered match result for a
// candidate record. The candidate is not added to the corpus.
func (h *Handler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cand record.BookRecord
	if err := json.NewDecoder(r.Body).Decode(&cand); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if cand.Title == "" {
		h.writeError(w, "Missing required field: title", http.StatusBadRequest)
		return
	}

	res, ok := h.svc.Matcher().FindMatch(cand)
	if !ok {
		h.writeJSON(w, matchResponse{Matched: false})
		return
	}

	h.writeJSON(w, matchResponse{
		Matched:        true,
		MatchedID:      res.Record.ID,
		MatchedTitle:   res.Record.Title,
		Confidence:     res.Confidence,
		MatchType:      string(res.Type),
		RequiresReview: res.RequiresReview,
	})
}

// HandleRecords answers POST /api/records by ingesting a record through
// deduplication and reporting the decision.
func (h *Handler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rec record.BookRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	decision := h.svc.Ingest(rec, r.Header.Get("X-Source"))
	h.writeJSON(w, decision)
}

// HandleStats answers GET /api/stats with index diagnostics.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.svc.Index().Stats())
}

// HandleReviews serves the pending review queue: GET /api/reviews lists,
// DELETE /api/reviews/{id} resolves one.
func (h *Handler) HandleReviews(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, h.svc.Reviews().All())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleReviewDetail serves a single pending review.
func (h *Handler) HandleReviewDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/reviews/")

	review, exists := h.svc.Reviews().Get(id)
	if !exists {
		h.writeError(w, "Review not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, review)
	case http.MethodDelete:
		h.svc.Reviews().Resolve(id)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
