package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yngdkt/fin-llm-dataset/internal/master"
	"github.com/yngdkt/fin-llm-dataset/internal/record"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	svc := master.NewService()
	if err := svc.Bootstrap([]record.BookRecord{
		{
			ID:      "work_a",
			Title:   "Corporate Finance",
			Authors: []string{"John Smith"},
			ISBN:    "9781234567890",
		},
		{
			ID:    "work_ib",
			Title: "Investment Banking Valuation and Leveraged Buyouts",
		},
	}); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return New(svc)
}

func TestHandleMatch(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/match",
		strings.NewReader(`{"title":"Whatever","isbn":"978-1-2345-6789-0"}`))
	w := httptest.NewRecorder()
	h.HandleMatch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Matched    bool    `json:"matched"`
		MatchedID  string  `json:"matched_record_id"`
		Confidence float64 `json:"confidence"`
		MatchType  string  `json:"match_type"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if !resp.Matched || resp.MatchedID != "work_a" || resp.MatchType != "identifier_exact" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Confidence != 1.0 {
		t.Errorf("Confidence = %f, want 1.0", resp.Confidence)
	}
}

func TestHandleMatchNoMatch(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/match",
		strings.NewReader(`{"title":"Quantum Gardening Adventures"}`))
	w := httptest.NewRecorder()
	h.HandleMatch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Matched bool `json:"matched"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Matched {
		t.Error("unrelated candidate reported as matched")
	}
}

func TestHandleMatchValidation(t *testing.T) {
	h := testHandler(t)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{name: "wrong method", method: http.MethodGet, body: "", want: http.StatusMethodNotAllowed},
		{name: "bad json", method: http.MethodPost, body: "{", want: http.StatusBadRequest},
		{name: "missing title", method: http.MethodPost, body: `{"isbn":"9781234567890"}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/match", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.HandleMatch(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestHandleRecords(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/records",
		strings.NewReader(`{"title":"Security Analysis","authors":["Benjamin Graham"]}`))
	req.Header.Set("X-Source", "amazon")
	w := httptest.NewRecorder()
	h.HandleRecords(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var decision master.Decision
	if err := json.Unmarshal(w.Body.Bytes(), &decision); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if decision.Action != master.ActionAdded {
		t.Errorf("Action = %s, want added", decision.Action)
	}
}

func TestHandleStats(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var stats struct {
		TotalRecords   int `json:"total_records"`
		WithIdentifier int `json:"identifier_coverage_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 2 {
		t.Errorf("TotalRecords = %d, want 2", stats.TotalRecords)
	}
	if stats.WithIdentifier != 1 {
		t.Errorf("WithIdentifier = %d, want 1", stats.WithIdentifier)
	}
}

func TestReviewLifecycle(t *testing.T) {
	h := testHandler(t)

	// Push a near-miss through ingestion so a review gets queued.
	req := httptest.NewRequest(http.MethodPost, "/api/records",
		strings.NewReader(`{"title":"Investment Banking Valuations and Leveraged Buyout"}`))
	w := httptest.NewRecorder()
	h.HandleRecords(w, req)

	var decision master.Decision
	if err := json.Unmarshal(w.Body.Bytes(), &decision); err != nil {
		t.Fatal(err)
	}
	if decision.Action != master.ActionReview {
		t.Fatalf("Action = %s, want review", decision.Action)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
	w = httptest.NewRecorder()
	h.HandleReviews(w, req)

	var reviews []master.Review
	if err := json.Unmarshal(w.Body.Bytes(), &reviews); err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 1 {
		t.Fatalf("review queue = %d entries, want 1", len(reviews))
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/reviews/"+reviews[0].ID, nil)
	w = httptest.NewRecorder()
	h.HandleReviewDetail(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("resolve status = %d, want 204", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/reviews/review_9999", nil)
	w = httptest.NewRecorder()
	h.HandleReviewDetail(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown review status = %d, want 404", w.Code)
	}
}
