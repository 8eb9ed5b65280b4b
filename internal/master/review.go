package master

import (
	"fmt"
	"sync"
	"time"

	"github.com/yngdkt/fin-llm-dataset/internal/match"
	"github.com/yngdkt/fin-llm-dataset/internal/record"
)

// Review is a fuzzy_medium match held back for a human decision. The
// candidate is not merged and not added to the master until resolved.
type Review struct {
	ID           string            `json:"id" yaml:"id"`
	Candidate    record.BookRecord `json:"candidate" yaml:"candidate"`
	MatchedID    string            `json:"matched_work_id" yaml:"matched_work_id"`
	MatchedTitle string            `json:"matched_title" yaml:"matched_title"`
	Confidence   float64           `json:"confidence" yaml:"confidence"`
	MatchType    match.Type        `json:"match_type" yaml:"match_type"`
	CreatedAt    time.Time         `json:"created_at" yaml:"created_at"`
}

// ReviewStore holds pending reviews. Safe for concurrent use.
type ReviewStore struct {
	mu      sync.RWMutex
	reviews map[string]*Review
	order   []string
}

// NewReviewStore creates an empty store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		reviews: make(map[string]*Review),
	}
}

// Add assigns the review an ID and stores it.
func (s *ReviewStore) Add(review Review) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	review.ID = fmt.Sprintf("review_%04d", len(s.order)+1)
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	s.reviews[review.ID] = &review
	s.order = append(s.order, review.ID)
	return review.ID
}

// Get returns a review by ID.
func (s *ReviewStore) Get(id string) (Review, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	review, exists := s.reviews[id]
	if !exists {
		return Review{}, false
	}
	return *review, true
}

// All returns pending reviews in creation order.
func (s *ReviewStore) All() []Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Review, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.reviews[id])
	}
	return out
}

// Resolve removes a review once a human has decided on it.
func (s *ReviewStore) Resolve(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reviews[id]; !exists {
		return
	}
	delete(s.reviews, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of pending reviews.
func (s *ReviewStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
