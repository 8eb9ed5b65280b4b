// Package master builds and maintains the deduplicated master corpus.
// New source records are matched against the index; accepted matches are
// merged into the existing work, review-flagged matches are queued for a
// human, and everything else is added as a new work.
package master

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yngdkt/fin-llm-dataset/internal/index"
	"github.com/yngdkt/fin-llm-dataset/internal/match"
	"github.com/yngdkt/fin-llm-dataset/internal/normalize"
	"github.com/yngdkt/fin-llm-dataset/internal/record"
)

// Action is the dedup decision taken for one incoming record.
type Action string

const (
	ActionAdded   Action = "added"
	ActionMerged  Action = "merged"
	ActionReview  Action = "review"
	ActionSkipped Action = "skipped"
)

// Decision records what happened to a single ingested record.
type Decision struct {
	Action     Action     `yaml:"action"`
	Title      string     `yaml:"title"`
	WorkID     string     `yaml:"work_id,omitempty"`
	MatchedID  string     `yaml:"matched_id,omitempty"`
	Confidence float64    `yaml:"confidence,omitempty"`
	MatchType  match.Type `yaml:"match_type,omitempty"`
}

// Counts aggregates decisions over a run.
type Counts struct {
	Added   int `yaml:"added"`
	Merged  int `yaml:"merged"`
	Review  int `yaml:"review"`
	Skipped int `yaml:"skipped"`
}

// Service owns the master record list, its index, and the review queue.
// Ingest is serialized; match queries through Matcher() run lock-free
// against the index's own read locks.
type Service struct {
	mu        sync.Mutex
	idx       *index.Index
	matcher   *match.Matcher
	records   []record.BookRecord
	byID      map[string]int
	reviews   *ReviewStore
	decisions []Decision
	counts    Counts
}

// NewService creates a service with an empty master.
func NewService() *Service {
	idx := index.New()
	return &Service{
		idx:     idx,
		matcher: match.New(idx),
		byID:    make(map[string]int),
		reviews: NewReviewStore(),
	}
}

// Bootstrap loads an existing master corpus into the service. Records
// without a work ID get one assigned. Fails on duplicate IDs, which mean
// the master file is corrupt.
func (s *Service) Bootstrap(records []record.BookRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = s.assignWorkID(rec)
		}
		if _, exists := s.byID[rec.ID]; exists {
			return fmt.Errorf("bootstrap: duplicate work ID %q in master", rec.ID)
		}
		if err := s.idx.Add(rec); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		s.byID[rec.ID] = len(s.records)
		s.records = append(s.records, rec)
	}

	slog.Info("Master bootstrapped", "records", len(s.records))
	return nil
}

// Ingest runs one incoming record through deduplication and applies the
// resulting decision.
func (s *Service) Ingest(rec record.BookRecord, source string) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Title == "" {
		d := Decision{Action: ActionSkipped}
		s.record(d)
		return d
	}
	if source != "" && !contains(rec.Sources, source) {
		rec.Sources = append(rec.Sources, source)
	}

	res, ok := s.matcher.FindMatch(rec)

	switch {
	case ok && res.RequiresReview:
		s.reviews.Add(Review{
			Candidate:    rec,
			MatchedID:    res.Record.ID,
			MatchedTitle: res.Record.Title,
			Confidence:   res.Confidence,
			MatchType:    res.Type,
		})
		d := Decision{
			Action:     ActionReview,
			Title:      rec.Title,
			MatchedID:  res.Record.ID,
			Confidence: res.Confidence,
			MatchType:  res.Type,
		}
		s.record(d)
		slog.Info("Queued for review", "title", rec.Title, "matched", res.Record.ID, "confidence", res.Confidence)
		return d

	case ok:
		i := s.byID[res.Record.ID]
		s.records[i] = mergeRecords(s.records[i], rec)
		d := Decision{
			Action:     ActionMerged,
			Title:      rec.Title,
			WorkID:     res.Record.ID,
			MatchedID:  res.Record.ID,
			Confidence: res.Confidence,
			MatchType:  res.Type,
		}
		s.record(d)
		slog.Debug("Merged", "title", rec.Title, "into", res.Record.ID, "match_type", res.Type)
		return d

	default:
		rec.ID = s.assignWorkID(rec)
		if err := s.idx.Add(rec); err != nil {
			// Unreachable after assignWorkID de-collides; treat as skip.
			slog.Error("Failed to index new record", "title", rec.Title, "err", err)
			d := Decision{Action: ActionSkipped, Title: rec.Title}
			s.record(d)
			return d
		}
		s.byID[rec.ID] = len(s.records)
		s.records = append(s.records, rec)
		d := Decision{Action: ActionAdded, Title: rec.Title, WorkID: rec.ID}
		s.record(d)
		slog.Debug("Added", "title", rec.Title, "work_id", rec.ID)
		return d
	}
}

// IngestAll ingests a batch of records from one source.
func (s *Service) IngestAll(records []record.BookRecord, source string) Counts {
	before := s.Counts()
	for _, rec := range records {
		s.Ingest(rec, source)
	}
	after := s.Counts()
	return Counts{
		Added:   after.Added - before.Added,
		Merged:  after.Merged - before.Merged,
		Review:  after.Review - before.Review,
		Skipped: after.Skipped - before.Skipped,
	}
}

// Records returns a copy of the current master records in insertion
// order.
func (s *Service) Records() []record.BookRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]record.BookRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Reviews returns the pending review queue.
func (s *Service) Reviews() *ReviewStore {
	return s.reviews
}

// Index returns the underlying index, for stats and serving.
func (s *Service) Index() *index.Index {
	return s.idx
}

// Matcher returns the matcher bound to the master index.
func (s *Service) Matcher() *match.Matcher {
	return s.matcher
}

// Counts returns the run totals so far.
func (s *Service) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Decisions returns every decision taken so far, in order.
func (s *Service) Decisions() []Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Decision, len(s.decisions))
	copy(out, s.decisions)
	return out
}

func (s *Service) record(d Decision) {
	s.decisions = append(s.decisions, d)
	switch d.Action {
	case ActionAdded:
		s.counts.Added++
	case ActionMerged:
		s.counts.Merged++
	case ActionReview:
		s.counts.Review++
	case ActionSkipped:
		s.counts.Skipped++
	}
}

// assignWorkID derives a stable work ID from the aggressive title key and
// the primary author, de-colliding with a numeric suffix when two
// distinct works hash alike.
func (s *Service) assignWorkID(rec record.BookRecord) string {
	id := WorkID(rec.FullTitle(), rec.PrimaryAuthor())
	if _, taken := s.byID[id]; !taken {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if _, taken := s.byID[candidate]; !taken {
			return candidate
		}
	}
}

// WorkID computes the canonical dedup key for a title/author pair: the
// first 16 hex characters of the md5 of the aggressive key plus the
// normalized primary author.
func WorkID(title, author string) string {
	key := normalize.Normalize(title, true)
	if a := normalize.Author(author); a != "" {
		key += "_" + a
	}
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// mergeRecords folds an incoming duplicate into the existing work. The
// existing work ID and title are kept; empty fields are filled from the
// incoming record, sources are unioned, and a higher-numbered edition
// takes over the edition descriptor, year and ISBN.
func mergeRecords(existing, incoming record.BookRecord) record.BookRecord {
	merged := existing

	for _, src := range incoming.Sources {
		if !contains(merged.Sources, src) {
			merged.Sources = append(merged.Sources, src)
		}
	}

	if merged.Subtitle == "" {
		merged.Subtitle = incoming.Subtitle
	}
	if len(merged.Authors) == 0 {
		merged.Authors = incoming.Authors
	}
	if merged.ISBN == "" {
		merged.ISBN = incoming.ISBN
	}
	if merged.Edition == "" {
		merged.Edition = incoming.Edition
	}
	if merged.Year == 0 {
		merged.Year = incoming.Year
	}

	existingEd, _ := editionOf(existing)
	incomingEd, ok := editionOf(incoming)
	if ok && incomingEd > existingEd {
		merged.Edition = incoming.Edition
		if incoming.Year != 0 {
			merged.Year = incoming.Year
		}
		if incoming.ISBN != "" {
			merged.ISBN = incoming.ISBN
		}
	}

	return merged
}

// editionOf reads the edition ordinal from the descriptor field, falling
// back to the title.
func editionOf(rec record.BookRecord) (int, bool) {
	if n, ok := normalize.EditionNumber(rec.Edition); ok {
		return n, true
	}
	return normalize.EditionNumber(rec.FullTitle())
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// BackupMaster copies the current master file aside before a run mutates
// it. Missing masters are fine (first run).
func BackupMaster(masterPath, backupDir string) (string, error) {
	src, err := os.Open(masterPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open master for backup: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	stamp := time.Now().Format("2006-01-02_15-04-05")
	base := filepath.Base(masterPath)
	dstPath := filepath.Join(backupDir, fmt.Sprintf("%s.%s.bak", base, stamp))

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	slog.Info("Master backed up", "path", dstPath)
	return dstPath, nil
}
