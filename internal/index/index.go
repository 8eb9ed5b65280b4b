// Package index holds the in-memory lookup structures for the dedup
// engine. The index is the single owner of the identifier, work-prefix,
// normalized-key and blocking-token mappings; it is built once from the
// corpus and grown incrementally, never shrunk.
package index

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/yngdkt/fin-llm-dataset/internal/isbn"
	"github.com/yngdkt/fin-llm-dataset/internal/normalize"
	"github.com/yngdkt/fin-llm-dataset/internal/record"
)

// maxFuzzyCandidates caps the candidate set handed to the fuzzy tier so a
// pathological bucket (thousands of records sharing a generic token)
// degrades to a bounded comparison instead of unbounded per-query cost.
const maxFuzzyCandidates = 128

// minTokenOverlap is the fraction of a query's blocking tokens a record
// must share to become a fuzzy candidate.
const minTokenOverlap = 0.3

type entry struct {
	rec      record.BookRecord
	exactKey string
	aggKey   string
	code     string // canonical ISBN-13, "" when absent
}

// Stats is a read-only diagnostic snapshot of the index.
type Stats struct {
	TotalRecords      int `json:"total_records"`
	WithIdentifier    int `json:"identifier_coverage_count"`
	PrefixBuckets     int `json:"prefix_buckets"`
	ExactBuckets      int `json:"exact_buckets"`
	AggressiveBuckets int `json:"aggressive_buckets"`
	BlockingTokens    int `json:"blocking_tokens"`
}

// Index maps identifiers and normalized keys to records. Queries are safe
// to run concurrently; Add is serialized behind a single writer lock.
type Index struct {
	mu       sync.RWMutex
	entries  map[string]*entry   // record ID -> entry
	order    []string            // insertion order of record IDs
	byCode   map[string]string   // full ISBN-13 -> record ID
	byPrefix map[string][]string // work prefix -> record IDs
	byExact  map[string][]string // exact-normalized key -> record IDs
	byAgg    map[string][]string // aggressive-normalized key -> record IDs
	byToken  map[string][]string // blocking token -> record IDs
}

// New creates an empty index.
func New() *Index {
	return &Index{
		entries:  make(map[string]*entry),
		byCode:   make(map[string]string),
		byPrefix: make(map[string][]string),
		byExact:  make(map[string][]string),
		byAgg:    make(map[string][]string),
		byToken:  make(map[string][]string),
	}
}

// Build populates the index from an existing corpus in one pass.
// Duplicate record IDs are a programming error at the ingestion boundary
// and abort construction.
func (ix *Index) Build(records []record.BookRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for i, rec := range records {
		if err := ix.add(rec); err != nil {
			return fmt.Errorf("build: record %d: %w", i, err)
		}
	}
	return nil
}

// Add inserts a single record into all applicable mappings. Records
// without an ID get a sequential one assigned. Existing entries are never
// removed or overwritten.
func (ix *Index) Add(rec record.BookRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.add(rec)
}

// add does the insertion; callers hold the write lock.
func (ix *Index) add(rec record.BookRecord) error {
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("rec_%05d", len(ix.order)+1)
	}
	if _, exists := ix.entries[rec.ID]; exists {
		return fmt.Errorf("duplicate record ID %q", rec.ID)
	}

	e := &entry{
		rec:      rec,
		exactKey: normalize.Normalize(rec.FullTitle(), false),
		aggKey:   normalize.Normalize(rec.FullTitle(), true),
	}

	if id, err := isbn.Parse(rec.ISBN); err == nil {
		e.code = id.Code
		// First edition seen for a code wins; later duplicates are
		// exactly what the matcher is there to catch.
		if _, taken := ix.byCode[id.Code]; !taken {
			ix.byCode[id.Code] = rec.ID
		}
		prefix := id.WorkPrefix()
		ix.byPrefix[prefix] = append(ix.byPrefix[prefix], rec.ID)
	}

	if e.exactKey != "" {
		ix.byExact[e.exactKey] = append(ix.byExact[e.exactKey], rec.ID)
	}
	if e.aggKey != "" {
		ix.byAgg[e.aggKey] = append(ix.byAgg[e.aggKey], rec.ID)
	}
	for _, tok := range BlockingTokens(e.exactKey) {
		ix.byToken[tok] = append(ix.byToken[tok], rec.ID)
	}

	ix.entries[rec.ID] = e
	ix.order = append(ix.order, rec.ID)

	return nil
}

// ByISBN returns the record indexed under the full canonical code.
func (ix *Index) ByISBN(code string) (record.BookRecord, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	id, ok := ix.byCode[code]
	if !ok {
		return record.BookRecord{}, false
	}
	return ix.entries[id].rec, true
}

// ByPrefix returns all records sharing a work prefix (one per known
// edition/format).
func (ix *Index) ByPrefix(prefix string) []record.BookRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.collect(ix.byPrefix[prefix])
}

// ByKey returns the blocking bucket for a normalized key at the given
// aggressiveness level.
func (ix *Index) ByKey(key string, aggressive bool) []record.BookRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if aggressive {
		return ix.collect(ix.byAgg[key])
	}
	return ix.collect(ix.byExact[key])
}

// FuzzyCandidates returns records sharing enough blocking tokens with the
// given exact-normalized key to be worth a bounded fuzzy comparison. The
// result is capped at maxFuzzyCandidates, best-overlapping first.
func (ix *Index) FuzzyCandidates(exactKey string) []record.BookRecord {
	tokens := BlockingTokens(exactKey)
	if len(tokens) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	counts := make(map[string]int)
	for _, tok := range tokens {
		for _, id := range ix.byToken[tok] {
			counts[id]++
		}
	}

	minMatches := int(float64(len(tokens)) * minTokenOverlap)
	if minMatches < 1 {
		minMatches = 1
	}

	type scored struct {
		id    string
		count int
	}
	candidates := make([]scored, 0, len(counts))
	for id, count := range counts {
		if count >= minMatches {
			candidates = append(candidates, scored{id, count})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].id < candidates[j].id
	})
	if len(candidates) > maxFuzzyCandidates {
		candidates = candidates[:maxFuzzyCandidates]
	}

	out := make([]record.BookRecord, len(candidates))
	for i, c := range candidates {
		out[i] = ix.entries[c.id].rec
	}
	return out
}

// Keys returns the cached normalized keys for an indexed record. Used by
// the fuzzy tier so candidate keys are not recomputed per comparison.
func (ix *Index) Keys(id string) (exact, aggressive string, ok bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	e, found := ix.entries[id]
	if !found {
		return "", "", false
	}
	return e.exactKey, e.aggKey, true
}

// Len returns the number of indexed records.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.order)
}

// Records returns all indexed records in insertion order.
func (ix *Index) Records() []record.BookRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.collect(ix.order)
}

// Stats returns index counters for diagnostics.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	withID := 0
	for _, e := range ix.entries {
		if e.code != "" {
			withID++
		}
	}

	return Stats{
		TotalRecords:      len(ix.order),
		WithIdentifier:    withID,
		PrefixBuckets:     len(ix.byPrefix),
		ExactBuckets:      len(ix.byExact),
		AggressiveBuckets: len(ix.byAgg),
		BlockingTokens:    len(ix.byToken),
	}
}

// collect resolves IDs to records; callers hold at least the read lock.
func (ix *Index) collect(ids []string) []record.BookRecord {
	if len(ids) == 0 {
		return nil
	}
	out := make([]record.BookRecord, len(ids))
	for i, id := range ids {
		out[i] = ix.entries[id].rec
	}
	return out
}

// Function words and generic bibliography fillers that would put half the
// corpus into one bucket.
var stopTokens = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "into": {},
	"edition": {},
	"introduction": {}, "guide": {}, "handbook": {}, "manual": {}, "primer": {},
	"fundamentals": {}, "essentials": {}, "basics": {}, "principles": {},
	"comprehensive": {}, "complete": {}, "practical": {}, "advanced": {},
}

// BlockingTokens derives the significant tokens of an exact-normalized
// key. Space-separated scripts contribute whole words (3+ letters, non
// stopword); CJK runs are unsegmented, so they contribute character
// trigrams instead.
func BlockingTokens(exactKey string) []string {
	if exactKey == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	emit := func(tok string) {
		if _, dup := seen[tok]; !dup {
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}

	for _, field := range strings.Fields(exactKey) {
		var word []rune
		var cjk []rune
		flushCJK := func() {
			if len(cjk) == 0 {
				return
			}
			if len(cjk) < 3 {
				emit(string(cjk))
			}
			for i := 0; i+3 <= len(cjk); i++ {
				emit(string(cjk[i : i+3]))
			}
			cjk = cjk[:0]
		}
		for _, r := range field {
			switch {
			case normalize.IsCJK(r):
				cjk = append(cjk, r)
			case unicode.IsLetter(r) || unicode.IsDigit(r):
				flushCJK()
				word = append(word, r)
			}
		}
		flushCJK()

		if len(word) >= 3 {
			tok := string(word)
			if _, stop := stopTokens[tok]; !stop {
				emit(tok)
			}
		}
	}

	return out
}
