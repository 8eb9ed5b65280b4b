// Package match implements the tiered deduplication matcher. Tiers run
// strictly in order of confidence; the first tier that clears its
// acceptance threshold wins and no lower tier may override it.
package match

import (
	"github.com/yngdkt/fin-llm-dataset/internal/index"
	"github.com/yngdkt/fin-llm-dataset/internal/isbn"
	"github.com/yngdkt/fin-llm-dataset/internal/normalize"
	"github.com/yngdkt/fin-llm-dataset/internal/record"
)

// Type labels which tier produced a match.
type Type string

const (
	IdentifierExact      Type = "identifier_exact"
	IdentifierPrefix     Type = "identifier_prefix"
	NormalizedExact      Type = "normalized_exact"
	AggressiveNormalized Type = "aggressive_normalized"
	FuzzyHigh            Type = "fuzzy_high"
	FuzzyMedium          Type = "fuzzy_medium"
)

// Confidence bands and thresholds. The fuzzy cutoffs are the reviewable
// contract: a score of exactly fuzzyHighThreshold is fuzzy_high, anything
// in [fuzzyMediumThreshold, fuzzyHighThreshold) needs human review, and
// below fuzzyMediumThreshold is no match at all.
const (
	identifierExactConfidence  = 1.0
	identifierPrefixConfidence = 0.98
	normalizedExactBase        = 0.95
	aggressiveNormalizedBase   = 0.90
	authorAgreementSpan        = 0.05
	fuzzyHighThreshold         = 0.80
	fuzzyMediumThreshold       = 0.70
	fuzzyConfidenceCeiling     = 0.90
	fuzzyAuthorBoost           = 0.10
)

// Result describes an accepted match.
type Result struct {
	// Record is the matched corpus record.
	Record record.BookRecord `json:"record"`
	// Confidence in [0,1].
	Confidence float64 `json:"confidence"`
	// Type is the tier that accepted the match.
	Type Type `json:"match_type"`
	// RequiresReview marks fuzzy_medium results, which must never be
	// auto-merged.
	RequiresReview bool `json:"requires_review"`
}

// Matcher answers "is this candidate already in the corpus?". It is
// stateless across queries; all state lives in the index.
type Matcher struct {
	idx *index.Index
}

// New creates a matcher over a built index.
func New(idx *index.Index) *Matcher {
	return &Matcher{idx: idx}
}

// FindMatch runs the candidate through the tiers and returns the first
// acceptable match, or false when the candidate looks like a new work.
func (m *Matcher) FindMatch(cand record.BookRecord) (*Result, bool) {
	// Tiers 1-2: identifier. Unparseable identifiers fall through.
	if id, err := isbn.Parse(cand.ISBN); err == nil {
		if hit, ok := m.idx.ByISBN(id.Code); ok {
			return &Result{Record: hit, Confidence: identifierExactConfidence, Type: IdentifierExact}, true
		}
		if bucket := m.idx.ByPrefix(id.WorkPrefix()); len(bucket) > 0 {
			return &Result{
				Record:     latestEdition(bucket),
				Confidence: identifierPrefixConfidence,
				Type:       IdentifierPrefix,
			}, true
		}
	}

	exactKey := normalize.Normalize(cand.FullTitle(), false)
	aggKey := normalize.Normalize(cand.FullTitle(), true)

	// Tier 3: exact-normalized title.
	if exactKey != "" {
		if bucket := m.idx.ByKey(exactKey, false); len(bucket) > 0 {
			best, agreement := bestByAuthor(cand, bucket)
			return &Result{
				Record:     best,
				Confidence: normalizedExactBase + authorAgreementSpan*agreement,
				Type:       NormalizedExact,
			}, true
		}
	}

	// Tier 4: aggressive-normalized title.
	if aggKey != "" {
		if bucket := m.idx.ByKey(aggKey, true); len(bucket) > 0 {
			best, agreement := bestByAuthor(cand, bucket)
			return &Result{
				Record:     best,
				Confidence: aggressiveNormalizedBase + authorAgreementSpan*agreement,
				Type:       AggressiveNormalized,
			}, true
		}
	}

	// Tier 5: bounded fuzzy comparison within the blocking neighborhood.
	return m.fuzzyMatch(cand, exactKey, aggKey)
}

// fuzzyMatch scores the candidate against records sharing blocking
// tokens. The candidate set is already capped by the index.
func (m *Matcher) fuzzyMatch(cand record.BookRecord, exactKey, aggKey string) (*Result, bool) {
	var best record.BookRecord
	bestScore := 0.0

	for _, other := range m.idx.FuzzyCandidates(exactKey) {
		otherExact, otherAgg, ok := m.idx.Keys(other.ID)
		if !ok {
			continue
		}

		score := Similarity(exactKey, otherExact)
		if s := Similarity(aggKey, otherAgg); s > score {
			score = s
		}
		if agreement := AuthorAgreement(cand.Authors, other.Authors); agreement > 0 {
			score += fuzzyAuthorBoost * agreement
			if score > 1 {
				score = 1
			}
		}

		if score > bestScore {
			bestScore = score
			best = other
		}
	}

	band, ok := FuzzyBand(bestScore)
	if !ok {
		return nil, false
	}

	confidence := bestScore
	if confidence > fuzzyConfidenceCeiling {
		confidence = fuzzyConfidenceCeiling
	}

	return &Result{
		Record:         best,
		Confidence:     confidence,
		Type:           band,
		RequiresReview: band == FuzzyMedium,
	}, true
}

// FuzzyBand maps a similarity score onto the fuzzy confidence bands.
// Scores at or above 0.80 are fuzzy_high, scores in [0.70, 0.80) are
// fuzzy_medium, and anything below 0.70 is not a match.
func FuzzyBand(score float64) (Type, bool) {
	switch {
	case score >= fuzzyHighThreshold:
		return FuzzyHigh, true
	case score >= fuzzyMediumThreshold:
		return FuzzyMedium, true
	default:
		return "", false
	}
}

// latestEdition picks the most recent record by publication year as the
// representative of a multi-edition prefix bucket.
func latestEdition(bucket []record.BookRecord) record.BookRecord {
	best := bucket[0]
	for _, rec := range bucket[1:] {
		if rec.Year > best.Year {
			best = rec
		}
	}
	return best
}

// bestByAuthor picks the bucket entry with the highest author agreement.
func bestByAuthor(cand record.BookRecord, bucket []record.BookRecord) (record.BookRecord, float64) {
	best := bucket[0]
	bestAgreement := AuthorAgreement(cand.Authors, best.Authors)
	for _, rec := range bucket[1:] {
		if agreement := AuthorAgreement(cand.Authors, rec.Authors); agreement > bestAgreement {
			bestAgreement = agreement
			best = rec
		}
	}
	return best, bestAgreement
}
