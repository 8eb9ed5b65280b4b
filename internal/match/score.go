package match

import (
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/yngdkt/fin-llm-dataset/internal/normalize"
)

// authorSimilarityThreshold is the Jaro-Winkler floor above which two
// normalized author names are considered the same person.
const authorSimilarityThreshold = 0.85

// Similarity scores two normalized keys in [0,1]. It blends rune-level
// edit distance (weighted 0.6) with word-overlap Jaccard (0.4): the edit
// component catches small orthographic drift, the token component keeps
// reordered subtitles from tanking the score.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	dist := edlib.LevenshteinDistance(a, b)
	maxLen := len([]rune(a))
	if n := len([]rune(b)); n > maxLen {
		maxLen = n
	}
	seq := 1.0 - float64(dist)/float64(maxLen)
	if seq < 0 {
		seq = 0
	}

	return 0.6*seq + 0.4*tokenJaccard(a, b)
}

// tokenJaccard computes word-set Jaccard overlap of two keys.
func tokenJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter

	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// AuthorAgreement compares two author lists order-insensitively after
// normalization, returning the fraction of the longer list that found a
// counterpart. Empty lists yield 0: absence of authors is no evidence
// either way.
func AuthorAgreement(a, b []string) float64 {
	na := normalize.Authors(a)
	nb := normalize.Authors(b)
	if len(na) == 0 || len(nb) == 0 {
		return 0
	}

	matched := 0
	used := make([]bool, len(nb))
	for _, x := range na {
		for j, y := range nb {
			if used[j] {
				continue
			}
			if sameAuthor(x, y) {
				used[j] = true
				matched++
				break
			}
		}
	}

	denom := len(na)
	if len(nb) > denom {
		denom = len(nb)
	}
	return float64(matched) / float64(denom)
}

// sameAuthor matches normalized author names exactly, by containment
// (partial names: "yamada" vs "yamadataro"), or by Jaro-Winkler
// similarity for transcription variants. Containment requires at least
// two runes on both sides; a lone CJK character would otherwise claim
// every name containing it.
func sameAuthor(x, y string) bool {
	if x == y {
		return true
	}
	if utf8.RuneCountInString(x) >= 2 && utf8.RuneCountInString(y) >= 2 &&
		(strings.Contains(x, y) || strings.Contains(y, x)) {
		return true
	}
	return float64(edlib.JaroWinklerSimilarity(x, y)) >= authorSimilarityThreshold
}
