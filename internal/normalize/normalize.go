// Package normalize canonicalizes bibliographic strings for matching.
//
// Titles for the same work arrive from different sources with different
// orthography: full-width vs half-width characters, bracket styles,
// ideographic numerals, edition-label phrasing, subtitle delimiters. The
// normalizer folds all of that into deterministic keys. Two aggressiveness
// levels exist: the exact key preserves subtitle and a canonical edition
// token, the aggressive key strips everything that can legitimately differ
// between printings of the same work.
//
// All functions here are pure and total; characters no rule applies to
// pass through unchanged.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Bracket variants that NFKC compatibility folding leaves alone
// (lenticular, tortoise, corner brackets, curly quotes).
var bracketReplacer = strings.NewReplacer(
	"【", "[", "】", "]",
	"〔", "[", "〕", "]",
	"「", "\"", "」", "\"",
	"『", "\"", "』", "\"",
	"〈", "<", "〉", ">",
	"《", "<", "》", ">",
	"“", "\"", "”", "\"",
	"‘", "'", "’", "'",
)

// Ideographic numerals one through ten plus zero. Applied as a direct
// character mapping, the same way source records write them in edition
// labels (第三版, not 第三十二版).
var kanjiDigitReplacer = strings.NewReplacer(
	"十", "10",
	"〇", "0", "零", "0",
	"一", "1", "二", "2", "三", "3", "四", "4", "五", "5",
	"六", "6", "七", "7", "八", "8", "九", "9",
)

// CJK punctuation NFKC does not fold.
var punctReplacer = strings.NewReplacer(
	"、", ",", "。", ".",
	"・", " ", "･", " ", "‧", " ", "·", " ",
)

var (
	dashRe       = regexp.MustCompile(`[\x{2010}\x{2011}\x{2012}\x{2013}\x{2014}\x{2015}\x{2212}]`)
	ampersandRe  = regexp.MustCompile(`\s*&\s*`)
	separatorRe  = regexp.MustCompile(`\s*:\s*|\s+[-|/]\s+`)
	semicolonRe  = regexp.MustCompile(`;`)
	bracketedRe  = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|<[^>]*>`)
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N} ]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Numbered edition phrasings, each capturing the edition ordinal.
// Canonicalized to the single token "edition N". Order matters: the
// specific forms must run before the bare ones below so the number
// survives.
var numberedEditionRes = []*regexp.Regexp{
	regexp.MustCompile(`,?\s*(\d+)(?:st|nd|rd|th)\s+edition\b`),
	regexp.MustCompile(`,?\s*(\d+)(?:st|nd|rd|th)\s+ed\b\.?`),
	regexp.MustCompile(`,?\s*edition\s+(\d+)\b`),
	regexp.MustCompile(`,?\s*(\d+)e\b`),
	regexp.MustCompile(`,?\s*第\s*(\d+)\s*版`),
	regexp.MustCompile(`,?\s*改訂\s*(\d+)\s*版`),
}

var ordinalEditionRe = regexp.MustCompile(`,?\s*(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth)\s+edition\b`)

var ordinalWords = map[string]string{
	"first": "1", "second": "2", "third": "3", "fourth": "4", "fifth": "5",
	"sixth": "6", "seventh": "7", "eighth": "8", "ninth": "9", "tenth": "10",
}

// Edition phrasings that carry no ordinal. Canonicalized to the bare
// token "edition".
var bareEditionRes = []*regexp.Regexp{
	regexp.MustCompile(`,?\s*(?:revised|updated|new)\s+edition\b`),
	regexp.MustCompile(`,?\s*改訂新版`),
	regexp.MustCompile(`,?\s*新版`),
	regexp.MustCompile(`,?\s*増補\s*版`),
	regexp.MustCompile(`\[[^\]]*版[^\]]*\]`),
}

// Leading articles stripped in aggressive mode only.
var leadingArticles = []string{"the ", "a ", "an "}

// Normalize maps a raw title to a canonical key. With aggressive=false it
// produces the exact-normalized key; with aggressive=true the
// aggressive-normalized key, which additionally drops the edition token,
// bracketed asides, the leading article, the subtitle, and all spacing.
// Idempotent at both levels: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string, aggressive bool) string {
	if text == "" {
		return ""
	}

	t := width.Fold.String(text)
	t = norm.NFKC.String(t)
	t = bracketReplacer.Replace(t)
	t = kanjiDigitReplacer.Replace(t)
	t = dashRe.ReplaceAllString(t, "-")
	t = strings.ToLower(t)

	t = canonicalizeEditions(t, aggressive)

	t = punctReplacer.Replace(t)
	t = ampersandRe.ReplaceAllString(t, " and ")
	t = semicolonRe.ReplaceAllString(t, " ")

	if aggressive {
		t = bracketedRe.ReplaceAllString(t, "")
	}

	t = separatorRe.ReplaceAllString(t, ": ")

	t = whitespaceRe.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)

	if !aggressive {
		return t
	}

	for _, article := range leadingArticles {
		if strings.HasPrefix(t, article) {
			t = t[len(article):]
			break
		}
	}

	if i := strings.Index(t, ": "); i >= 0 {
		t = t[:i]
	}

	t = nonWordRe.ReplaceAllString(t, "")
	t = strings.ReplaceAll(t, " ", "")

	return t
}

// canonicalizeEditions rewrites every recognized edition phrasing to the
// canonical "edition N" token, or removes it entirely in aggressive mode.
func canonicalizeEditions(t string, aggressive bool) string {
	for _, re := range numberedEditionRes {
		if aggressive {
			t = re.ReplaceAllString(t, "")
		} else {
			t = re.ReplaceAllString(t, " edition ${1}")
		}
	}

	if aggressive {
		t = ordinalEditionRe.ReplaceAllString(t, "")
	} else {
		t = ordinalEditionRe.ReplaceAllStringFunc(t, func(m string) string {
			sub := ordinalEditionRe.FindStringSubmatch(m)
			return " edition " + ordinalWords[sub[1]]
		})
	}

	for _, re := range bareEditionRes {
		if aggressive {
			t = re.ReplaceAllString(t, "")
		} else {
			t = re.ReplaceAllString(t, " edition")
		}
	}

	return t
}

// EditionNumber extracts the edition ordinal from a title or edition
// descriptor. Returns false when no numbered edition phrasing is present
// ("revised edition", "新版" and friends carry no ordinal).
func EditionNumber(text string) (int, bool) {
	if text == "" {
		return 0, false
	}

	t := width.Fold.String(text)
	t = norm.NFKC.String(t)
	t = bracketReplacer.Replace(t)
	t = kanjiDigitReplacer.Replace(t)
	t = strings.ToLower(t)

	for _, re := range numberedEditionRes {
		if m := re.FindStringSubmatch(t); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n > 0 {
				return n, true
			}
		}
	}

	if m := ordinalEditionRe.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(ordinalWords[m[1]])
		return n, true
	}

	return 0, false
}

// IsCJK reports whether the rune belongs to the Japanese/Chinese script
// ranges the blocking layer needs to treat as unsegmented text. The
// prolonged sound mark U+30FC is script Common, but splitting a katakana
// run on it would shred the run into useless fragments, so it counts as
// part of the run.
func IsCJK(r rune) bool {
	if r == 'ー' {
		return true
	}
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}
