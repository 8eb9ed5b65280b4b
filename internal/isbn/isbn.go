// Package isbn validates and canonicalizes book identifiers.
//
// All codes are carried internally in ISBN-13 form; ISBN-10 input is
// upconverted. The first twelve digits of an ISBN-13 are stable across
// the check digit and identify the work lineage, so they double as the
// "same work, different edition" prefix key.
package isbn

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmpty is returned for records that carry no identifier at all.
	ErrEmpty = errors.New("isbn: empty identifier")
	// ErrInvalidFormat is returned when the cleaned string is not a
	// structurally valid ISBN-10 or ISBN-13.
	ErrInvalidFormat = errors.New("isbn: invalid format")
)

var (
	isbn13Re = regexp.MustCompile(`^97[89]\d{10}$`)
	isbn10Re = regexp.MustCompile(`^\d{9}[\dX]$`)
	stripRe  = regexp.MustCompile(`[-\s]`)
)

// ISBN is a validated identifier in canonical ISBN-13 form.
type ISBN struct {
	// Code is the 13-character canonical code.
	Code string
	// ChecksumOK records whether the check digit of the source code
	// verified. Crawled records routinely carry a mistyped final digit,
	// so a failed checksum downgrades confidence downstream but does
	// not reject the identifier: the work prefix is still usable.
	ChecksumOK bool
}

// Parse cleans and validates a raw identifier string. Structural
// failures return an error; callers in the matching path treat any error
// as "no identifier" and fall through to the normalized-key tiers.
func Parse(raw string) (ISBN, error) {
	if raw == "" {
		return ISBN{}, ErrEmpty
	}

	clean := strings.ToUpper(stripRe.ReplaceAllString(raw, ""))

	switch {
	case isbn13Re.MatchString(clean):
		return ISBN{Code: clean, ChecksumOK: clean[12] == checkDigit13(clean[:12])}, nil
	case isbn10Re.MatchString(clean):
		ok := clean[9] == checkDigit10(clean[:9])
		code := "978" + clean[:9]
		return ISBN{Code: code + string(checkDigit13(code)), ChecksumOK: ok}, nil
	default:
		return ISBN{}, ErrInvalidFormat
	}
}

// WorkPrefix returns the 12-digit prefix shared by all editions and
// formats in the same work lineage.
func (i ISBN) WorkPrefix() string {
	if len(i.Code) != 13 {
		return ""
	}
	return i.Code[:12]
}

// checkDigit13 computes the ISBN-13 check digit for a 12-digit prefix.
func checkDigit13(prefix string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(prefix[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}

// checkDigit10 computes the ISBN-10 check character for a 9-digit prefix.
func checkDigit10(prefix string) byte {
	sum := 0
	for i := 0; i < 9; i++ {
		sum += (10 - i) * int(prefix[i]-'0')
	}
	r := (11 - sum%11) % 11
	if r == 10 {
		return 'X'
	}
	return byte('0' + r)
}
