package extract

import (
	"strings"
	"unicode"

	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

// Structural bounds for an acceptable candidate.
const (
	minHeadwordLen    = 2
	maxHeadwordLen    = 40
	minTranslationLen = 3
	maxTranslationLen = 250
)

// reservedMarkers are grammatical-marker tokens that can never be headwords;
// a "headword" equal to one of these is a mis-split marker, not a word.
var reservedMarkers = map[string]struct{}{
	"v":    {},
	"n":    {},
	"adj":  {},
	"adv":  {},
	"prep": {},
}

// Validate applies structural sanity checks to a candidate. Rejection is
// silent filtering: downstream counts simply reflect fewer accepted entries.
func Validate(e *model.Entry) bool {
	head := strings.TrimSpace(e.Headword)
	trans := strings.TrimSpace(e.Translation)

	if n := len([]rune(head)); n < minHeadwordLen || n > maxHeadwordLen {
		return false
	}
	if n := len([]rune(trans)); n < minTranslationLen || n > maxTranslationLen {
		return false
	}

	if _, reserved := reservedMarkers[strings.ToLower(head)]; reserved {
		return false
	}

	// Headword must be alphabetic once hyphen/asterisk/space are ignored.
	for _, r := range head {
		if r == '-' || r == '*' || r == ' ' || r == '\'' {
			continue
		}
		if !unicode.IsLetter(r) {
			return false
		}
	}

	return true
}
