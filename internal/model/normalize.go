package model

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	foldCaser    = cases.Fold()
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// Normalize standardizes a headword or translation for conflict detection
// and lookup by:
//  1. Unicode NFC normalization (OCR output mixes composed/decomposed forms)
//  2. Case folding
//  3. Stripping asterisk disambiguation markers
//  4. Collapsing runs of whitespace
func Normalize(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = foldCaser.String(s)
	s = strings.ReplaceAll(s, "*", "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize splits a normalized phrase into lookup tokens, dropping
// punctuation-only fragments.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '(' || r == ')' || r == '.'
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
