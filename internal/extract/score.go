package extract

import (
	"regexp"
	"strings"

	"github.com/chuuk-lexicon/lexicon-cli/internal/grammar"
)

// Confidence bounds. Every candidate lands inside this range no matter how
// weak or strong the signals are.
const (
	MinConfidence = 0.1
	MaxConfidence = 1.0
)

const baseScore = 0.3

// patternWeights rates extraction quality per pattern: explicit dash
// separators and suffix lists are strong signals, bare continuations weak.
var patternWeights = map[string]float64{
	PatternDashPair:        0.25,
	PatternGrammarDashPair: 0.30,
	PatternSuffixList:      0.25,
	PatternColonPair:       0.15,
	PatternNumbered:        0.15,
	PatternParenGrammar:    0.15,
	PatternContinuation:    0.05,
	PatternBulkImport:      0.35,
}

var pronounParenRe = regexp.MustCompile(`\((?:my|your|his|her|our|their|its|me|you|him|us|them|I|we|they)[^)]*\)`)

// scoreVocab is a fixed vocabulary so Score stays a pure function of its
// arguments. Runtime overrides do not affect scoring.
var scoreVocab = grammar.NewVocabulary()

// Score computes extraction confidence for one candidate. It is
// deterministic and pure: identical inputs always yield the identical
// float, which keeps merge behavior reproducible.
func Score(rawLine, patternID, headword, translation string) float64 {
	s := baseScore
	s += patternWeights[patternID]

	// Dash separators survive OCR more reliably than ad-hoc whitespace.
	if strings.ContainsAny(rawLine, "–—") {
		s += 0.10
	}

	if n := len([]rune(headword)); n >= 3 && n <= 20 {
		s += 0.10
	}
	if n := len([]rune(translation)); n >= 5 && n <= 80 {
		s += 0.10
	}

	if strings.ContainsAny(rawLine, "-,:()") {
		s += 0.05
	}

	// A pronoun-reference parenthetical means the suffix grammar parsed.
	if pronounParenRe.MatchString(translation) {
		s += 0.10
	}

	if _, ok := scoreVocab.DetectInline(rawLine); ok {
		s += 0.05
	}

	if n := len([]rune(rawLine)); n < 10 || n > 160 {
		s -= 0.15
	}

	if s < MinConfidence {
		return MinConfidence
	}
	if s > MaxConfidence {
		return MaxConfidence
	}
	return s
}
