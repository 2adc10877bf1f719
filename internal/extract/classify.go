// Package extract turns raw OCR or bulk-import text into candidate
// dictionary entries: line classification, decomposition into base and
// inflected forms, confidence scoring, and structural validation.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Pattern ids, in priority order. Decomposition behavior is keyed on these,
// so the order of the pattern table below is load-bearing: the first match
// wins and there is no backtracking across patterns.
const (
	PatternDashPair        = "dash_pair"
	PatternGrammarDashPair = "grammar_dash_pair"
	PatternSuffixList      = "suffix_list"
	PatternColonPair       = "colon_pair"
	PatternNumbered        = "numbered"
	PatternContinuation    = "continuation"
	PatternParenGrammar    = "paren_grammar"
	// PatternBulkImport marks entries that came from delimited rows rather
	// than classified lines.
	PatternBulkImport = "bulk_import"
)

// LineMatch is the classifier's view of one accepted line.
type LineMatch struct {
	PatternID   string
	Headword    string
	Translation string
	Marker      string   // raw grammar marker, if the pattern captured one
	Suffixes    []string // comma-separated suffix tokens (suffix_list only)
	PronounHint string   // parenthetical pronoun gloss (suffix_list only)
}

const (
	// sepExpr matches entry separators. En/em dashes may be flush against
	// the words (OCR drops spaces); a plain hyphen must be space-padded so
	// intra-word hyphens don't split headwords.
	sepExpr  = `(?:\s*[–—]\s*|\s+-\s+)`
	wordExpr = `[\p{L}][\p{L}'\-]*(?:\s[\p{L}][\p{L}'\-]*){0,3}`
)

type linePattern struct {
	id      string
	re      *regexp.Regexp
	extract func(groups []string) LineMatch
}

var patterns = []linePattern{
	{
		id: PatternDashPair,
		re: regexp.MustCompile(`^(` + wordExpr + `)` + sepExpr + `(.+)$`),
		extract: func(g []string) LineMatch {
			return LineMatch{Headword: g[1], Translation: g[2]}
		},
	},
	{
		id: PatternGrammarDashPair,
		re: regexp.MustCompile(`^(` + wordExpr + `)\s+((?:v\.?t|v\.?i|v|n|adj|adv|pron|prep|conj|interj|part)\.?)` + sepExpr + `(.+)$`),
		extract: func(g []string) LineMatch {
			return LineMatch{Headword: g[1], Marker: g[2], Translation: g[3]}
		},
	},
	{
		id: PatternSuffixList,
		re: regexp.MustCompile(`^(` + wordExpr + `),\s*((?:[\p{L}'\-]+\*?,\s*)*[\p{L}'\-]+\*?)` + sepExpr + `(.+?)\s*\(([^)]+)\)\s*$`),
		extract: func(g []string) LineMatch {
			return LineMatch{
				Headword:    g[1],
				Suffixes:    splitSuffixes(g[2]),
				Translation: g[3],
				PronounHint: g[4],
			}
		},
	},
	{
		id: PatternColonPair,
		re: regexp.MustCompile(`^(` + wordExpr + `):\s+(.+)$`),
		extract: func(g []string) LineMatch {
			return LineMatch{Headword: g[1], Translation: g[2]}
		},
	},
	{
		id: PatternNumbered,
		re: regexp.MustCompile(`^\d{1,3}[.)]\s+(` + wordExpr + `)(?:` + sepExpr + `|:\s*)(.+)$`),
		extract: func(g []string) LineMatch {
			return LineMatch{Headword: g[1], Translation: g[2]}
		},
	},
	{
		id: PatternContinuation,
		re: regexp.MustCompile(`^(\p{Ll}[\p{L}'\-]{1,14})\s+([\p{L}].{2,60})$`),
		extract: func(g []string) LineMatch {
			return LineMatch{Headword: g[1], Translation: g[2]}
		},
	},
	{
		id: PatternParenGrammar,
		re: regexp.MustCompile(`^(` + wordExpr + `)\s+\(([^)]{1,12})\)\s*(?:[:–—-]\s*)?(.+)$`),
		extract: func(g []string) LineMatch {
			return LineMatch{Headword: g[1], Marker: g[2], Translation: g[3]}
		},
	},
}

func splitSuffixes(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// noiseRes are line signatures rejected before any pattern is tried:
// page/section headers, page numbers, and known boilerplate column headers.
var noiseRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^page\s+\d+`),
	regexp.MustCompile(`(?i)^\d+\s*$`),
	regexp.MustCompile(`(?i)^(section|chapter|part)\s+[\dIVXivx]+`),
	regexp.MustCompile(`(?i)^chuukese\s*[-–—|]?\s*english\s*$`),
	regexp.MustCompile(`(?i)^english\s*[-–—|]?\s*chuukese\s*$`),
	regexp.MustCompile(`(?i)^(word|headword)\s+(definition|translation|meaning)\s*$`),
}

// IsNoise reports whether a line should be dropped before pattern matching.
func IsNoise(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if !strings.ContainsFunc(line, unicode.IsLetter) {
		return true
	}
	for _, re := range noiseRes {
		if re.MatchString(line) {
			return true
		}
	}
	// Short all-caps lines are section headers, not entries.
	if len(line) <= 30 && line == strings.ToUpper(line) && line != strings.ToLower(line) {
		return true
	}
	return false
}

// Classify runs the ordered pattern table over a line. The first matching
// pattern wins. A line that matches nothing is silently droppable; that is
// intentional lossy behavior, not an error.
func Classify(line string) (LineMatch, bool) {
	line = strings.TrimSpace(line)
	for _, p := range patterns {
		if g := p.re.FindStringSubmatch(line); g != nil {
			m := p.extract(g)
			m.PatternID = p.id
			return m, true
		}
	}
	return LineMatch{}, false
}
