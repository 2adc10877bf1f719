// Package grammar maps abbreviated, inconsistent part-of-speech and
// inflection tags found in printed-dictionary text to a canonical vocabulary.
package grammar

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Canonical grammar tags.
const (
	TagNoun             = "noun"
	TagVerb             = "verb"
	TagTransitiveVerb   = "transitive-verb"
	TagIntransitiveVerb = "intransitive-verb"
	TagAdjective        = "adjective"
	TagAdverb           = "adverb"
	TagPronoun          = "pronoun"
	TagPreposition      = "preposition"
	TagConjunction      = "conjunction"
	TagInterjection     = "interjection"
	TagParticle         = "particle"
	TagPrefix           = "prefix"
	TagSuffix           = "suffix"
	TagPhrase           = "phrase"
	// TagUnknown is the sentinel the merge resolver treats as replaceable.
	TagUnknown = "unknown"
)

// defaultAbbreviations maps lowercase dictionary abbreviations to canonical
// tags. Trailing periods are stripped before lookup.
var defaultAbbreviations = map[string]string{
	"n":       TagNoun,
	"noun":    TagNoun,
	"v":       TagVerb,
	"vb":      TagVerb,
	"verb":    TagVerb,
	"vt":      TagTransitiveVerb,
	"v.t":     TagTransitiveVerb,
	"vi":      TagIntransitiveVerb,
	"v.i":     TagIntransitiveVerb,
	"adj":     TagAdjective,
	"a":       TagAdjective,
	"adv":     TagAdverb,
	"pron":    TagPronoun,
	"prep":    TagPreposition,
	"conj":    TagConjunction,
	"interj":  TagInterjection,
	"int":     TagInterjection,
	"excl":    TagInterjection,
	"part":    TagParticle,
	"ptc":     TagParticle,
	"pref":    TagPrefix,
	"prefix":  TagPrefix,
	"suf":     TagSuffix,
	"suffix":  TagSuffix,
	"phr":     TagPhrase,
	"phrase":  TagPhrase,
	"unknown": TagUnknown,
}

// Vocabulary resolves raw grammar markers to canonical tags. The zero value
// is not usable; construct with NewVocabulary.
type Vocabulary struct {
	abbrev map[string]string
}

// NewVocabulary returns a vocabulary holding the built-in abbreviation set.
func NewVocabulary() *Vocabulary {
	m := make(map[string]string, len(defaultAbbreviations))
	for k, v := range defaultAbbreviations {
		m[k] = v
	}
	return &Vocabulary{abbrev: m}
}

// LoadOverrides merges extra abbreviation mappings from a YAML file of the
// form `abbreviation: canonical-tag`. Existing mappings are overridden.
func (v *Vocabulary) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "grammar: read overrides %s", path)
	}
	var extra map[string]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return eris.Wrapf(err, "grammar: parse overrides %s", path)
	}
	for k, tag := range extra {
		v.abbrev[strings.ToLower(strings.TrimSuffix(k, "."))] = tag
	}
	return nil
}

// Normalize maps a raw marker to its canonical tag. Lookup is
// case-insensitive and ignores a trailing period. Empty input stays empty;
// unrecognized input maps to TagUnknown.
func (v *Vocabulary) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	key := strings.ToLower(strings.TrimSuffix(raw, "."))
	if tag, ok := v.abbrev[key]; ok {
		return tag
	}
	return TagUnknown
}

// Known reports whether raw resolves to a canonical tag other than unknown.
func (v *Vocabulary) Known(raw string) bool {
	t := v.Normalize(raw)
	return t != "" && t != TagUnknown
}

// DetectInline scans a line for a recognized marker token (e.g. "v." or
// "adj.") and returns its canonical tag. Only dotted or exact abbreviation
// tokens count, so ordinary words like "a" mid-sentence don't trip it.
func (v *Vocabulary) DetectInline(line string) (string, bool) {
	for _, tok := range strings.Fields(line) {
		trimmed := strings.Trim(tok, "(),;")
		if !strings.HasSuffix(trimmed, ".") && len(trimmed) > 4 {
			continue
		}
		key := strings.ToLower(strings.TrimSuffix(trimmed, "."))
		if key == "" || key == "a" && !strings.HasSuffix(trimmed, ".") {
			continue
		}
		if tag, ok := v.abbrev[key]; ok {
			return tag, true
		}
	}
	return "", false
}
