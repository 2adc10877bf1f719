package extract

import (
	"regexp"
	"strings"

	"github.com/chuuk-lexicon/lexicon-cli/internal/grammar"
	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

// Inflection type markers recorded on synthesized/derived candidates.
const (
	InflectionPronounForm = "pronoun_form"
	InflectionDerivedForm = "derived_form"
)

// State is the running decomposition accumulator threaded across the lines
// of a page. It carries the last seen base word so continuation lines
// without an explicit anchor can still attach to a family.
//
// Known limitation, preserved deliberately: a line matching no pattern does
// not reset the state, so a later continuation line can be misattributed to
// an unrelated base word. There is no drift detection.
type State struct {
	BaseWord        string
	BaseTranslation string
}

// Decomposer expands a classified line into one or more candidate entries.
type Decomposer struct {
	vocab     *grammar.Vocabulary
	primary   string
	secondary string
}

// NewDecomposer returns a decomposer for the given language pair.
func NewDecomposer(vocab *grammar.Vocabulary, primaryLang, secondaryLang string) *Decomposer {
	return &Decomposer{vocab: vocab, primary: primaryLang, secondary: secondaryLang}
}

var leadingMarkerRe = regexp.MustCompile(`^([\p{L}.]{1,7}\.)\s+(.+)$`)

// splitMarker strips a recognized leading grammar marker ("v. remember")
// from a definition and returns the canonical tag plus the remainder.
func (d *Decomposer) splitMarker(def string) (tag, rest string) {
	g := leadingMarkerRe.FindStringSubmatch(strings.TrimSpace(def))
	if g == nil || !d.vocab.Known(g[1]) {
		return "", strings.TrimSpace(def)
	}
	return d.vocab.Normalize(g[1]), strings.TrimSpace(g[2])
}

// splitSegments splits a translation on top-level commas, leaving commas
// inside parentheses alone.
func splitSegments(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}

var embeddedPairRe = regexp.MustCompile(`^(` + wordExpr + `)` + sepExpr + `(.+)$`)

// newCandidate builds a forward-direction candidate with normalized fields
// and token indexes populated.
func (d *Decomposer) newCandidate(headword, translation string) model.Entry {
	return model.Entry{
		Headword:              strings.TrimSpace(headword),
		NormalizedHeadword:    model.Normalize(headword),
		Translation:           strings.TrimSpace(translation),
		NormalizedTranslation: model.Normalize(translation),
		Direction:             model.DirectionSourceToTarget,
		PrimaryLanguage:       d.primary,
		SecondaryLanguage:     d.secondary,
		ChuukeseTokens:        model.Tokenize(headword),
		EnglishTokens:         model.Tokenize(translation),
	}
}

// Decompose expands one classified line into candidate entries and returns
// the updated accumulator. Simple lines yield a single base-form candidate;
// complex lines additionally yield explicitly spelled-out derived forms and
// suffix-synthesized inflected forms.
func (d *Decomposer) Decompose(m LineMatch, st State) ([]model.Entry, State) {
	switch m.PatternID {
	case PatternSuffixList:
		return d.decomposeSuffixList(m, st)
	case PatternContinuation:
		return d.decomposeContinuation(m, st)
	default:
		return d.decomposePair(m, st)
	}
}

// decomposePair handles the word/definition patterns. The first translation
// segment defines the base form; later comma segments are either embedded
// "word – definition" derived forms or additional senses of the headword.
func (d *Decomposer) decomposePair(m LineMatch, st State) ([]model.Entry, State) {
	tag := ""
	if m.Marker != "" {
		tag = d.vocab.Normalize(m.Marker)
	}

	segments := splitSegments(m.Translation)
	primaryDef := segments[0]
	if tag == "" {
		tag, primaryDef = d.splitMarker(primaryDef)
	}

	base := d.newCandidate(m.Headword, primaryDef)
	base.Grammar = tag
	base.IsBaseWord = true
	base.BaseWord = base.NormalizedHeadword

	st.BaseWord = base.NormalizedHeadword
	st.BaseTranslation = base.Translation

	candidates := []model.Entry{base}

	for _, seg := range segments[1:] {
		if seg == "" {
			continue
		}
		if g := embeddedPairRe.FindStringSubmatch(seg); g != nil {
			// Explicit derived form sharing the line: rooted at the
			// primary base word, definition may carry its own marker.
			formTag, def := d.splitMarker(g[2])
			form := d.newCandidate(g[1], def)
			form.Grammar = formTag
			form.BaseWord = base.NormalizedHeadword
			form.InflectionType = InflectionDerivedForm
			candidates = append(candidates, form)
			continue
		}
		// Additional sense of the same headword.
		sense := d.newCandidate(m.Headword, seg)
		sense.Grammar = tag
		sense.IsBaseWord = true
		sense.BaseWord = base.NormalizedHeadword
		candidates = append(candidates, sense)
	}

	return candidates, st
}

// decomposeSuffixList emits the base form plus one synthesized inflected
// form per listed suffix. Each inflected form concatenates base+suffix
// (trailing '*' disambiguation marker stripped), inherits the shared
// definition with the pronoun hint appended, and records the literal suffix.
func (d *Decomposer) decomposeSuffixList(m LineMatch, st State) ([]model.Entry, State) {
	base := d.newCandidate(m.Headword, m.Translation)
	base.IsBaseWord = true
	base.BaseWord = base.NormalizedHeadword

	st.BaseWord = base.NormalizedHeadword
	st.BaseTranslation = base.Translation

	candidates := []model.Entry{base}

	for _, rawSuffix := range m.Suffixes {
		suffix := strings.TrimSuffix(rawSuffix, "*")
		if suffix == "" {
			continue
		}
		def := m.Translation
		if m.PronounHint != "" {
			def = m.Translation + " (" + m.PronounHint + ")"
		}
		form := d.newCandidate(m.Headword+suffix, def)
		form.BaseWord = base.NormalizedHeadword
		form.InflectionType = InflectionPronounForm
		form.Suffix = suffix
		candidates = append(candidates, form)
	}

	return candidates, st
}

// decomposeContinuation anchors a short lower-case entry to the running
// base word when one is known; otherwise the entry is its own singleton
// family root.
func (d *Decomposer) decomposeContinuation(m LineMatch, st State) ([]model.Entry, State) {
	tag, def := d.splitMarker(m.Translation)
	c := d.newCandidate(m.Headword, def)
	c.Grammar = tag
	if st.BaseWord != "" {
		c.BaseWord = st.BaseWord
		c.InflectionType = InflectionDerivedForm
	} else {
		c.IsBaseWord = true
		c.BaseWord = c.NormalizedHeadword
	}
	return []model.Entry{c}, st
}
