// Package merge reconciles a newly extracted entry against the record
// already persisted for the same (headword, translation, direction) key.
package merge

import (
	"github.com/chuuk-lexicon/lexicon-cli/internal/grammar"
	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

// Resolve merges incoming into existing field-by-field and returns the
// merged record plus whether anything changed. The rules are deterministic
// and applied independently per field:
//
//   - grammar/inflection type: adopt incoming only if existing is empty or
//     the "unknown" sentinel
//   - direction/language fields: adopt incoming only if existing is unset
//   - definition notes / translation text: adopt incoming only if strictly
//     longer (longer usually means more context captured; a heuristic, not
//     a correctness guarantee)
//   - token indexes: adopt incoming only if existing is absent
//   - confidence: adopt incoming only if strictly greater
//   - alternate sources: always set-union the incoming provenance
//
// Applying the same incoming record twice is idempotent: no adoption rule
// fires a second time with unchanged inputs.
func Resolve(existing, incoming model.Entry) (model.Entry, bool) {
	merged := existing
	changed := false

	if replaceableTag(merged.Grammar) && !replaceableTag(incoming.Grammar) {
		merged.Grammar = incoming.Grammar
		changed = true
	}
	if merged.InflectionType == "" && incoming.InflectionType != "" {
		merged.InflectionType = incoming.InflectionType
		changed = true
	}
	if merged.Suffix == "" && incoming.Suffix != "" {
		merged.Suffix = incoming.Suffix
		changed = true
	}

	if merged.Direction == "" && incoming.Direction != "" {
		merged.Direction = incoming.Direction
		changed = true
	}
	if merged.PrimaryLanguage == "" && incoming.PrimaryLanguage != "" {
		merged.PrimaryLanguage = incoming.PrimaryLanguage
		changed = true
	}
	if merged.SecondaryLanguage == "" && incoming.SecondaryLanguage != "" {
		merged.SecondaryLanguage = incoming.SecondaryLanguage
		changed = true
	}

	if len(incoming.DefinitionNotes) > len(merged.DefinitionNotes) {
		merged.DefinitionNotes = incoming.DefinitionNotes
		changed = true
	}
	// Raw translation variants share one normalized key; keep the longer
	// surface form.
	if len(incoming.Translation) > len(merged.Translation) {
		merged.Translation = incoming.Translation
		changed = true
	}

	if len(merged.ChuukeseTokens) == 0 && len(incoming.ChuukeseTokens) > 0 {
		merged.ChuukeseTokens = incoming.ChuukeseTokens
		changed = true
	}
	if len(merged.EnglishTokens) == 0 && len(incoming.EnglishTokens) > 0 {
		merged.EnglishTokens = incoming.EnglishTokens
		changed = true
	}

	if incoming.Confidence > merged.Confidence {
		merged.Confidence = incoming.Confidence
		changed = true
	}

	if appendSource(&merged, incoming.Provenance) {
		changed = true
	}
	for _, src := range incoming.AlternateSources {
		if appendSource(&merged, src) {
			changed = true
		}
	}

	return merged, changed
}

func replaceableTag(tag string) bool {
	return tag == "" || tag == grammar.TagUnknown
}

// appendSource unions one provenance record into the entry's alternate
// sources, skipping the entry's own primary provenance.
func appendSource(e *model.Entry, src model.Provenance) bool {
	if src.PageID == "" || e.Provenance.Same(src) {
		return false
	}
	for _, existing := range e.AlternateSources {
		if existing.Same(src) {
			return false
		}
	}
	e.AlternateSources = append(e.AlternateSources, src)
	return true
}
