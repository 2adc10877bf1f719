package model

import "time"

// Direction indicates which way an entry is indexed for lookup.
type Direction string

const (
	// DirectionSourceToTarget indexes headword (source language) to translation.
	DirectionSourceToTarget Direction = "source_to_target"
	// DirectionTargetToSource is the synthetic reverse view of a forward entry.
	DirectionTargetToSource Direction = "target_to_source"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == DirectionSourceToTarget {
		return DirectionTargetToSource
	}
	return DirectionSourceToTarget
}

// Provenance records where an entry was extracted from.
type Provenance struct {
	PageID     string `json:"page_id"`
	Filename   string `json:"filename,omitempty"`
	LineNumber int    `json:"line_number"`
	RawLine    string `json:"raw_line,omitempty"`
	PatternID  string `json:"pattern_id,omitempty"`
}

// Same reports whether two provenance records refer to the same extraction
// site. Used for set-union semantics when merging alternate sources.
func (p Provenance) Same(o Provenance) bool {
	return p.PageID == o.PageID && p.LineNumber == o.LineNumber && p.PatternID == o.PatternID
}

// RelatedWord is a denormalized snapshot of a word-family sibling.
type RelatedWord struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Grammar     string `json:"grammar,omitempty"`
}

// EntryKey is the conflict-detection identity of an entry. It is not the
// storage id: repeated extractions of the same pair collapse onto one row
// per direction via the merge resolver.
type EntryKey struct {
	Headword    string
	Translation string
	Direction   Direction
}

// Entry is the atomic lexical record produced by the extraction pipeline.
type Entry struct {
	ID string `json:"id"`

	Headword              string `json:"headword"`
	NormalizedHeadword    string `json:"normalized_headword"`
	Translation           string `json:"translation"`
	NormalizedTranslation string `json:"normalized_translation"`

	Grammar         string `json:"grammar,omitempty"`
	DefinitionNotes string `json:"definition_notes,omitempty"`

	BaseWord       string `json:"base_word"`
	IsBaseWord     bool   `json:"is_base_word"`
	InflectionType string `json:"inflection_type,omitempty"`
	// Suffix is the literal suffix token a synthesized inflected form was
	// built from (trailing disambiguation markers stripped).
	Suffix string `json:"suffix,omitempty"`

	Confidence float64   `json:"confidence"`
	Direction  Direction `json:"direction"`

	PrimaryLanguage   string `json:"primary_language"`
	SecondaryLanguage string `json:"secondary_language"`

	ChuukeseTokens []string `json:"chuukese_tokens,omitempty"`
	EnglishTokens  []string `json:"english_tokens,omitempty"`

	Provenance       Provenance   `json:"provenance"`
	AlternateSources []Provenance `json:"alternate_sources,omitempty"`

	RelatedWords []RelatedWord `json:"related_words,omitempty"`
	FamilySize   int           `json:"family_size,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the conflict-detection key for deduplication and merge.
func (e *Entry) Key() EntryKey {
	return EntryKey{
		Headword:    e.NormalizedHeadword,
		Translation: e.NormalizedTranslation,
		Direction:   e.Direction,
	}
}

// Mirror returns the reverse-direction view of the entry. Only direction
// and language fields are swapped; the headword/translation pair is kept so
// both lookup directions resolve to the same lexical content.
func (e Entry) Mirror() Entry {
	m := e
	m.ID = ""
	m.Direction = e.Direction.Flip()
	m.PrimaryLanguage = e.SecondaryLanguage
	m.SecondaryLanguage = e.PrimaryLanguage
	return m
}

// HasInflectionMetadata reports whether the entry carries inflection info,
// used as a small relevance bonus by the ranker.
func (e *Entry) HasInflectionMetadata() bool {
	return e.InflectionType != "" || e.Suffix != ""
}
