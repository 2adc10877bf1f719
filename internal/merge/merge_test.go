package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuuk-lexicon/lexicon-cli/internal/grammar"
	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

func baseEntry() model.Entry {
	return model.Entry{
		ID:                    "existing-id",
		Headword:              "angang",
		NormalizedHeadword:    "angang",
		Translation:           "work",
		NormalizedTranslation: "work",
		Grammar:               grammar.TagUnknown,
		Confidence:            0.55,
		Direction:             model.DirectionSourceToTarget,
		Provenance:            model.Provenance{PageID: "p1", LineNumber: 3, PatternID: "dash_pair"},
	}
}

func TestResolveAdoptsGrammarOverUnknown(t *testing.T) {
	existing := baseEntry()
	incoming := baseEntry()
	incoming.Grammar = grammar.TagVerb

	merged, changed := Resolve(existing, incoming)
	assert.True(t, changed)
	assert.Equal(t, grammar.TagVerb, merged.Grammar)
}

func TestResolveKeepsKnownGrammar(t *testing.T) {
	existing := baseEntry()
	existing.Grammar = grammar.TagNoun
	incoming := baseEntry()
	incoming.Grammar = grammar.TagVerb

	merged, _ := Resolve(existing, incoming)
	assert.Equal(t, grammar.TagNoun, merged.Grammar, "a known tag is never overwritten")
}

func TestResolveLongerDefinitionWins(t *testing.T) {
	existing := baseEntry()
	existing.DefinitionNotes = "short"
	incoming := baseEntry()
	incoming.DefinitionNotes = "a considerably longer note with context"

	merged, changed := Resolve(existing, incoming)
	assert.True(t, changed)
	assert.Equal(t, incoming.DefinitionNotes, merged.DefinitionNotes)

	// Equal length does not replace.
	again, changedAgain := Resolve(merged, incoming)
	assert.False(t, changedAgain)
	assert.Equal(t, merged.DefinitionNotes, again.DefinitionNotes)
}

func TestResolveLongerTranslationSurfaceWins(t *testing.T) {
	existing := baseEntry()
	existing.Translation = "work"
	incoming := baseEntry()
	incoming.Translation = "work, labor"
	incoming.NormalizedTranslation = existing.NormalizedTranslation

	merged, changed := Resolve(existing, incoming)
	assert.True(t, changed)
	assert.Equal(t, "work, labor", merged.Translation)
}

func TestResolveConfidenceStrictlyGreater(t *testing.T) {
	existing := baseEntry()
	incoming := baseEntry()
	incoming.Confidence = 0.8

	merged, changed := Resolve(existing, incoming)
	assert.True(t, changed)
	assert.Equal(t, 0.8, merged.Confidence)

	lower := baseEntry()
	lower.Confidence = 0.3
	merged2, changed2 := Resolve(merged, lower)
	assert.False(t, changed2)
	assert.Equal(t, 0.8, merged2.Confidence)
}

func TestResolveUnionsAlternateSources(t *testing.T) {
	existing := baseEntry()
	incoming := baseEntry()
	incoming.Provenance = model.Provenance{PageID: "p2", LineNumber: 9, PatternID: "colon_pair"}

	merged, changed := Resolve(existing, incoming)
	require.True(t, changed)
	require.Len(t, merged.AlternateSources, 1)
	assert.Equal(t, "p2", merged.AlternateSources[0].PageID)

	// Same site again: set semantics, no duplicate.
	merged2, changed2 := Resolve(merged, incoming)
	assert.False(t, changed2)
	assert.Len(t, merged2.AlternateSources, 1)
}

func TestResolveSkipsOwnProvenance(t *testing.T) {
	existing := baseEntry()
	incoming := baseEntry() // identical provenance

	merged, changed := Resolve(existing, incoming)
	assert.False(t, changed)
	assert.Empty(t, merged.AlternateSources)
}

func TestResolveTokensOnlyWhenAbsent(t *testing.T) {
	existing := baseEntry()
	incoming := baseEntry()
	incoming.ChuukeseTokens = []string{"angang"}
	incoming.EnglishTokens = []string{"work"}

	merged, changed := Resolve(existing, incoming)
	assert.True(t, changed)
	assert.Equal(t, []string{"angang"}, merged.ChuukeseTokens)

	richer := baseEntry()
	richer.ChuukeseTokens = []string{"other"}
	merged2, _ := Resolve(merged, richer)
	assert.Equal(t, []string{"angang"}, merged2.ChuukeseTokens, "present tokens are kept")
}

func TestResolveIdempotent(t *testing.T) {
	existing := baseEntry()
	incoming := baseEntry()
	incoming.Grammar = grammar.TagVerb
	incoming.Confidence = 0.9
	incoming.DefinitionNotes = "note"
	incoming.Provenance = model.Provenance{PageID: "p3", LineNumber: 1, PatternID: "dash_pair"}

	merged, changed := Resolve(existing, incoming)
	require.True(t, changed)

	again, changedAgain := Resolve(merged, incoming)
	assert.False(t, changedAgain, "applying the same incoming twice must be a no-op")
	assert.Equal(t, merged, again)
}

func TestResolveFillsUnsetDirectionAndLanguages(t *testing.T) {
	existing := baseEntry()
	existing.Direction = ""
	existing.PrimaryLanguage = ""
	incoming := baseEntry()
	incoming.PrimaryLanguage = "Chuukese"
	incoming.SecondaryLanguage = "English"

	merged, changed := Resolve(existing, incoming)
	assert.True(t, changed)
	assert.Equal(t, model.DirectionSourceToTarget, merged.Direction)
	assert.Equal(t, "Chuukese", merged.PrimaryLanguage)
	assert.Equal(t, "English", merged.SecondaryLanguage)
}
