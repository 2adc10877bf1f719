package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
	"github.com/chuuk-lexicon/lexicon-cli/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// seed inserts a forward entry and its reverse mirror, the way the
// extraction pipeline persists them.
func seed(t *testing.T, st store.Store, head, trans string, isBase bool, confidence float64) {
	t.Helper()
	e := model.Entry{
		Headword:              head,
		NormalizedHeadword:    model.Normalize(head),
		Translation:           trans,
		NormalizedTranslation: model.Normalize(trans),
		BaseWord:              model.Normalize(head),
		IsBaseWord:            isBase,
		Confidence:            confidence,
		Direction:             model.DirectionSourceToTarget,
		PrimaryLanguage:       "Chuukese",
		SecondaryLanguage:     "English",
		ChuukeseTokens:        model.Tokenize(head),
		EnglishTokens:         model.Tokenize(trans),
	}
	require.NoError(t, st.InsertEntry(context.Background(), &e))
	m := e.Mirror()
	require.NoError(t, st.InsertEntry(context.Background(), &m))
}

func TestSearchHeadwordExactRanksFirst(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, "konik", "water", true, 0.7)
	seed(t, st, "konikin", "water of", false, 0.7)

	s := NewSearcher(st, 20)
	results, err := s.Search(context.Background(), "konik", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "konik", results[0].Entry.Headword)
	assert.Equal(t, "headword_exact", results[0].MatchType)
	assert.Greater(t, results[0].Relevance, results[1].Relevance)
}

// An exact translation hit must outrank a query buried inside a longer
// definition, regardless of the longer entry's confidence.
func TestSearchExactTranslationOutranksSubstring(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, "konik", "water", true, 0.5)
	seed(t, st, "utta", "to fetch water from the well", true, 1.0)

	s := NewSearcher(st, 20)
	results, err := s.Search(context.Background(), "water", nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "konik", results[0].Entry.Headword)
	assert.Greater(t, results[0].Relevance, results[1].Relevance)
}

// The same pair reachable through both directions collapses to one result.
func TestSearchDeduplicatesMirrors(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, "konik", "water", true, 0.7)

	s := NewSearcher(st, 20)

	// "water" hits no forward headword, so the reverse direction is swept
	// in too; the mirror row must not produce a second result.
	results, err := s.Search(context.Background(), "water", nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchExplicitDirection(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, "konik", "water", true, 0.7)

	s := NewSearcher(st, 20)

	rev := model.DirectionTargetToSource
	results, err := s.Search(context.Background(), "water", &rev, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.DirectionTargetToSource, results[0].Entry.Direction)

	fwd := model.DirectionSourceToTarget
	results, err = s.Search(context.Background(), "zzzz", &fwd, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchBaseWordBonus(t *testing.T) {
	st := newTestStore(t)
	// Same headword surface, distinct translations; one is the base form.
	seed(t, st, "angang", "work", true, 0.6)
	seed(t, st, "angang", "occupation", false, 0.6)

	s := NewSearcher(st, 20)
	results, err := s.Search(context.Background(), "angang", nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Entry.IsBaseWord, "base form ranks above derived on an exact tie")
}

func TestSearchNormalizesQuery(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, "konik", "water", true, 0.7)

	s := NewSearcher(st, 20)
	results, err := s.Search(context.Background(), "  KONIK  ", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "konik", results[0].Entry.Headword)
}

func TestSearchEmptyQuery(t *testing.T) {
	s := NewSearcher(newTestStore(t), 20)
	results, err := s.Search(context.Background(), "   ", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchLimit(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, "konik", "water", true, 0.7)
	seed(t, st, "konikin", "water of", false, 0.7)
	seed(t, st, "konikis", "small water", false, 0.7)

	s := NewSearcher(st, 20)
	results, err := s.Search(context.Background(), "konik", nil, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
