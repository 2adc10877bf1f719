package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuuk-lexicon/lexicon-cli/internal/grammar"
	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
	"github.com/chuuk-lexicon/lexicon-cli/internal/store"
)

const testPage = `apwangapwang – happy
echen v. – to cry
samwol, -ei*, -om – chief (my, your)
`

func newTestIngester(t *testing.T) (*Ingester, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return New(st, grammar.NewVocabulary(), Config{BatchSize: 4}), st
}

func TestExtractPagePersistsAndCounts(t *testing.T) {
	ing, st := newTestIngester(t)
	ctx := context.Background()

	meta := model.PageMeta{PageID: "page-1", Filename: "p001.txt"}
	extracted, err := ing.ExtractPage(ctx, testPage, meta)
	require.NoError(t, err)
	// 5 forward candidates plus their mirrors.
	assert.Equal(t, 10, extracted)

	page, err := st.GetPage(ctx, "page-1")
	require.NoError(t, err)
	assert.Equal(t, testPage, page.RawText, "raw text is kept for reprocessing")
	assert.Equal(t, 10, page.EntriesExtracted)
	assert.Nil(t, page.ReprocessedAt)

	// Both directions resolve.
	fwd, err := st.GetEntryByKey(ctx, model.EntryKey{
		Headword: "apwangapwang", Translation: "happy", Direction: model.DirectionSourceToTarget,
	})
	require.NoError(t, err)
	assert.Equal(t, "Chuukese", fwd.PrimaryLanguage)

	rev, err := st.GetEntryByKey(ctx, model.EntryKey{
		Headword: "apwangapwang", Translation: "happy", Direction: model.DirectionTargetToSource,
	})
	require.NoError(t, err)
	assert.Equal(t, "English", rev.PrimaryLanguage)

	// Suffix list family is linked.
	members, err := st.ListByBaseWord(ctx, "samwol")
	require.NoError(t, err)
	assert.Len(t, members, 6)
	for _, m := range members {
		assert.Equal(t, 3, m.FamilySize)
	}
}

func TestReprocessIsIdempotent(t *testing.T) {
	ing, st := newTestIngester(t)
	ctx := context.Background()

	meta := model.PageMeta{PageID: "page-1", Filename: "p001.txt"}
	extracted, err := ing.ExtractPage(ctx, testPage, meta)
	require.NoError(t, err)

	stats, err := ing.Reprocess(ctx, "page-1")
	require.NoError(t, err)

	assert.Zero(t, stats.NewEntries, "reprocessing must not duplicate rows")
	assert.Zero(t, stats.Failed)
	assert.Equal(t, extracted, stats.NewEntries+stats.UpdatedEntries+stats.UnchangedEntries)

	page, err := st.GetPage(ctx, "page-1")
	require.NoError(t, err)
	assert.NotNil(t, page.ReprocessedAt)
}

func TestReprocessUnknownPage(t *testing.T) {
	ing, _ := newTestIngester(t)
	_, err := ing.Reprocess(context.Background(), "no-such-page")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImportRowsHeaderSchema(t *testing.T) {
	ing, st := newTestIngester(t)
	ctx := context.Background()

	rows := [][]string{
		{"headword", "translation", "type", "grammar", "direction", "notes"},
		{"konik", "water", "word", "n", "", ""},
		{"tirow omw", "respectful greeting", "phrase", "", "", "used with elders"},
		{"", "orphan translation", "word", "", "", ""},
		{"water please", "konik kose mochen", "sentence", "", "", ""},
		{"happy", "apwangapwang", "word", "adj", "reverse", ""},
	}

	counts, err := ing.ImportRows(ctx, rows, model.PageMeta{PageID: "import-1", Filename: "bulk.tsv"})
	require.NoError(t, err)

	assert.Equal(t, 2, counts.Words)
	assert.Equal(t, 1, counts.Phrases)
	assert.Equal(t, 1, counts.Sentences)
	assert.Equal(t, 0, counts.Paragraphs)
	assert.Equal(t, 1, counts.Skipped)
	assert.Equal(t, 4, counts.Total(), "skipped rows are not imported")

	word, err := st.GetEntryByKey(ctx, model.EntryKey{
		Headword: "konik", Translation: "water", Direction: model.DirectionSourceToTarget,
	})
	require.NoError(t, err)
	assert.Equal(t, grammar.TagNoun, word.Grammar)
	assert.True(t, word.IsBaseWord)

	// Phrases default to the phrase tag when the grammar column is empty.
	phrase, err := st.GetEntryByKey(ctx, model.EntryKey{
		Headword: "tirow omw", Translation: "respectful greeting", Direction: model.DirectionSourceToTarget,
	})
	require.NoError(t, err)
	assert.Equal(t, grammar.TagPhrase, phrase.Grammar)
	assert.Equal(t, "used with elders", phrase.DefinitionNotes)

	// A declared reverse row lands in the reverse direction with swapped
	// languages.
	rev, err := st.GetEntryByKey(ctx, model.EntryKey{
		Headword: "happy", Translation: "apwangapwang", Direction: model.DirectionTargetToSource,
	})
	require.NoError(t, err)
	assert.Equal(t, "English", rev.PrimaryLanguage)
	assert.Equal(t, "Chuukese", rev.SecondaryLanguage)
}

func TestImportRowsLegacySchema(t *testing.T) {
	ing, st := newTestIngester(t)
	ctx := context.Background()

	rows := [][]string{
		{"konik", "water", "n"},
		{"angang", "work", "v"},
	}
	counts, err := ing.ImportRows(ctx, rows, model.PageMeta{PageID: "import-legacy"})
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Words)
	assert.Zero(t, counts.Skipped)

	e, err := st.GetEntryByKey(ctx, model.EntryKey{
		Headword: "angang", Translation: "work", Direction: model.DirectionSourceToTarget,
	})
	require.NoError(t, err)
	assert.Equal(t, grammar.TagVerb, e.Grammar)
}

func TestImportRowsMergesWithExistingEntries(t *testing.T) {
	ing, st := newTestIngester(t)
	ctx := context.Background()

	rows := [][]string{{"konik", "water", "n"}}
	_, err := ing.ImportRows(ctx, rows, model.PageMeta{PageID: "import-1"})
	require.NoError(t, err)

	// Importing the same pair again converges instead of failing.
	_, err = ing.ImportRows(ctx, rows, model.PageMeta{PageID: "import-2"})
	require.NoError(t, err)

	e, err := st.GetEntryByKey(ctx, model.EntryKey{
		Headword: "konik", Translation: "water", Direction: model.DirectionSourceToTarget,
	})
	require.NoError(t, err)
	// The second import's provenance is retained as an alternate source.
	require.Len(t, e.AlternateSources, 1)
	assert.Equal(t, "import-2", e.AlternateSources[0].PageID)
}

// faultyPageStore breaks page lookups with a non-sentinel store error.
type faultyPageStore struct {
	store.Store
}

func (f *faultyPageStore) GetPage(context.Context, string) (*model.Page, error) {
	return nil, errTestLookup
}

var errTestLookup = eris.New("page lookup unavailable")

// A failing page lookup must abort the import rather than proceed without a
// page row to attach stats to.
func TestImportRowsSurfacesPageLookupFailure(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	ing := New(&faultyPageStore{Store: st}, grammar.NewVocabulary(), Config{})

	rows := [][]string{{"konik", "water", "n"}}
	_, err = ing.ImportRows(context.Background(), rows, model.PageMeta{PageID: "import-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errTestLookup)
}

func TestImportRowsEmpty(t *testing.T) {
	ing, _ := newTestIngester(t)
	counts, err := ing.ImportRows(context.Background(), nil, model.PageMeta{PageID: "x"})
	require.NoError(t, err)
	assert.Zero(t, counts.Total())
}
