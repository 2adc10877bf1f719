package family

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

func seedEntry(t *testing.T, st store.Store, head, trans, base string, isBase bool, dir model.Direction) *model.Entry {
	t.Helper()
	e := &model.Entry{
		Headword:              head,
		NormalizedHeadword:    model.Normalize(head),
		Translation:           trans,
		NormalizedTranslation: model.Normalize(trans),
		BaseWord:              base,
		IsBaseWord:            isBase,
		Confidence:            0.6,
		Direction:             dir,
	}
	require.NoError(t, st.InsertEntry(context.Background(), e))
	return e
}

func TestRelinkPopulatesFamily(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedEntry(t, st, "samwol", "chief", "samwol", true, model.DirectionSourceToTarget)
	seedEntry(t, st, "samwol-ei", "my chief", "samwol", false, model.DirectionSourceToTarget)
	seedEntry(t, st, "samwol-om", "your chief", "samwol", false, model.DirectionSourceToTarget)

	l := NewLinker(st)
	require.NoError(t, l.Relink(ctx, "samwol"))

	members, err := st.ListByBaseWord(ctx, "samwol")
	require.NoError(t, err)
	require.Len(t, members, 3)

	for _, m := range members {
		assert.Equal(t, 3, m.FamilySize, "member %s", m.Headword)
		require.Len(t, m.RelatedWords, 2, "member %s lists its two siblings", m.Headword)
		for _, rw := range m.RelatedWords {
			assert.NotEqual(t, m.Headword, rw.Word, "a member never lists itself")
		}
	}
}

// Mirrored reverse entries form their own per-direction family so the
// snapshot is not doubled.
func TestRelinkPartitionsByDirection(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedEntry(t, st, "samwol", "chief", "samwol", true, model.DirectionSourceToTarget)
	seedEntry(t, st, "samwol-ei", "my chief", "samwol", false, model.DirectionSourceToTarget)
	seedEntry(t, st, "samwol", "chief", "samwol", true, model.DirectionTargetToSource)
	seedEntry(t, st, "samwol-ei", "my chief", "samwol", false, model.DirectionTargetToSource)

	l := NewLinker(st)
	require.NoError(t, l.Relink(ctx, "samwol"))

	members, err := st.ListByBaseWord(ctx, "samwol")
	require.NoError(t, err)
	require.Len(t, members, 4)
	for _, m := range members {
		assert.Equal(t, 2, m.FamilySize, "family size counts one direction only")
		assert.Len(t, m.RelatedWords, 1)
	}
}

func TestRelinkSingleton(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedEntry(t, st, "konik", "water", "konik", true, model.DirectionSourceToTarget)

	l := NewLinker(st)
	require.NoError(t, l.Relink(ctx, "konik"))

	members, err := st.ListByBaseWord(ctx, "konik")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, 1, members[0].FamilySize)
	assert.Empty(t, members[0].RelatedWords)
}

func TestRelinkIgnoresEmptyAndUnknownBaseWords(t *testing.T) {
	st := newTestStore(t)
	l := NewLinker(st)
	assert.NoError(t, l.Relink(context.Background(), "", "no-such-family"))
}

func TestRelinkIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedEntry(t, st, "angang", "work", "angang", true, model.DirectionSourceToTarget)
	seedEntry(t, st, "angangöch", "hard working", "angang", false, model.DirectionSourceToTarget)

	l := NewLinker(st)
	require.NoError(t, l.Relink(ctx, "angang"))
	first, err := st.ListByBaseWord(ctx, "angang")
	require.NoError(t, err)

	require.NoError(t, l.Relink(ctx, "angang"))
	second, err := st.ListByBaseWord(ctx, "angang")
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].RelatedWords, second[i].RelatedWords)
		assert.Equal(t, first[i].FamilySize, second[i].FamilySize)
	}
}
