// Package family maintains the denormalized word-family snapshot: all
// entries sharing a base word carry a relatedWords list of their siblings,
// so querying one family member returns the whole family without a fan-out
// query. The snapshot is an eventually-consistent cache, re-materialized
// after every batch of writes touching a base word.
package family

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
	"github.com/chuuk-lexicon/lexicon-cli/internal/store"
)

// Linker rebuilds relatedWords for affected families.
type Linker struct {
	store store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLinker returns a linker over the given store.
func NewLinker(st store.Store) *Linker {
	return &Linker{store: st, locks: make(map[string]*sync.Mutex)}
}

// lockFor returns the per-base-word mutex, creating it on first use. Two
// concurrent relink passes over the same family would race to write
// divergent snapshots; at-most-one-writer per base word prevents that.
func (l *Linker) lockFor(baseWord string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[baseWord]
	if !ok {
		m = &sync.Mutex{}
		l.locks[baseWord] = m
	}
	return m
}

// Relink re-materializes the family snapshot for each given base word.
// Errors on one family do not stop the others; the first error is returned
// after all families were attempted.
func (l *Linker) Relink(ctx context.Context, baseWords ...string) error {
	var firstErr error
	for _, bw := range baseWords {
		if bw == "" {
			continue
		}
		if err := l.relinkOne(ctx, bw); err != nil {
			zap.L().Warn("family relink failed",
				zap.String("base_word", bw),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// relinkOne recomputes relatedWords and familySize for every member of one
// family. Families are partitioned per direction so the synthetic reverse
// view mirrors the forward family instead of doubling it.
func (l *Linker) relinkOne(ctx context.Context, baseWord string) error {
	mu := l.lockFor(baseWord)
	mu.Lock()
	defer mu.Unlock()

	members, err := l.store.ListByBaseWord(ctx, baseWord)
	if err != nil {
		return eris.Wrapf(err, "family: list members of %s", baseWord)
	}

	byDirection := make(map[model.Direction][]model.Entry)
	for _, m := range members {
		byDirection[m.Direction] = append(byDirection[m.Direction], m)
	}

	for _, group := range byDirection {
		for i := range group {
			e := group[i]
			related := make([]model.RelatedWord, 0, len(group)-1)
			for j := range group {
				if group[j].ID == e.ID {
					continue
				}
				related = append(related, model.RelatedWord{
					Word:        group[j].Headword,
					Translation: group[j].Translation,
					Grammar:     group[j].Grammar,
				})
			}

			size := len(group)
			if relatedEqual(e.RelatedWords, related) && e.FamilySize == size {
				continue
			}
			e.RelatedWords = related
			e.FamilySize = size
			if err := l.store.UpdateEntry(ctx, &e); err != nil {
				return eris.Wrapf(err, "family: update member %s", e.Headword)
			}
		}
	}
	return nil
}

func relatedEqual(a, b []model.RelatedWord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
