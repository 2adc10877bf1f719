// Package search answers relevance-ranked bidirectional lookups over the
// persisted entry set.
package search

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
	"github.com/chuuk-lexicon/lexicon-cli/internal/store"
)

// Relevance weights. Exactness on the headword side dominates; matches
// buried inside longer definitions rank below exact pair hits.
const (
	weightExact          = 10.0
	weightExactBaseBonus = 2.0 // exact headword hit on a base form scores 12
	weightTransSubstring = 8.0
	weightFamilyMatch    = 6.0
	weightHeadSubstring  = 5.0
	weightTransToken     = 3.0
	weightConfidence     = 2.0
	weightMetadataBonus  = 0.5
)

// Result is one ranked search hit with the winning match type attached.
type Result struct {
	Entry     model.Entry `json:"entry"`
	Relevance float64     `json:"relevance"`
	MatchType string      `json:"match_type"`
}

// Searcher executes ranked lookups against a store.
type Searcher struct {
	store        store.Store
	defaultLimit int
}

// NewSearcher builds a searcher. defaultLimit applies when a query passes
// limit <= 0.
func NewSearcher(st store.Store, defaultLimit int) *Searcher {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &Searcher{store: st, defaultLimit: defaultLimit}
}

type retrieval struct {
	entry     model.Entry
	matchType string
	score     float64
}

// Search looks up query in the requested direction. A nil direction applies
// the default policy: forward entries only, unless the query more plausibly
// matches the target language (it hits translations but no headwords), in
// which case the synthetic reverse direction is included too.
func (s *Searcher) Search(ctx context.Context, query string, dir *model.Direction, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	q := model.Normalize(query)
	if q == "" {
		return nil, nil
	}

	var hits []retrieval
	if dir != nil {
		var err error
		hits, err = s.retrieve(ctx, q, *dir, limit)
		if err != nil {
			return nil, err
		}
	} else {
		forward, err := s.retrieve(ctx, q, model.DirectionSourceToTarget, limit)
		if err != nil {
			return nil, err
		}
		hits = forward
		if plausiblyTargetLanguage(forward) {
			reverse, err := s.retrieve(ctx, q, model.DirectionTargetToSource, limit)
			if err != nil {
				return nil, err
			}
			hits = append(hits, reverse...)
		}
	}

	// De-duplicate: the same pair reached via several match types (or via
	// its mirror) collapses to its single highest-scoring result.
	type pairKey struct{ head, trans string }
	best := make(map[pairKey]retrieval)
	for _, h := range hits {
		k := pairKey{h.entry.NormalizedHeadword, h.entry.NormalizedTranslation}
		if cur, ok := best[k]; !ok || h.score > cur.score {
			best[k] = h
		}
	}

	results := make([]Result, 0, len(best))
	for _, h := range best {
		results = append(results, Result{Entry: h.entry, Relevance: h.score, MatchType: h.matchType})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		if results[i].Entry.IsBaseWord != results[j].Entry.IsBaseWord {
			return results[i].Entry.IsBaseWord
		}
		return results[i].Entry.Confidence > results[j].Entry.Confidence
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// plausiblyTargetLanguage reports whether the forward hits suggest the
// query is a target-language word: it matched translations but never a
// headword.
func plausiblyTargetLanguage(forward []retrieval) bool {
	var headHits, transHits int
	for _, h := range forward {
		switch h.matchType {
		case "headword_exact", "headword_prefix", "headword_substring":
			headHits++
		default:
			transHits++
		}
	}
	return headHits == 0 && transHits > 0
}

// retrieve collects candidates in priority order: exact, then prefix, then
// substring, over both the headword and translation fields.
func (s *Searcher) retrieve(ctx context.Context, q string, dir model.Direction, limit int) ([]retrieval, error) {
	// Over-fetch per mode; ranking and dedup trim afterwards.
	fetch := limit * 3
	var out []retrieval

	steps := []struct {
		field string
		mode  store.MatchMode
	}{
		{"headword", store.MatchExact},
		{"translation", store.MatchExact},
		{"headword", store.MatchPrefix},
		{"translation", store.MatchPrefix},
		{"headword", store.MatchSubstring},
		{"translation", store.MatchSubstring},
	}
	for _, step := range steps {
		var (
			entries []model.Entry
			err     error
		)
		if step.field == "headword" {
			entries, err = s.store.SearchHeadword(ctx, q, step.mode, dir, fetch)
		} else {
			entries, err = s.store.SearchTranslation(ctx, q, step.mode, dir, fetch)
		}
		if err != nil {
			return nil, eris.Wrapf(err, "search: %s %s lookup", step.field, step.mode)
		}
		for _, e := range entries {
			out = append(out, retrieval{
				entry:     e,
				matchType: step.field + "_" + string(step.mode),
				score:     relevance(&e, step.field, step.mode, q),
			})
		}
	}
	return out, nil
}

func relevance(e *model.Entry, field string, mode store.MatchMode, q string) float64 {
	s := weightConfidence * e.Confidence

	switch {
	case field == "headword" && mode == store.MatchExact:
		s += weightExact
		if e.IsBaseWord {
			s += weightExactBaseBonus
		}
	case field == "headword":
		s += weightHeadSubstring
	case field == "translation" && mode == store.MatchExact:
		// An exact pair hit through the translation side outranks matches
		// buried inside longer definitions.
		s += weightExact + weightTransSubstring
	default:
		s += weightTransSubstring
	}

	if field == "translation" && containsToken(e.EnglishTokens, q) {
		s += weightTransToken
	}

	for _, rw := range e.RelatedWords {
		if model.Normalize(rw.Word) == q {
			s += weightFamilyMatch
			break
		}
	}

	if e.HasInflectionMetadata() {
		s += weightMetadataBonus
	}
	if e.DefinitionNotes != "" {
		s += weightMetadataBonus
	}
	return s
}

func containsToken(tokens []string, q string) bool {
	for _, t := range tokens {
		if t == q {
			return true
		}
	}
	return false
}
