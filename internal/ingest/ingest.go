// Package ingest orchestrates the write path: page extraction, bulk
// imports, persistence with merge-on-conflict, and family relinking.
package ingest

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chuuk-lexicon/lexicon-cli/internal/extract"
	"github.com/chuuk-lexicon/lexicon-cli/internal/family"
	"github.com/chuuk-lexicon/lexicon-cli/internal/grammar"
	"github.com/chuuk-lexicon/lexicon-cli/internal/merge"
	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
	"github.com/chuuk-lexicon/lexicon-cli/internal/resilience"
	"github.com/chuuk-lexicon/lexicon-cli/internal/store"
)

// Config tunes the ingester.
type Config struct {
	// BatchSize bounds how many entries go into one bulk insert.
	BatchSize int
	// WritesPerSecond throttles store writes; 0 disables the limiter.
	WritesPerSecond float64
	// Retry is the backoff policy for transient store failures.
	Retry resilience.RetryConfig
	// PrimaryLanguage/SecondaryLanguage label the pair on new entries.
	PrimaryLanguage   string
	SecondaryLanguage string
}

// Ingester runs the extraction pipeline end to end against a store.
type Ingester struct {
	store     store.Store
	linker    *family.Linker
	extractor *extract.Extractor
	vocab     *grammar.Vocabulary
	limiter   *rate.Limiter
	cfg       Config
	log       *zap.Logger
}

// New builds an ingester over the given store.
func New(st store.Store, vocab *grammar.Vocabulary, cfg Config) *Ingester {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.PrimaryLanguage == "" {
		cfg.PrimaryLanguage = "Chuukese"
	}
	if cfg.SecondaryLanguage == "" {
		cfg.SecondaryLanguage = "English"
	}
	var limiter *rate.Limiter
	if cfg.WritesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WritesPerSecond), cfg.BatchSize)
	}
	return &Ingester{
		store:     st,
		linker:    family.NewLinker(st),
		extractor: extract.NewExtractor(vocab, cfg.PrimaryLanguage, cfg.SecondaryLanguage),
		vocab:     vocab,
		limiter:   limiter,
		cfg:       cfg,
		log:       zap.L().With(zap.String("component", "ingester")),
	}
}

// ExtractPage runs the full pipeline over one page of raw text and returns
// how many entries were extracted and persisted (new, merged, or already
// present). The page's raw text is stored so it can be reprocessed later.
func (in *Ingester) ExtractPage(ctx context.Context, text string, meta model.PageMeta) (int, error) {
	if meta.PageID == "" {
		meta.PageID = uuid.New().String()
	}

	if _, err := in.store.GetPage(ctx, meta.PageID); errors.Is(err, store.ErrNotFound) {
		page := &model.Page{
			ID:         meta.PageID,
			Filename:   meta.Filename,
			PageNumber: meta.PageNumber,
			RawText:    text,
		}
		if err := in.store.CreatePage(ctx, page); err != nil {
			return 0, eris.Wrapf(err, "ingest: create page %s", meta.PageID)
		}
	} else if err != nil {
		return 0, eris.Wrapf(err, "ingest: look up page %s", meta.PageID)
	}

	res := in.extractor.ExtractText(text, meta)
	stats, baseWords, err := in.persist(ctx, res.Candidates)
	if err != nil {
		return stats.NewEntries + stats.UpdatedEntries + stats.UnchangedEntries, err
	}

	extracted := stats.NewEntries + stats.UpdatedEntries + stats.UnchangedEntries
	if err := in.store.UpdatePageStats(ctx, meta.PageID, extracted, false); err != nil {
		return extracted, err
	}

	if err := in.linker.Relink(ctx, baseWords...); err != nil {
		return extracted, err
	}

	in.log.Info("page ingested",
		zap.String("page_id", meta.PageID),
		zap.Int("extracted", extracted),
		zap.Int("new", stats.NewEntries),
		zap.Int("updated", stats.UpdatedEntries),
		zap.Int("failed", stats.Failed),
	)
	return extracted, nil
}

// Reprocess re-runs extraction over an already-ingested page. The merge
// rules make this idempotent: a reprocessed page converges to the same
// stored state as a fresh ingest.
func (in *Ingester) Reprocess(ctx context.Context, pageID string) (model.ReprocessStats, error) {
	page, err := in.store.GetPage(ctx, pageID)
	if err != nil {
		return model.ReprocessStats{}, eris.Wrapf(err, "ingest: reprocess page %s", pageID)
	}
	meta := model.PageMeta{PageID: page.ID, Filename: page.Filename, PageNumber: page.PageNumber}

	res := in.extractor.ExtractText(page.RawText, meta)
	stats, baseWords, err := in.persist(ctx, res.Candidates)
	if err != nil {
		return stats, err
	}

	extracted := stats.NewEntries + stats.UpdatedEntries + stats.UnchangedEntries
	if err := in.store.UpdatePageStats(ctx, pageID, extracted, true); err != nil {
		return stats, err
	}
	return stats, in.linker.Relink(ctx, baseWords...)
}

// reverseDirections are direction-column values declaring a row already
// target-to-source.
var reverseDirections = map[string]bool{
	"target_to_source": true,
	"reverse":          true,
	"en_to_chk":        true,
}

// ImportRows ingests bulk rows, routing counts by each row's declared type.
// Malformed rows are skipped with a logged row number; processing continues.
func (in *Ingester) ImportRows(ctx context.Context, rows [][]string, meta model.PageMeta) (model.ImportCounts, error) {
	var counts model.ImportCounts
	if len(rows) == 0 {
		return counts, nil
	}
	if meta.PageID == "" {
		meta.PageID = uuid.New().String()
	}

	schema, hasHeader := detectSchema(rows[0])
	start := 0
	if hasHeader {
		start = 1
	}

	var candidates []model.Entry
	for i := start; i < len(rows); i++ {
		row := rows[i]
		head := schema.cell(row, schema.headword)
		trans := schema.cell(row, schema.translation)
		if head == "" || trans == "" {
			counts.Skipped++
			in.log.Warn("skipping malformed import row",
				zap.Int("row", i+1),
				zap.Int("cells", len(row)),
			)
			continue
		}

		rowType := strings.ToLower(schema.cell(row, schema.rowType))
		switch rowType {
		case "phrase":
			counts.Phrases++
		case "sentence":
			counts.Sentences++
		case "paragraph":
			counts.Paragraphs++
		default:
			rowType = "word"
			counts.Words++
		}

		e := model.Entry{
			Headword:              head,
			NormalizedHeadword:    model.Normalize(head),
			Translation:           trans,
			NormalizedTranslation: model.Normalize(trans),
			Grammar:               in.vocab.Normalize(schema.cell(row, schema.grammar)),
			DefinitionNotes:       schema.cell(row, schema.notes),
			IsBaseWord:            true,
			Direction:             model.DirectionSourceToTarget,
			PrimaryLanguage:       in.cfg.PrimaryLanguage,
			SecondaryLanguage:     in.cfg.SecondaryLanguage,
			ChuukeseTokens:        model.Tokenize(head),
			EnglishTokens:         model.Tokenize(trans),
			Provenance: model.Provenance{
				PageID:     meta.PageID,
				Filename:   meta.Filename,
				LineNumber: i + 1,
				RawLine:    strings.Join(row, "\t"),
				PatternID:  extract.PatternBulkImport,
			},
		}
		if rowType == "phrase" && e.Grammar == "" {
			e.Grammar = grammar.TagPhrase
		}
		e.BaseWord = e.NormalizedHeadword
		e.Confidence = extract.Score(e.Provenance.RawLine, extract.PatternBulkImport, head, trans)
		if reverseDirections[strings.ToLower(schema.cell(row, schema.direction))] {
			e.Direction = model.DirectionTargetToSource
			e.PrimaryLanguage, e.SecondaryLanguage = e.SecondaryLanguage, e.PrimaryLanguage
		}
		if !extract.Validate(&e) {
			counts.Skipped++
			continue
		}
		candidates = append(candidates, e, e.Mirror())
	}

	page := &model.Page{ID: meta.PageID, Filename: meta.Filename, PageNumber: meta.PageNumber}
	if _, err := in.store.GetPage(ctx, meta.PageID); errors.Is(err, store.ErrNotFound) {
		if err := in.store.CreatePage(ctx, page); err != nil {
			return counts, eris.Wrap(err, "ingest: create import batch page")
		}
	} else if err != nil {
		return counts, eris.Wrapf(err, "ingest: look up import batch page %s", meta.PageID)
	}

	stats, baseWords, err := in.persist(ctx, candidates)
	if err != nil {
		return counts, err
	}
	extracted := stats.NewEntries + stats.UpdatedEntries + stats.UnchangedEntries
	if err := in.store.UpdatePageStats(ctx, meta.PageID, extracted, false); err != nil {
		return counts, err
	}
	return counts, in.linker.Relink(ctx, baseWords...)
}

// persist writes a bounded in-memory candidate list. Bulk insertion is the
// fast path; a duplicate-key conflict drops the batch down to per-record
// insertion, which isolates the conflicting records and resolves each one
// through the merge resolver. Transient store failures retry with capped
// exponential backoff; exhausted records count as partial failures instead
// of aborting the page.
func (in *Ingester) persist(ctx context.Context, candidates []model.Entry) (model.ReprocessStats, []string, error) {
	var stats model.ReprocessStats
	baseWords := make(map[string]struct{})

	for batchStart := 0; batchStart < len(candidates); batchStart += in.cfg.BatchSize {
		end := min(batchStart+in.cfg.BatchSize, len(candidates))
		batch := candidates[batchStart:end]

		if err := in.wait(ctx, len(batch)); err != nil {
			return stats, sortedKeys(baseWords), err
		}

		refs := make([]*model.Entry, len(batch))
		for i := range batch {
			refs[i] = &batch[i]
		}

		err := resilience.Do(ctx, in.cfg.Retry, func(ctx context.Context) error {
			return in.store.InsertEntries(ctx, refs)
		})
		if err == nil {
			stats.NewEntries += len(batch)
			for i := range batch {
				baseWords[batch[i].BaseWord] = struct{}{}
			}
			continue
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return stats, sortedKeys(baseWords), eris.Wrap(err, "ingest: bulk insert")
		}

		// Per-record fallback.
		for i := range batch {
			c := &batch[i]
			// Reset fields the failed bulk attempt may have stamped, so a
			// fresh row gets a fresh identity.
			c.ID = ""
			insertErr := resilience.Do(ctx, in.cfg.Retry, func(ctx context.Context) error {
				return in.store.InsertEntry(ctx, c)
			})
			switch {
			case insertErr == nil:
				stats.NewEntries++
				baseWords[c.BaseWord] = struct{}{}
			case errors.Is(insertErr, store.ErrDuplicate):
				changed, mergeErr := in.mergeInto(ctx, c)
				if mergeErr != nil {
					stats.Failed++
					in.log.Warn("merge failed", zap.String("headword", c.Headword), zap.Error(mergeErr))
					continue
				}
				if changed {
					stats.UpdatedEntries++
				} else {
					stats.UnchangedEntries++
				}
				baseWords[c.BaseWord] = struct{}{}
			default:
				stats.Failed++
				in.log.Warn("insert failed",
					zap.String("headword", c.Headword),
					zap.Error(insertErr),
				)
			}
		}
	}

	return stats, sortedKeys(baseWords), nil
}

// mergeInto reconciles an incoming candidate with the persisted record
// holding the same identity key.
func (in *Ingester) mergeInto(ctx context.Context, incoming *model.Entry) (bool, error) {
	existing, err := in.store.GetEntryByKey(ctx, incoming.Key())
	if err != nil {
		return false, eris.Wrap(err, "ingest: load conflicting entry")
	}
	merged, changed := merge.Resolve(*existing, *incoming)
	if !changed {
		return false, nil
	}
	if err := in.store.UpdateEntry(ctx, &merged); err != nil {
		return false, eris.Wrap(err, "ingest: store merged entry")
	}
	return true, nil
}

func (in *Ingester) wait(ctx context.Context, n int) error {
	if in.limiter == nil {
		return nil
	}
	return eris.Wrap(in.limiter.WaitN(ctx, n), "ingest: rate limit wait")
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
