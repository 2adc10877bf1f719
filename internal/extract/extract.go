package extract

import (
	"strings"

	"go.uber.org/zap"

	"github.com/chuuk-lexicon/lexicon-cli/internal/grammar"
	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

// PageResult is the in-memory outcome of extracting one page of text.
// Candidates contains every accepted forward candidate immediately followed
// by its reverse-direction mirror.
type PageResult struct {
	Candidates     []model.Entry
	LinesTotal     int
	LinesNoise     int
	LinesUnmatched int
	Rejected       int
}

// Extractor runs the classify → decompose → score → validate pipeline over
// raw text, one line at a time, threading the base-word accumulator.
type Extractor struct {
	dec *Decomposer
}

// NewExtractor builds an extractor for a language pair.
func NewExtractor(vocab *grammar.Vocabulary, primaryLang, secondaryLang string) *Extractor {
	return &Extractor{dec: NewDecomposer(vocab, primaryLang, secondaryLang)}
}

// ExtractText processes a whole page. Decomposition is inherently
// sequential within a page because of the running base-word state;
// parallelism belongs across independent pages only.
func (x *Extractor) ExtractText(text string, meta model.PageMeta) PageResult {
	var (
		res PageResult
		st  State
	)

	for i, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		lineNo := i + 1
		res.LinesTotal++

		if IsNoise(line) {
			res.LinesNoise++
			continue
		}

		m, ok := Classify(line)
		if !ok {
			// Intentional lossy behavior: unmatched lines are dropped,
			// counted but never surfaced as errors.
			res.LinesUnmatched++
			continue
		}

		var candidates []model.Entry
		candidates, st = x.dec.Decompose(m, st)

		for _, c := range candidates {
			c.Provenance = model.Provenance{
				PageID:     meta.PageID,
				Filename:   meta.Filename,
				LineNumber: lineNo,
				RawLine:    line,
				PatternID:  m.PatternID,
			}
			c.Confidence = Score(line, m.PatternID, c.Headword, c.Translation)

			if !Validate(&c) {
				res.Rejected++
				continue
			}

			// Every accepted forward candidate gets exactly one mirrored
			// reverse candidate so both lookup directions are populated
			// without a second extraction pass.
			res.Candidates = append(res.Candidates, c, c.Mirror())
		}
	}

	zap.L().Debug("page extracted",
		zap.String("page_id", meta.PageID),
		zap.Int("lines", res.LinesTotal),
		zap.Int("noise", res.LinesNoise),
		zap.Int("unmatched", res.LinesUnmatched),
		zap.Int("rejected", res.Rejected),
		zap.Int("candidates", len(res.Candidates)),
	)

	return res
}
