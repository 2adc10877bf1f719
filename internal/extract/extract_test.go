package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuuk-lexicon/lexicon-cli/internal/grammar"
	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

const samplePage = `CHUUKESE DICTIONARY
Page 14

apwangapwang – happy
echen v. – to cry
samwol, -ei*, -om – chief (my, your)
!!! garbage line !!!
47
`

func TestExtractTextPipeline(t *testing.T) {
	x := NewExtractor(grammar.NewVocabulary(), "Chuukese", "English")
	meta := model.PageMeta{PageID: "page-1", Filename: "p014.txt"}

	res := x.ExtractText(samplePage, meta)

	assert.Equal(t, 9, res.LinesTotal, "includes trailing empty line")
	assert.Equal(t, 5, res.LinesNoise)
	assert.Equal(t, 1, res.LinesUnmatched)

	// 1 + 1 + 3 accepted forward candidates, each mirrored.
	require.Len(t, res.Candidates, 10)

	for i := 0; i < len(res.Candidates); i += 2 {
		fwd, rev := res.Candidates[i], res.Candidates[i+1]
		assert.Equal(t, model.DirectionSourceToTarget, fwd.Direction)
		assert.Equal(t, model.DirectionTargetToSource, rev.Direction)
		assert.Equal(t, fwd.Headword, rev.Headword)
		assert.Equal(t, fwd.Translation, rev.Translation)
		assert.Equal(t, "page-1", fwd.Provenance.PageID)
		assert.NotZero(t, fwd.Provenance.LineNumber)
		assert.GreaterOrEqual(t, fwd.Confidence, MinConfidence)
		assert.LessOrEqual(t, fwd.Confidence, MaxConfidence)
	}

	first := res.Candidates[0]
	assert.Equal(t, "apwangapwang", first.Headword)
	assert.Equal(t, PatternDashPair, first.Provenance.PatternID)
	assert.Equal(t, 4, first.Provenance.LineNumber)
}

func TestExtractTextRejectsInvalidCandidates(t *testing.T) {
	x := NewExtractor(grammar.NewVocabulary(), "Chuukese", "English")

	// Headword too short to be a word.
	res := x.ExtractText("a – not really an entry\n", model.PageMeta{PageID: "p"})
	assert.Equal(t, 1, res.Rejected)
	assert.Empty(t, res.Candidates)
}

func TestExtractTextEmptyPage(t *testing.T) {
	x := NewExtractor(grammar.NewVocabulary(), "Chuukese", "English")
	res := x.ExtractText("", model.PageMeta{PageID: "p"})
	assert.Empty(t, res.Candidates)
	assert.Equal(t, res.LinesTotal, res.LinesNoise)
}
