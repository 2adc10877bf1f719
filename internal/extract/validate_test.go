package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

func candidate(head, trans string) *model.Entry {
	return &model.Entry{Headword: head, Translation: trans}
}

func TestValidateAccepts(t *testing.T) {
	assert.True(t, Validate(candidate("konik", "water")))
	assert.True(t, Validate(candidate("samwol-ei", "chief (my)")))
	assert.True(t, Validate(candidate("tirow omw", "respectful greeting")))
}

func TestValidateRejectsLengthBounds(t *testing.T) {
	assert.False(t, Validate(candidate("k", "water")), "headword below minimum")
	assert.False(t, Validate(candidate(strings.Repeat("a", 41), "water")), "headword above maximum")
	assert.False(t, Validate(candidate("konik", "no")), "translation below minimum")
	assert.False(t, Validate(candidate("konik", strings.Repeat("x", 251))), "translation above maximum")
}

func TestValidateRejectsReservedMarkers(t *testing.T) {
	for _, marker := range []string{"v", "n", "adj", "adv", "prep", "ADJ"} {
		assert.False(t, Validate(candidate(marker, "some definition")), "marker=%q", marker)
	}
}

func TestValidateRejectsNonAlphabeticHeadword(t *testing.T) {
	assert.False(t, Validate(candidate("konik2", "water")))
	assert.False(t, Validate(candidate("12.", "water")))
	// Hyphen, asterisk, space, and apostrophe are allowed.
	assert.True(t, Validate(candidate("samwol-ei*", "chief of the clan")))
}
