package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDelimitedAutodetectsTab(t *testing.T) {
	in := "headword\ttranslation\ttype\nkonik\twater\tword\n"
	rows, err := ReadDelimited(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"headword", "translation", "type"}, rows[0])
	assert.Equal(t, []string{"konik", "water", "word"}, rows[1])
}

func TestReadDelimitedFallsBackToComma(t *testing.T) {
	in := "headword,translation\nkonik,water\nsamwol,\"chief, leader\"\n"
	rows, err := ReadDelimited(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"samwol", "chief, leader"}, rows[2])
}

func TestReadDelimitedRaggedRows(t *testing.T) {
	in := "konik\twater\nsamwol\tchief\textra\tcells\n"
	rows, err := ReadDelimited(strings.NewReader(in))
	require.NoError(t, err, "ragged rows are tolerated, not fatal")
	require.Len(t, rows, 2)
	assert.Len(t, rows[1], 4)
}

func TestReadDelimitedEmpty(t *testing.T) {
	rows, err := ReadDelimited(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDetectSchemaHeader(t *testing.T) {
	s, hasHeader := detectSchema([]string{"Headword", "Translation", "Type", "Part_Of_Speech", "Direction", "Notes"})
	require.True(t, hasHeader)
	assert.Equal(t, 0, s.headword)
	assert.Equal(t, 1, s.translation)
	assert.Equal(t, 2, s.rowType)
	assert.Equal(t, 3, s.grammar)
	assert.Equal(t, 4, s.direction)
	assert.Equal(t, 5, s.notes)
}

func TestDetectSchemaAliases(t *testing.T) {
	s, hasHeader := detectSchema([]string{"Chuukese", "English", "POS"})
	require.True(t, hasHeader)
	assert.Equal(t, 0, s.headword)
	assert.Equal(t, 1, s.translation)
	assert.Equal(t, 2, s.grammar)
	assert.Equal(t, -1, s.rowType)
}

func TestDetectSchemaLegacyFallback(t *testing.T) {
	s, hasHeader := detectSchema([]string{"konik", "water", "n"})
	assert.False(t, hasHeader, "data row means the legacy 3-column layout")
	assert.Equal(t, legacySchema, s)
}

func TestRowSchemaCell(t *testing.T) {
	s := legacySchema
	row := []string{" konik ", "water"}
	assert.Equal(t, "konik", s.cell(row, s.headword))
	assert.Equal(t, "", s.cell(row, s.grammar), "index past row end is empty")
	assert.Equal(t, "", s.cell(row, -1))
}
