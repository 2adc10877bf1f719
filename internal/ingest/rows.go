package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadDelimited reads tab- or comma-delimited rows. The delimiter is
// auto-detected by the presence of a tab character in the first line.
func ReadDelimited(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "ingest: peek delimited input")
	}
	delim := ','
	firstLine := string(peek)
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	if strings.ContainsRune(firstLine, '\t') {
		delim = '\t'
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read delimited row")
		}
		rows = append(rows, record)
	}
}

// ReadXLSX reads the first sheet of a spreadsheet as string rows, so bulk
// contributions prepared in Excel go through the same import path as
// delimited files.
func ReadXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("ingest: xlsx %s has no sheets", path)
	}
	sheet := f.Sheets[0]

	var rows [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, c := range row.Cells {
			cells = append(cells, strings.TrimSpace(c.String()))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// rowSchema maps recognized bulk-import columns to their positions.
// A value of -1 means the column is absent.
type rowSchema struct {
	headword    int
	translation int
	rowType     int
	grammar     int
	direction   int
	notes       int
}

// legacySchema is the 3-column {word, translation, partOfSpeech} fallback
// used by older export files that carry no header row.
var legacySchema = rowSchema{headword: 0, translation: 1, grammar: 2, rowType: -1, direction: -1, notes: -1}

var headerAliases = map[string]string{
	"headword":     "headword",
	"word":         "headword",
	"chuukese":     "headword",
	"translation":  "translation",
	"english":      "translation",
	"definition":   "translation",
	"type":         "type",
	"grammar":      "grammar",
	"partofspeech": "grammar",
	"pos":          "grammar",
	"direction":    "direction",
	"notes":        "notes",
	"comment":      "notes",
}

// detectSchema inspects the first row. If it looks like a header it returns
// the mapped schema and true (meaning the header row must be skipped);
// otherwise the legacy 3-column layout applies from row one.
func detectSchema(first []string) (rowSchema, bool) {
	s := rowSchema{headword: -1, translation: -1, rowType: -1, grammar: -1, direction: -1, notes: -1}
	recognized := 0
	for i, cell := range first {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(cell), "_", ""))
		key = strings.ReplaceAll(key, " ", "")
		name, ok := headerAliases[key]
		if !ok {
			continue
		}
		recognized++
		switch name {
		case "headword":
			if s.headword < 0 {
				s.headword = i
			}
		case "translation":
			if s.translation < 0 {
				s.translation = i
			}
		case "type":
			s.rowType = i
		case "grammar":
			s.grammar = i
		case "direction":
			s.direction = i
		case "notes":
			s.notes = i
		}
	}
	if recognized >= 2 && s.headword >= 0 && s.translation >= 0 {
		return s, true
	}
	return legacySchema, false
}

func (s rowSchema) cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
