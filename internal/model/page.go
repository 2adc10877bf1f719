package model

import "time"

// PageMeta identifies the source a batch of text came from.
type PageMeta struct {
	PageID     string `json:"page_id"`
	Filename   string `json:"filename,omitempty"`
	PageNumber int    `json:"page_number,omitempty"`
}

// Page is one OCR'd page or one bulk-import batch. Immutable once created
// except for the extraction counter and the reprocessed timestamp.
type Page struct {
	ID               string     `json:"id"`
	Filename         string     `json:"filename,omitempty"`
	PageNumber       int        `json:"page_number,omitempty"`
	RawText          string     `json:"raw_text,omitempty"`
	EntriesExtracted int        `json:"entries_extracted"`
	CreatedAt        time.Time  `json:"created_at"`
	ReprocessedAt    *time.Time `json:"reprocessed_at,omitempty"`
}

// ImportCounts reports bulk-import results routed by declared row type.
type ImportCounts struct {
	Words      int `json:"words"`
	Phrases    int `json:"phrases"`
	Sentences  int `json:"sentences"`
	Paragraphs int `json:"paragraphs"`
	Skipped    int `json:"skipped"`
}

// Total returns the number of rows imported across all types.
func (c ImportCounts) Total() int {
	return c.Words + c.Phrases + c.Sentences + c.Paragraphs
}

// ReprocessStats reports the outcome of re-ingesting an existing page.
type ReprocessStats struct {
	NewEntries       int `json:"new_entries"`
	UpdatedEntries   int `json:"updated_entries"`
	UnchangedEntries int `json:"unchanged_entries"`
	Failed           int `json:"failed"`
}
