// Package store persists entries and pages. Two backends exist: a local
// SQLite database (default) and Postgres.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

// Sentinel errors shared by both backends.
var (
	// ErrNotFound means no record matched the lookup key.
	ErrNotFound = eris.New("store: not found")
	// ErrDuplicate means an insert conflicted on the entry identity key
	// (normalized headword, normalized translation, direction). Callers
	// recover locally via the merge resolver.
	ErrDuplicate = eris.New("store: duplicate entry")
)

// MatchMode selects how a search term is compared against a field.
type MatchMode string

const (
	MatchExact     MatchMode = "exact"
	MatchPrefix    MatchMode = "prefix"
	MatchSubstring MatchMode = "substring"
)

// Store is the persistence interface for the extraction pipeline and the
// search path.
type Store interface {
	// Pages
	CreatePage(ctx context.Context, page *model.Page) error
	GetPage(ctx context.Context, id string) (*model.Page, error)
	UpdatePageStats(ctx context.Context, id string, entriesExtracted int, reprocessed bool) error

	// Entries
	InsertEntry(ctx context.Context, e *model.Entry) error
	InsertEntries(ctx context.Context, entries []*model.Entry) error
	GetEntryByKey(ctx context.Context, key model.EntryKey) (*model.Entry, error)
	UpdateEntry(ctx context.Context, e *model.Entry) error

	// Word families
	ListByBaseWord(ctx context.Context, baseWord string) ([]model.Entry, error)

	// Search retrieval (ranking happens in internal/search)
	SearchHeadword(ctx context.Context, term string, mode MatchMode, dir model.Direction, limit int) ([]model.Entry, error)
	SearchTranslation(ctx context.Context, term string, mode MatchMode, dir model.Direction, limit int) ([]model.Entry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
