package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS pages (
	id                 TEXT PRIMARY KEY,
	filename           TEXT,
	page_number        INTEGER NOT NULL DEFAULT 0,
	raw_text           TEXT,
	entries_extracted  INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	reprocessed_at     DATETIME
);

CREATE TABLE IF NOT EXISTS entries (
	id                     TEXT PRIMARY KEY,
	headword               TEXT NOT NULL,
	normalized_headword    TEXT NOT NULL,
	translation            TEXT NOT NULL,
	normalized_translation TEXT NOT NULL,
	grammar                TEXT NOT NULL DEFAULT '',
	definition_notes       TEXT NOT NULL DEFAULT '',
	base_word              TEXT NOT NULL DEFAULT '',
	is_base_word           INTEGER NOT NULL DEFAULT 0,
	inflection_type        TEXT NOT NULL DEFAULT '',
	suffix                 TEXT NOT NULL DEFAULT '',
	confidence             REAL NOT NULL DEFAULT 0.1,
	direction              TEXT NOT NULL,
	primary_language       TEXT NOT NULL DEFAULT '',
	secondary_language     TEXT NOT NULL DEFAULT '',
	chuukese_tokens        TEXT,
	english_tokens         TEXT,
	provenance             TEXT,
	alternate_sources      TEXT,
	related_words          TEXT,
	family_size            INTEGER NOT NULL DEFAULT 0,
	created_at             DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at             DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(normalized_headword, normalized_translation, direction)
);

CREATE INDEX IF NOT EXISTS idx_entries_headword ON entries(normalized_headword);
CREATE INDEX IF NOT EXISTS idx_entries_translation ON entries(normalized_translation);
CREATE INDEX IF NOT EXISTS idx_entries_base_word ON entries(base_word);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreatePage(ctx context.Context, page *model.Page) error {
	if page.ID == "" {
		page.ID = uuid.New().String()
	}
	if page.CreatedAt.IsZero() {
		page.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (id, filename, page_number, raw_text, entries_extracted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		page.ID, page.Filename, page.PageNumber, page.RawText, page.EntriesExtracted, page.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert page")
}

func (s *SQLiteStore) GetPage(ctx context.Context, id string) (*model.Page, error) {
	var (
		p           model.Page
		reprocessed sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, page_number, raw_text, entries_extracted, created_at, reprocessed_at
		 FROM pages WHERE id = ?`, id,
	).Scan(&p.ID, &p.Filename, &p.PageNumber, &p.RawText, &p.EntriesExtracted, &p.CreatedAt, &reprocessed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get page %s", id)
	}
	if reprocessed.Valid {
		p.ReprocessedAt = &reprocessed.Time
	}
	return &p, nil
}

func (s *SQLiteStore) UpdatePageStats(ctx context.Context, id string, entriesExtracted int, reprocessed bool) error {
	var err error
	if reprocessed {
		_, err = s.db.ExecContext(ctx,
			`UPDATE pages SET entries_extracted = ?, reprocessed_at = ? WHERE id = ?`,
			entriesExtracted, time.Now().UTC(), id)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE pages SET entries_extracted = ? WHERE id = ?`,
			entriesExtracted, id)
	}
	return eris.Wrapf(err, "sqlite: update page stats %s", id)
}

const sqliteEntryColumns = `id, headword, normalized_headword, translation, normalized_translation,
	grammar, definition_notes, base_word, is_base_word, inflection_type, suffix,
	confidence, direction, primary_language, secondary_language,
	chuukese_tokens, english_tokens, provenance, alternate_sources, related_words,
	family_size, created_at, updated_at`

func (s *SQLiteStore) InsertEntry(ctx context.Context, e *model.Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	tokensC, tokensE, prov, alts, related, err := marshalEntryJSON(e)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (`+sqliteEntryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Headword, e.NormalizedHeadword, e.Translation, e.NormalizedTranslation,
		e.Grammar, e.DefinitionNotes, e.BaseWord, boolToInt(e.IsBaseWord), e.InflectionType, e.Suffix,
		e.Confidence, string(e.Direction), e.PrimaryLanguage, e.SecondaryLanguage,
		tokensC, tokensE, prov, alts, related,
		e.FamilySize, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return eris.Wrapf(err, "sqlite: insert entry %s", e.Headword)
	}
	return nil
}

// InsertEntries inserts a batch inside one transaction. Any duplicate-key
// conflict aborts the whole batch with ErrDuplicate so the caller can fall
// back to per-record insertion.
func (s *SQLiteStore) InsertEntries(ctx context.Context, entries []*model.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin batch insert")
	}
	defer tx.Rollback()

	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		now := time.Now().UTC()
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = now

		tokensC, tokensE, prov, alts, related, err := marshalEntryJSON(e)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entries (`+sqliteEntryColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Headword, e.NormalizedHeadword, e.Translation, e.NormalizedTranslation,
			e.Grammar, e.DefinitionNotes, e.BaseWord, boolToInt(e.IsBaseWord), e.InflectionType, e.Suffix,
			e.Confidence, string(e.Direction), e.PrimaryLanguage, e.SecondaryLanguage,
			tokensC, tokensE, prov, alts, related,
			e.FamilySize, e.CreatedAt, e.UpdatedAt,
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return ErrDuplicate
			}
			return eris.Wrapf(err, "sqlite: batch insert entry %s", e.Headword)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit batch insert")
}

func (s *SQLiteStore) GetEntryByKey(ctx context.Context, key model.EntryKey) (*model.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteEntryColumns+` FROM entries
		 WHERE normalized_headword = ? AND normalized_translation = ? AND direction = ?`,
		key.Headword, key.Translation, string(key.Direction),
	)
	e, err := scanSQLiteEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get entry %s/%s", key.Headword, key.Translation)
	}
	return e, nil
}

func (s *SQLiteStore) UpdateEntry(ctx context.Context, e *model.Entry) error {
	e.UpdatedAt = time.Now().UTC()
	tokensC, tokensE, prov, alts, related, err := marshalEntryJSON(e)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET
			headword = ?, translation = ?, grammar = ?, definition_notes = ?,
			base_word = ?, is_base_word = ?, inflection_type = ?, suffix = ?,
			confidence = ?, direction = ?, primary_language = ?, secondary_language = ?,
			chuukese_tokens = ?, english_tokens = ?, provenance = ?, alternate_sources = ?,
			related_words = ?, family_size = ?, updated_at = ?
		 WHERE id = ?`,
		e.Headword, e.Translation, e.Grammar, e.DefinitionNotes,
		e.BaseWord, boolToInt(e.IsBaseWord), e.InflectionType, e.Suffix,
		e.Confidence, string(e.Direction), e.PrimaryLanguage, e.SecondaryLanguage,
		tokensC, tokensE, prov, alts, related, e.FamilySize, e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update entry %s", e.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListByBaseWord(ctx context.Context, baseWord string) ([]model.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteEntryColumns+` FROM entries WHERE base_word = ? ORDER BY is_base_word DESC, normalized_headword`,
		baseWord,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list base word %s", baseWord)
	}
	defer rows.Close()
	return collectSQLiteEntries(rows)
}

func (s *SQLiteStore) SearchHeadword(ctx context.Context, term string, mode MatchMode, dir model.Direction, limit int) ([]model.Entry, error) {
	return s.searchField(ctx, "normalized_headword", term, mode, dir, limit)
}

func (s *SQLiteStore) SearchTranslation(ctx context.Context, term string, mode MatchMode, dir model.Direction, limit int) ([]model.Entry, error) {
	return s.searchField(ctx, "normalized_translation", term, mode, dir, limit)
}

func (s *SQLiteStore) searchField(ctx context.Context, column, term string, mode MatchMode, dir model.Direction, limit int) ([]model.Entry, error) {
	cond, arg := likeCondition(column, term, mode)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteEntryColumns+` FROM entries
		 WHERE `+cond+` AND direction = ?
		 ORDER BY confidence DESC LIMIT ?`,
		arg, string(dir), limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: search %s %q", column, term)
	}
	defer rows.Close()
	return collectSQLiteEntries(rows)
}

// likeCondition builds the WHERE fragment for a match mode. LIKE wildcards
// in the user's term are escaped so they match literally.
func likeCondition(column, term string, mode MatchMode) (cond, arg string) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	switch mode {
	case MatchPrefix:
		return column + ` LIKE ? ESCAPE '\'`, escaped + "%"
	case MatchSubstring:
		return column + ` LIKE ? ESCAPE '\'`, "%" + escaped + "%"
	default:
		return column + " = ?", term
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalEntryJSON(e *model.Entry) (tokensC, tokensE, prov, alts, related string, err error) {
	enc := func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", eris.Wrap(err, "store: marshal entry field")
		}
		return string(b), nil
	}
	if tokensC, err = enc(e.ChuukeseTokens); err != nil {
		return
	}
	if tokensE, err = enc(e.EnglishTokens); err != nil {
		return
	}
	if prov, err = enc(e.Provenance); err != nil {
		return
	}
	if alts, err = enc(e.AlternateSources); err != nil {
		return
	}
	related, err = enc(e.RelatedWords)
	return
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEntry(row rowScanner) (*model.Entry, error) {
	var (
		e                                   model.Entry
		isBase                              int
		direction                           string
		tokensC, tokensE, prov, alts, relat sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.Headword, &e.NormalizedHeadword, &e.Translation, &e.NormalizedTranslation,
		&e.Grammar, &e.DefinitionNotes, &e.BaseWord, &isBase, &e.InflectionType, &e.Suffix,
		&e.Confidence, &direction, &e.PrimaryLanguage, &e.SecondaryLanguage,
		&tokensC, &tokensE, &prov, &alts, &relat,
		&e.FamilySize, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.IsBaseWord = isBase != 0
	e.Direction = model.Direction(direction)
	if err := unmarshalEntryJSON(&e, tokensC.String, tokensE.String, prov.String, alts.String, relat.String); err != nil {
		return nil, err
	}
	return &e, nil
}

func unmarshalEntryJSON(e *model.Entry, tokensC, tokensE, prov, alts, related string) error {
	dec := func(s string, v any) error {
		if s == "" || s == "null" {
			return nil
		}
		return eris.Wrap(json.Unmarshal([]byte(s), v), "store: unmarshal entry field")
	}
	if err := dec(tokensC, &e.ChuukeseTokens); err != nil {
		return err
	}
	if err := dec(tokensE, &e.EnglishTokens); err != nil {
		return err
	}
	if err := dec(prov, &e.Provenance); err != nil {
		return err
	}
	if err := dec(alts, &e.AlternateSources); err != nil {
		return err
	}
	return dec(related, &e.RelatedWords)
}

func collectSQLiteEntries(rows *sql.Rows) ([]model.Entry, error) {
	var out []model.Entry
	for rows.Next() {
		e, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entry")
		}
		out = append(out, *e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate entries")
}
