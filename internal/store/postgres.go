package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

// PgxIface is the subset of pgxpool.Pool the store uses; satisfied by
// pgxmock in tests.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool  PgxIface
	close func()
}

// NewPostgres connects a pgx pool to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, close: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool-compatible connection. Used by
// tests with pgxmock.
func NewPostgresFromPool(pool PgxIface) *PostgresStore {
	return &PostgresStore{pool: pool, close: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS pages (
	id                 TEXT PRIMARY KEY,
	filename           TEXT,
	page_number        INTEGER NOT NULL DEFAULT 0,
	raw_text           TEXT,
	entries_extracted  INTEGER NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	reprocessed_at     TIMESTAMPTZ
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
	is_base_word           BOOLEAN NOT NULL DEFAULT FALSE,
	inflection_type        TEXT NOT NULL DEFAULT '',
	suffix                 TEXT NOT NULL DEFAULT '',
	confidence             DOUBLE PRECISION NOT NULL DEFAULT 0.1,
	direction              TEXT NOT NULL,
	primary_language       TEXT NOT NULL DEFAULT '',
	secondary_language     TEXT NOT NULL DEFAULT '',
	chuukese_tokens        JSONB,
	english_tokens         JSONB,
	provenance             JSONB,
	alternate_sources      JSONB,
	related_words          JSONB,
	family_size            INTEGER NOT NULL DEFAULT 0,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(normalized_headword, normalized_translation, direction)
);

CREATE INDEX IF NOT EXISTS idx_entries_headword ON entries(normalized_headword text_pattern_ops);
CREATE INDEX IF NOT EXISTS idx_entries_translation ON entries(normalized_translation text_pattern_ops);
CREATE INDEX IF NOT EXISTS idx_entries_base_word ON entries(base_word);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.close()
	return nil
}

func (s *PostgresStore) CreatePage(ctx context.Context, page *model.Page) error {
	if page.ID == "" {
		page.ID = uuid.New().String()
	}
	if page.CreatedAt.IsZero() {
		page.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pages (id, filename, page_number, raw_text, entries_extracted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		page.ID, page.Filename, page.PageNumber, page.RawText, page.EntriesExtracted, page.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert page")
}

func (s *PostgresStore) GetPage(ctx context.Context, id string) (*model.Page, error) {
	var p model.Page
	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, page_number, raw_text, entries_extracted, created_at, reprocessed_at
		 FROM pages WHERE id = $1`, id,
	).Scan(&p.ID, &p.Filename, &p.PageNumber, &p.RawText, &p.EntriesExtracted, &p.CreatedAt, &p.ReprocessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get page %s", id)
	}
	return &p, nil
}

func (s *PostgresStore) UpdatePageStats(ctx context.Context, id string, entriesExtracted int, reprocessed bool) error {
	var err error
	if reprocessed {
		_, err = s.pool.Exec(ctx,
			`UPDATE pages SET entries_extracted = $1, reprocessed_at = now() WHERE id = $2`,
			entriesExtracted, id)
	} else {
		_, err = s.pool.Exec(ctx,
			`UPDATE pages SET entries_extracted = $1 WHERE id = $2`,
			entriesExtracted, id)
	}
	return eris.Wrapf(err, "postgres: update page stats %s", id)
}

const pgEntryColumns = `id, headword, normalized_headword, translation, normalized_translation,
	grammar, definition_notes, base_word, is_base_word, inflection_type, suffix,
	confidence, direction, primary_language, secondary_language,
	chuukese_tokens, english_tokens, provenance, alternate_sources, related_words,
	family_size, created_at, updated_at`

const pgEntryPlaceholders = `$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
	$14, $15, $16, $17, $18, $19, $20, $21, $22, $23`

func entryArgs(e *model.Entry) []any {
	return []any{
		e.ID, e.Headword, e.NormalizedHeadword, e.Translation, e.NormalizedTranslation,
		e.Grammar, e.DefinitionNotes, e.BaseWord, e.IsBaseWord, e.InflectionType, e.Suffix,
		e.Confidence, string(e.Direction), e.PrimaryLanguage, e.SecondaryLanguage,
		e.ChuukeseTokens, e.EnglishTokens, e.Provenance, e.AlternateSources, e.RelatedWords,
		e.FamilySize, e.CreatedAt, e.UpdatedAt,
	}
}

// isUniqueViolation reports a duplicate-key conflict (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *PostgresStore) InsertEntry(ctx context.Context, e *model.Entry) error {
	prepareInsert(e)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO entries (`+pgEntryColumns+`) VALUES (`+pgEntryPlaceholders+`)`,
		entryArgs(e)...,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return eris.Wrapf(err, "postgres: insert entry %s", e.Headword)
}

// InsertEntries inserts a batch inside one transaction. A duplicate-key
// conflict rolls the whole batch back with ErrDuplicate, so the caller's
// per-record fallback sees a clean slate and its stats stay accurate.
func (s *PostgresStore) InsertEntries(ctx context.Context, entries []*model.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin batch insert")
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		prepareInsert(e)
		_, err := tx.Exec(ctx,
			`INSERT INTO entries (`+pgEntryColumns+`) VALUES (`+pgEntryPlaceholders+`)`,
			entryArgs(e)...,
		)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return eris.Wrapf(err, "postgres: batch insert entry %s", e.Headword)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit batch insert")
}

func prepareInsert(e *model.Entry) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
}

func (s *PostgresStore) GetEntryByKey(ctx context.Context, key model.EntryKey) (*model.Entry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgEntryColumns+` FROM entries
		 WHERE normalized_headword = $1 AND normalized_translation = $2 AND direction = $3`,
		key.Headword, key.Translation, string(key.Direction),
	)
	e, err := scanPgEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get entry %s/%s", key.Headword, key.Translation)
	}
	return e, nil
}

func (s *PostgresStore) UpdateEntry(ctx context.Context, e *model.Entry) error {
	e.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE entries SET
			headword = $1, translation = $2, grammar = $3, definition_notes = $4,
			base_word = $5, is_base_word = $6, inflection_type = $7, suffix = $8,
			confidence = $9, direction = $10, primary_language = $11, secondary_language = $12,
			chuukese_tokens = $13, english_tokens = $14, provenance = $15,
			alternate_sources = $16, related_words = $17, family_size = $18, updated_at = $19
		 WHERE id = $20`,
		e.Headword, e.Translation, e.Grammar, e.DefinitionNotes,
		e.BaseWord, e.IsBaseWord, e.InflectionType, e.Suffix,
		e.Confidence, string(e.Direction), e.PrimaryLanguage, e.SecondaryLanguage,
		e.ChuukeseTokens, e.EnglishTokens, e.Provenance, e.AlternateSources, e.RelatedWords,
		e.FamilySize, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update entry %s", e.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByBaseWord(ctx context.Context, baseWord string) ([]model.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgEntryColumns+` FROM entries WHERE base_word = $1 ORDER BY is_base_word DESC, normalized_headword`,
		baseWord,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list base word %s", baseWord)
	}
	defer rows.Close()
	return collectPgEntries(rows)
}

func (s *PostgresStore) SearchHeadword(ctx context.Context, term string, mode MatchMode, dir model.Direction, limit int) ([]model.Entry, error) {
	return s.searchField(ctx, "normalized_headword", term, mode, dir, limit)
}

func (s *PostgresStore) SearchTranslation(ctx context.Context, term string, mode MatchMode, dir model.Direction, limit int) ([]model.Entry, error) {
	return s.searchField(ctx, "normalized_translation", term, mode, dir, limit)
}

func (s *PostgresStore) searchField(ctx context.Context, column, term string, mode MatchMode, dir model.Direction, limit int) ([]model.Entry, error) {
	cond, arg := likeCondition(column, term, mode)
	// likeCondition emits '?' style args for sqlite; rewrite positionally.
	switch mode {
	case MatchExact:
		cond = column + " = $1"
	case MatchPrefix, MatchSubstring:
		cond = column + ` LIKE $1 ESCAPE '\'`
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgEntryColumns+` FROM entries
		 WHERE `+cond+` AND direction = $2
		 ORDER BY confidence DESC LIMIT $3`,
		arg, string(dir), limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: search %s %q", column, term)
	}
	defer rows.Close()
	return collectPgEntries(rows)
}

func scanPgEntry(row pgx.Row) (*model.Entry, error) {
	var (
		e         model.Entry
		direction string
	)
	err := row.Scan(
		&e.ID, &e.Headword, &e.NormalizedHeadword, &e.Translation, &e.NormalizedTranslation,
		&e.Grammar, &e.DefinitionNotes, &e.BaseWord, &e.IsBaseWord, &e.InflectionType, &e.Suffix,
		&e.Confidence, &direction, &e.PrimaryLanguage, &e.SecondaryLanguage,
		&e.ChuukeseTokens, &e.EnglishTokens, &e.Provenance, &e.AlternateSources, &e.RelatedWords,
		&e.FamilySize, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Direction = model.Direction(direction)
	return &e, nil
}

func collectPgEntries(rows pgx.Rows) ([]model.Entry, error) {
	var out []model.Entry
	for rows.Next() {
		e, err := scanPgEntry(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan entry")
		}
		out = append(out, *e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate entries")
}
