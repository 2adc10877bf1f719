package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/chuuk-lexicon/lexicon-cli/internal/grammar"
	"github.com/chuuk-lexicon/lexicon-cli/internal/ingest"
	"github.com/chuuk-lexicon/lexicon-cli/internal/resilience"
	"github.com/chuuk-lexicon/lexicon-cli/internal/store"
)

// openStore constructs the configured store backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver (LEXICON_STORE_DATABASE_URL)")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildVocab loads the grammar vocabulary, applying configured overrides.
func buildVocab() (*grammar.Vocabulary, error) {
	vocab := grammar.NewVocabulary()
	if cfg.Grammar.OverridesPath != "" {
		if err := vocab.LoadOverrides(cfg.Grammar.OverridesPath); err != nil {
			return nil, err
		}
	}
	return vocab, nil
}

// buildIngester wires the write-path pipeline from configuration.
func buildIngester(st store.Store, vocab *grammar.Vocabulary) *ingest.Ingester {
	retry := resilience.DefaultRetryConfig()
	if cfg.Ingest.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.Ingest.RetryAttempts
	}
	return ingest.New(st, vocab, ingest.Config{
		BatchSize:         cfg.Ingest.BatchSize,
		WritesPerSecond:   cfg.Ingest.WritesPerSecond,
		Retry:             retry,
		PrimaryLanguage:   cfg.Extract.PrimaryLanguage,
		SecondaryLanguage: cfg.Extract.SecondaryLanguage,
	})
}
