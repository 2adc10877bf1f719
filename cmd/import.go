package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chuuk-lexicon/lexicon-cli/internal/ingest"
	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

var importFilePath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk import entries from a TSV, CSV, or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		vocab, err := buildVocab()
		if err != nil {
			return err
		}
		ing := buildIngester(st, vocab)

		var rows [][]string
		if strings.EqualFold(filepath.Ext(importFilePath), ".xlsx") {
			rows, err = ingest.ReadXLSX(importFilePath)
		} else {
			f, openErr := os.Open(importFilePath)
			if openErr != nil {
				return eris.Wrapf(openErr, "open %s", importFilePath)
			}
			defer f.Close()
			rows, err = ingest.ReadDelimited(f)
		}
		if err != nil {
			return err
		}

		meta := model.PageMeta{
			PageID:   uuid.New().String(),
			Filename: filepath.Base(importFilePath),
		}
		counts, err := ing.ImportRows(ctx, rows, meta)
		if err != nil {
			return eris.Wrap(err, "import rows")
		}

		zap.L().Info("import complete",
			zap.String("file", importFilePath),
			zap.Int("words", counts.Words),
			zap.Int("phrases", counts.Phrases),
			zap.Int("sentences", counts.Sentences),
			zap.Int("paragraphs", counts.Paragraphs),
			zap.Int("skipped", counts.Skipped),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to TSV/CSV/XLSX file (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
