package main

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
)

var extractConcurrency int

var extractCmd = &cobra.Command{
	Use:   "extract <file...>",
	Short: "Extract dictionary entries from OCR text files",
	Long:  "Runs the classify/decompose/score/validate pipeline over each text file. Files are processed in parallel; lines within a file stay sequential.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		concurrency := extractConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Extract.Concurrency
		}

		// Pages are independent; decomposition within a page is not.
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		for _, path := range args {
			g.Go(func() error {
				data, err := os.ReadFile(path)
				if err != nil {
					return eris.Wrapf(err, "read %s", path)
				}
				meta := model.PageMeta{
					PageID:   uuid.New().String(),
					Filename: filepath.Base(path),
				}
				n, err := ing.ExtractPage(gctx, string(data), meta)
				if err != nil {
					return eris.Wrapf(err, "extract %s", path)
				}
				zap.L().Info("file extracted",
					zap.String("file", path),
					zap.String("page_id", meta.PageID),
					zap.Int("entries", n),
				)
				return nil
			})
		}

		return g.Wait()
	},
}

func init() {
	extractCmd.Flags().IntVar(&extractConcurrency, "concurrency", 0, "max files processed in parallel (default from config)")
	rootCmd.AddCommand(extractCmd)
}
