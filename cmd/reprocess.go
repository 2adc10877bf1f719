package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess <pageID...>",
	Short: "Re-run extraction over already-ingested pages",
	Long:  "Re-extracts each page from its stored raw text. Merge rules make the run idempotent, so reprocessing converges instead of duplicating.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		vocab, err := buildVocab()
		if err != nil {
			return err
		}
		ing := buildIngester(st, vocab)

		for _, pageID := range args {
			stats, err := ing.Reprocess(ctx, pageID)
			if err != nil {
				return err
			}
			zap.L().Info("page reprocessed",
				zap.String("page_id", pageID),
				zap.Int("new", stats.NewEntries),
				zap.Int("updated", stats.UpdatedEntries),
				zap.Int("unchanged", stats.UnchangedEntries),
				zap.Int("failed", stats.Failed),
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reprocessCmd)
}
