package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chuuk-lexicon/lexicon-cli/internal/family"
)

var relinkCmd = &cobra.Command{
	Use:   "relink <baseWord...>",
	Short: "Rebuild word-family snapshots for the given base words",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		linker := family.NewLinker(st)
		if err := linker.Relink(ctx, args...); err != nil {
			return err
		}
		zap.L().Info("families relinked", zap.Int("base_words", len(args)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(relinkCmd)
}
