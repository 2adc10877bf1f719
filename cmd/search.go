package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chuuk-lexicon/lexicon-cli/internal/model"
	"github.com/chuuk-lexicon/lexicon-cli/internal/search"
)

var (
	searchDirection string
	searchLimit     int
)

// parseDirection maps a CLI direction flag onto the stored direction values.
// Empty means auto: forward plus the reverse view when the query looks like a
// target-language word.
func parseDirection(s string) (*model.Direction, error) {
	switch s {
	case "":
		return nil, nil
	case "forward", string(model.DirectionSourceToTarget):
		d := model.DirectionSourceToTarget
		return &d, nil
	case "reverse", string(model.DirectionTargetToSource):
		d := model.DirectionTargetToSource
		return &d, nil
	default:
		return nil, eris.Errorf("unknown direction %q (want forward or reverse)", s)
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Ranked bidirectional dictionary lookup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dir, err := parseDirection(searchDirection)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		searcher := search.NewSearcher(st, cfg.Search.DefaultLimit)
		results, err := searcher.Search(ctx, args[0], dir, searchLimit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchDirection, "direction", "", "forward, reverse, or empty for auto")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results (default from config)")
	rootCmd.AddCommand(searchCmd)
}
