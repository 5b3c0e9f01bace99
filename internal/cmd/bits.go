package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ordinaryYT/jacweb1/internal/leaderboard"
)

func newBitsCmd(o *rootOptions) *cobra.Command {
	var count int
	var period string

	periods := make([]string, len(leaderboard.Periods))
	for i, p := range leaderboard.Periods {
		periods[i] = string(p)
	}

	cmd := &cobra.Command{
		Use:   "bits",
		Short: "Fetch the bits leaderboard",
		Example: `  legendboard bits
  legendboard bits --count 5 --period week`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.dash.RefreshBits(cmd.Context(), count, period)
			if err != nil {
				return fmt.Errorf("bits leaderboard: %w", err)
			}
			if len(rows) == 0 {
				printDim(cmd, "No bits yet")
				return nil
			}

			w := newTable(cmd.OutOrStdout())
			row(w, "RANK", "NAME", "BITS")
			for _, r := range rows {
				row(w, r.Rank, r.DisplayName, r.Score)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&count, "count", leaderboard.DefaultCount, "number of entries (1-10)")
	cmd.Flags().StringVar(&period, "period", string(leaderboard.PeriodAll), "one of "+strings.Join(periods, ", "))

	return cmd
}
