package cli

import (
	"fmt"
	"io"

	"clicker/internal/domain"

	"github.com/spf13/cobra"
)

func newTopCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the leaderboard, optionally for one region (--country)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := opts.client()

			var (
				entries []domain.LeaderboardEntry
				err     error
			)
			if opts.country == "" {
				entries, err = c.Global(cmd.Context(), limit)
			} else {
				entries, err = c.Country(cmd.Context(), opts.country, limit)
			}
			if err != nil {
				return err
			}

			printLeaderboard(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "number of rows, 0 for the server default")

	return cmd
}

func newTotalCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Show the sum of every player's best score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			total, err := opts.client().Total(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d (%d malas)\n", total, total/domain.MalaSize)
			return nil
		},
	}
}

func printLeaderboard(w io.Writer, entries []domain.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scores yet.")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "%3d. %-20s %8d  %s\n", i+1, e.PlayerName, e.Score, e.Country)
	}
}
