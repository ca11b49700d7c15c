package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/history"
)

func newHistoryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List ingested files, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := history.NewStore(a.cfg.HistoryPath()).Recent()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No files ingested yet.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %-40s %-14s %6d %s  (%s)\n",
					e.UploadedAt.Local().Format("2006-01-02 15:04"), e.Filename, e.Bank, e.Transactions, e.Currency, e.Source)
			}
			files, txns := history.Totals(entries)
			fmt.Fprintf(out, "%d files, %d transactions\n", files, txns)
			return nil
		},
	}
}
