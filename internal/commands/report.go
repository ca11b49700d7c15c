package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/report"
)

func newReportCommand(a *app) *cobra.Command {
	var (
		writeCSV bool
		outDir   string
		top      int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a spending and income report for the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outDir == "" {
				outDir = a.cfg.Resolve("reports")
			}
			return runReport(cmd, a, top, writeCSV, outDir)
		},
	}

	cmd.Flags().BoolVar(&writeCSV, "csv", false, "also write CSV tables")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for CSV tables (default <data dir>/reports)")
	cmd.Flags().IntVar(&top, "top", 10, "number of merchants to list")

	return cmd
}

func runReport(cmd *cobra.Command, a *app, top int, writeCSV bool, outDir string) error {
	store := ledger.NewStore(a.cfg.LedgerPath())
	txns, err := store.Load()
	if errors.Is(err, ledger.ErrNotFound) {
		return report.MissingLedger(store.Path())
	}
	if err != nil {
		return err
	}

	data := report.Build(txns, top)
	out := cmd.OutOrStdout()
	fmt.Fprint(out, report.NewFormatter(a.cfg.Currency.Base).Text(data))

	if !writeCSV {
		return nil
	}
	paths, err := report.WriteCSV(outDir, "report", data)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(out, "wrote %s\n", p)
	}
	return nil
}
