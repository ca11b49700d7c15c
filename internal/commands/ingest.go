package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/history"
	"github.com/tallyhq/tally/internal/ingest"
)

func newIngestCommand(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Normalize bank exports and merge them into the ledger",
		Long: `Normalize one or more bank exports (.csv, .xlsx, .xls) and merge the
records into the combined ledger. Records already in the ledger are skipped.

Encrypted spreadsheets are opened with --password, or KOREAN_BANK_PASSWORD
when the flag is not given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password != "" {
				a.cfg.Password = password
			}
			return runIngest(cmd, a, args)
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password for encrypted spreadsheets")

	return cmd
}

// runIngest ingests each file in turn. A failed file does not stop the
// rest; the failures are returned together.
func runIngest(cmd *cobra.Command, a *app, paths []string) error {
	svc, err := a.newServices(history.SourceCLI, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var errs []error
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", path, err))
			continue
		}

		res, err := svc.ingest.Ingest(cmd.Context(), ingest.Source{Filename: path, Data: data})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		printResult(out, res)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%d of %d files failed:\n%w", len(errs), len(paths), err)
	}
	return nil
}

func printResult(w io.Writer, res *ingest.Result) {
	fmt.Fprintf(w, "%s: %s (%s, %s), %d records, %d skipped, %d new, ledger now %d\n",
		res.Filename, res.Format, res.Bank, res.Currency, res.Records, res.Skipped, res.Added, res.Total)
	if res.Backup != "" {
		fmt.Fprintf(w, "  previous ledger was unreadable and was moved to %s\n", res.Backup)
	}
}
