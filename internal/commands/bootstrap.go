package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/history"
	"github.com/tallyhq/tally/internal/ingest"
)

func newBootstrapCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap [password]",
		Short: "Build the ledger from the configured Monzo and TravelWallet exports",
		Long: `Ingest the exports named under sources in tally.yaml. The TravelWallet
spreadsheet password is taken from the first argument, else from
KOREAN_BANK_PASSWORD. A missing or locked spreadsheet is reported and
skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				a.cfg.Password = args[0]
			}
			return runBootstrap(cmd, a)
		},
	}
}

func runBootstrap(cmd *cobra.Command, a *app) error {
	svc, err := a.newServices(history.SourceBootstrap, nil)
	if err != nil {
		return err
	}

	sources := []string{
		a.cfg.Resolve(a.cfg.Sources.MonzoCSV),
		a.cfg.Resolve(a.cfg.Sources.TravelWalletXLSX),
	}

	out := cmd.OutOrStdout()
	ingested := 0
	for _, path := range sources {
		if path == "" {
			continue
		}
		log := a.log.With().Str("source", path).Logger()

		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Msg("source not found, skipping")
			fmt.Fprintf(out, "%s: not found, skipped\n", path)
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		res, err := svc.ingest.Ingest(cmd.Context(), ingest.Source{Filename: path, Data: data})
		switch {
		case errors.Is(err, ingest.ErrUnsupportedEncryption):
			log.Warn().Err(err).Msg("spreadsheet locked, skipping")
			fmt.Fprintf(out, "%s: encrypted, skipped. To include it, %s\n", path, ingest.EncryptionHint)
			continue
		case err != nil:
			return err
		}
		printResult(out, res)
		ingested++
	}

	if ingested == 0 {
		return errors.New("no sources were ingested, check sources in tally.yaml")
	}
	return nil
}
