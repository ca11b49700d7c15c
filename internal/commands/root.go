package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/buildinfo"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/logger"
)

// app is the state shared by every subcommand once the root has loaded
// configuration.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	log        zerolog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Merge bank exports into one ledger and analyse spending",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "init" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.FileName, "path to tally.yaml")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCommand(),
		newIngestCommand(a),
		newBootstrapCommand(a),
		newReportCommand(a),
		newServeCommand(a),
		newHistoryCommand(a),
	)

	return rootCmd
}

// setup loads .env and tally.yaml, applies environment overrides and
// attaches a console logger to the command context.
func (a *app) setup(cmd *cobra.Command) error {
	path, err := filepath.Abs(a.configPath)
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}
	if err := config.LoadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(os.Getenv)
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	a.cfg = cfg

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Console: true, Out: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	a.log = log
	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	return nil
}
