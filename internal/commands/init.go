package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/gitops"
)

func newInitCommand() *cobra.Command {
	var git bool
	var base string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create tally.yaml and an empty data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, base, git)
		},
	}

	cmd.Flags().BoolVar(&git, "git", false, "version the data directory with git and auto-commit after each ingest")
	cmd.Flags().StringVar(&base, "base", "GBP", "base currency for the ledger")

	return cmd
}

func runInit(cmd *cobra.Command, dir, base string, git bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	cfg := config.Default()
	cfg.SetRoot(dir)
	cfg.Currency.Base = base
	cfg.Git.AutoCommit = git

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	// Lock and temp files never belong in history.
	gitignore := "*.lock\n.*.tmp-*\n*.corrupt-*\n"
	if err := os.WriteFile(filepath.Join(dataDir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	out := cmd.OutOrStdout()
	if !git {
		fmt.Fprintf(out, "Initialized tally at %s\n", dir)
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := gitops.Init(ctx, dataDir); err != nil {
		return err
	}
	hash, err := gitops.CommitAll(ctx, dataDir, "init: empty ledger", cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized tally at %s (%s)\n", dir, hash)
	return nil
}
