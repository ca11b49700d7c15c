// Package gitops versions the data directory with the git CLI so every
// ingest leaves an auditable commit.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotRepo is returned when the data directory has no git repository.
var ErrNotRepo = errors.New("not a git repository")

// Init initializes a new git repository at dir.
func Init(ctx context.Context, dir string) error {
	if out, err := run(ctx, dir, "init"); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// HasChanges reports whether dir has uncommitted or untracked files.
func HasChanges(ctx context.Context, dir string) (bool, error) {
	out, err := run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("git status: %s: %w", out, err)
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitAll stages all files and creates a commit. Returns the short commit
// hash, or "" when there was nothing to commit.
func CommitAll(ctx context.Context, dir, message, authorName, authorEmail string) (string, error) {
	changed, err := HasChanges(ctx, dir)
	if err != nil {
		return "", err
	}
	if !changed {
		return "", nil
	}

	if out, err := run(ctx, dir, "add", "-A"); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	author := fmt.Sprintf("%s <%s>", authorName, authorEmail)
	// Committer identity is set explicitly so commits work on hosts with
	// no global git config.
	if out, err := run(ctx, dir,
		"-c", "user.name="+authorName,
		"-c", "user.email="+authorEmail,
		"commit", "-m", message, "--author", author,
	); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := run(ctx, dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Committer commits the data directory after each ingest.
type Committer struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
}

// Commit stages and commits everything under Dir.
func (c *Committer) Commit(ctx context.Context, message string) error {
	if !IsRepo(c.Dir) {
		return fmt.Errorf("%w: %s", ErrNotRepo, c.Dir)
	}
	_, err := CommitAll(ctx, c.Dir, message, c.AuthorName, c.AuthorEmail)
	return err
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}
