// Package ledger persists the combined transaction ledger as a flat CSV
// file and provides the merge, validation and caching rules around it.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/tallyhq/tally/internal/model"
)

// ErrNotFound is returned by Load when no ledger file exists yet.
var ErrNotFound = errors.New("ledger not found")

const lockRetryDelay = 50 * time.Millisecond

// FileState identifies one version of the ledger file on disk.
type FileState struct {
	ModTime time.Time
	Size    int64
}

// Store reads and writes the ledger file at a fixed path.
type Store struct {
	path string
}

// NewStore creates a Store for the ledger file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the ledger file path.
func (s *Store) Path() string { return s.path }

// Load reads every record from the ledger file. It returns an error
// wrapping ErrNotFound when the file does not exist.
func (s *Store) Load() ([]model.Transaction, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("reading ledger: %w", err)
	}

	txns, err := ReadTransactions(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return txns, nil
}

// Save de-duplicates and sorts txns, then replaces the ledger file. The
// new content is written to a temporary file in the same directory and
// renamed into place, so readers see either the old or the new ledger.
func (s *Store) Save(txns []model.Transaction) error {
	return writeAtomic(s.path, func(w io.Writer) error {
		return WriteTransactions(w, Merge(nil, txns))
	})
}

// Stat returns the current file state, or an error wrapping ErrNotFound.
func (s *Store) Stat() (FileState, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileState{}, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return FileState{}, fmt.Errorf("stat ledger: %w", err)
	}
	return FileState{ModTime: info.ModTime(), Size: info.Size()}, nil
}

// Backup copies the current ledger file next to itself with suffix
// appended and returns the copy's path.
func (s *Store) Backup(suffix string) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("reading ledger for backup: %w", err)
	}
	dst := s.path + "." + suffix
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return dst, nil
}

// Lock takes an exclusive advisory lock guarding the load-merge-save
// sequence. It blocks until the lock is held or ctx is done.
func (s *Store) Lock(ctx context.Context) (unlock func() error, err error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}

	fl := flock.New(s.path + ".lock")
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("locking ledger: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("locking ledger: %s is held by another process", fl.Path())
	}
	return fl.Unlock, nil
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
