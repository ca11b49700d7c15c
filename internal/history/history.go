// Package history keeps the upload audit log: one entry per imported
// filename, stored as a small JSON side file next to the ledger.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tallyhq/tally/internal/model"
)

// Sources recorded in UploadEntry.Source.
const (
	SourceUpload    = "upload"
	SourceCLI       = "cli"
	SourceBootstrap = "bootstrap"
)

type document struct {
	Files []model.UploadEntry `json:"files"`
}

// Store reads and writes the history file at a fixed path.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a Store for the history file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns every entry in file order. A missing file is an empty
// history.
func (s *Store) List() ([]model.UploadEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Files, nil
}

// Recent returns entries newest first.
func (s *Store) Recent() ([]model.UploadEntry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UploadedAt.After(entries[j].UploadedAt)
	})
	return entries, nil
}

// Record upserts e by filename. An existing entry keeps its bank, currency
// and source; only the transaction count and timestamp are refreshed.
func (s *Store) Record(e model.UploadEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}

	if e.UploadedAt.IsZero() {
		e.UploadedAt = time.Now()
	}

	updated := false
	for i := range doc.Files {
		if doc.Files[i].Filename == e.Filename {
			doc.Files[i].Transactions = e.Transactions
			doc.Files[i].UploadedAt = e.UploadedAt
			updated = true
			break
		}
	}
	if !updated {
		doc.Files = append(doc.Files, e)
	}

	return s.write(doc)
}

// Totals returns the number of tracked files and the sum of their
// transaction counts.
func Totals(entries []model.UploadEntry) (files, transactions int) {
	for _, e := range entries {
		transactions += e.Transactions
	}
	return len(entries), transactions
}

func (s *Store) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return document{}, nil
		}
		return document{}, fmt.Errorf("reading upload history: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("parsing upload history %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *Store) write(doc document) error {
	if doc.Files == nil {
		doc.Files = []model.UploadEntry{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding upload history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing upload history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
