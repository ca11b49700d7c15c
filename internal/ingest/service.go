package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tallyhq/tally/internal/history"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/logger"
	"github.com/tallyhq/tally/internal/model"
)

// DefaultMaxBytes caps the size of a single input file.
const DefaultMaxBytes = 16 << 20

// Committer records a finished ingest, e.g. as a git commit of the data
// directory.
type Committer interface {
	Commit(ctx context.Context, message string) error
}

// Options wires optional collaborators into a Service. Zero values
// disable the corresponding step.
type Options struct {
	MaxBytes  int64  // 0 means DefaultMaxBytes
	Password  string // fallback spreadsheet password
	Source    string // history source label
	Cache     *ledger.Cache
	History   *history.Store
	Committer Committer
	Metrics   *Metrics
}

// Service runs the full ingest: normalize, merge into the ledger, persist,
// then record the upload.
type Service struct {
	pipeline *Pipeline
	store    *ledger.Store
	opts     Options
	now      func() time.Time
}

// NewService creates an ingest Service.
func NewService(pipeline *Pipeline, store *ledger.Store, opts Options) *Service {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &Service{pipeline: pipeline, store: store, opts: opts, now: time.Now}
}

// Result summarizes one successful ingest.
type Result struct {
	RunID     string
	Filename  string
	Format    Format
	Bank      string
	Currency  string
	HeaderRow int
	Encrypted bool
	Records   int    // records produced from the file
	Skipped   int    // source rows dropped
	Added     int    // records not already in the ledger
	Total     int    // ledger size after the merge
	Backup    string // copy of an unreadable prior ledger, if one was replaced
}

// Ingest normalizes src and merges it into the ledger. On any error the
// ledger file on disk is left as it was.
func (s *Service) Ingest(ctx context.Context, src Source) (*Result, error) {
	name := filepath.Base(src.Filename)
	res := &Result{RunID: uuid.NewString(), Filename: name}
	log := logger.FromContext(ctx).With().Str("run_id", res.RunID).Str("file", name).Logger()

	if int64(len(src.Data)) > s.opts.MaxBytes {
		err := fail(ErrTooLarge, name, fmt.Errorf("%d bytes exceeds limit of %d", len(src.Data), s.opts.MaxBytes))
		s.opts.Metrics.failure("", err)
		return nil, err
	}
	if src.Password == "" {
		src.Password = s.opts.Password
	}

	norm, err := s.pipeline.Normalize(src)
	if err != nil {
		log.Warn().Err(err).Msg("ingest rejected")
		s.opts.Metrics.failure("", err)
		return nil, err
	}
	res.Format = norm.Format
	res.Bank = norm.Bank
	res.Currency = norm.Currency
	res.HeaderRow = norm.HeaderRow
	res.Encrypted = norm.Encrypted
	res.Records = len(norm.Records)
	res.Skipped = norm.Skipped

	if verrs := ledger.Validate(norm.Records); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, v := range verrs {
			errs[i] = v
		}
		err := fail(ErrParseFailure, name, errors.Join(errs...))
		s.opts.Metrics.failure(norm.Format, err)
		return nil, err
	}

	if err := s.merge(ctx, log, norm.Records, res); err != nil {
		s.opts.Metrics.failure(norm.Format, err)
		return nil, err
	}

	if s.opts.Cache != nil {
		s.opts.Cache.Invalidate()
	}
	s.record(ctx, log, res)
	s.opts.Metrics.success(res)

	log.Info().
		Str("format", string(res.Format)).
		Int("records", res.Records).
		Int("skipped", res.Skipped).
		Int("added", res.Added).
		Int("total", res.Total).
		Msg("ingest complete")
	return res, nil
}

// merge runs load-merge-save under the ledger lock.
func (s *Service) merge(ctx context.Context, log zerolog.Logger, records []model.Transaction, res *Result) error {
	unlock, err := s.store.Lock(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn().Err(err).Msg("releasing ledger lock")
		}
	}()

	existing, err := s.store.Load()
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		log.Debug().Str("ledger", s.store.Path()).Msg("no ledger yet, starting empty")
	case err != nil:
		backup, berr := s.store.Backup("corrupt-" + s.now().UTC().Format("20060102T150405"))
		if berr != nil {
			return fmt.Errorf("ledger unreadable (%v) and backup failed: %w", err, berr)
		}
		log.Warn().Err(err).Str("backup", backup).Msg("ledger unreadable, starting empty")
		res.Backup = backup
		existing = nil
	}

	res.Added = ledger.CountNew(existing, records)
	merged := ledger.Merge(existing, records)
	if err := s.store.Save(merged); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	res.Total = len(merged)
	return nil
}

// record writes the history entry and commits. Failures here are logged
// only; the ledger is already saved.
func (s *Service) record(ctx context.Context, log zerolog.Logger, res *Result) {
	if s.opts.History != nil {
		entry := model.UploadEntry{
			Filename:     res.Filename,
			Bank:         res.Bank,
			Transactions: res.Records,
			Currency:     res.Currency,
			UploadedAt:   s.now(),
			Source:       s.opts.Source,
		}
		if err := s.opts.History.Record(entry); err != nil {
			log.Warn().Err(err).Msg("recording upload history")
		}
	}

	if s.opts.Committer != nil {
		msg := fmt.Sprintf("ingest %s: %d records, %d new", res.Filename, res.Records, res.Added)
		if err := s.opts.Committer.Commit(ctx, msg); err != nil {
			log.Warn().Err(err).Msg("committing data directory")
		}
	}
}
