package commands

import (
	"fmt"

	"github.com/tallyhq/tally/internal/currency"
	"github.com/tallyhq/tally/internal/gitops"
	"github.com/tallyhq/tally/internal/history"
	"github.com/tallyhq/tally/internal/ingest"
	"github.com/tallyhq/tally/internal/ledger"
)

// services is the ingest stack built from configuration.
type services struct {
	store   *ledger.Store
	cache   *ledger.Cache
	history *history.Store
	ingest  *ingest.Service
}

// newServices wires the ingest stack. source labels history entries;
// metrics may be nil.
func (a *app) newServices(source string, metrics *ingest.Metrics) (*services, error) {
	conv, err := currency.NewConverter(a.cfg.Currency.Base, a.cfg.Currency.Rates)
	if err != nil {
		return nil, fmt.Errorf("currency config: %w", err)
	}

	s := &services{
		store:   ledger.NewStore(a.cfg.LedgerPath()),
		history: history.NewStore(a.cfg.HistoryPath()),
	}
	s.cache = ledger.NewCache(s.store)

	opts := ingest.Options{
		MaxBytes: a.cfg.Server.MaxUploadBytes,
		Password: a.cfg.Password,
		Source:   source,
		Cache:    s.cache,
		History:  s.history,
		Metrics:  metrics,
	}
	if a.cfg.Git.AutoCommit {
		opts.Committer = &gitops.Committer{
			Dir:         a.cfg.DataDir(),
			AuthorName:  a.cfg.Git.AuthorName,
			AuthorEmail: a.cfg.Git.AuthorEmail,
		}
	}

	pipeline := ingest.NewPipeline(ingest.DefaultRegistry(conv))
	s.ingest = ingest.NewService(pipeline, s.store, opts)
	return s, nil
}
