// Package api serves ledger analyses and file uploads over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tallyhq/tally/internal/analysis"
	"github.com/tallyhq/tally/internal/history"
	"github.com/tallyhq/tally/internal/ingest"
	"github.com/tallyhq/tally/internal/ledger"
)

const (
	defaultMerchants = 20
	trendCategories  = 5
	responseTTL      = 10 * time.Minute
)

// Config wires the server's collaborators.
type Config struct {
	Logger           zerolog.Logger
	Ledger           *ledger.Cache
	Ingest           *ingest.Service
	History          *history.Store
	Gatherer         prometheus.Gatherer // nil disables /metrics
	MaxUploadBytes   int64
	UploadsPerMinute int // 0 disables upload rate limiting
}

// Server holds the HTTP handlers.
type Server struct {
	log       zerolog.Logger
	ledger    *ledger.Cache
	ingest    *ingest.Service
	history   *history.Store
	gatherer  prometheus.Gatherer
	responses *gocache.Cache
	limiter   *rate.Limiter
	maxBytes  int64
}

// New creates a Server.
func New(cfg Config) *Server {
	s := &Server{
		log:       cfg.Logger,
		ledger:    cfg.Ledger,
		ingest:    cfg.Ingest,
		history:   cfg.History,
		gatherer:  cfg.Gatherer,
		responses: gocache.New(responseTTL, 2*responseTTL),
		maxBytes:  cfg.MaxUploadBytes,
	}
	if s.maxBytes <= 0 {
		s.maxBytes = ingest.DefaultMaxBytes
	}
	if cfg.UploadsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.UploadsPerMinute)), cfg.UploadsPerMinute)
	}
	return s
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.log))

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/monthly", s.handlePeriod(analysis.Monthly))
		r.Get("/quarterly", s.handlePeriod(analysis.Quarterly))
		r.Get("/yearly", s.handlePeriod(analysis.Yearly))
		r.Get("/categories", s.handleCategories)
		r.Get("/category/{name}/{period}", s.handleCategoryDetail)
		r.Get("/merchants", s.handleMerchants)
		r.Get("/trends", s.handleTrends)
		r.Get("/upload-history", s.handleUploadHistory)

		r.With(rateLimit(s.limiter)).Post("/upload", s.handleUpload)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}
