package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	gocache "github.com/patrickmn/go-cache"

	"github.com/tallyhq/tally/internal/analysis"
	"github.com/tallyhq/tally/internal/history"
	"github.com/tallyhq/tally/internal/ingest"
	"github.com/tallyhq/tally/internal/model"
)

// multipartOverhead is allowed on top of the file cap for form framing.
const multipartOverhead = 1 << 20

type trendsResponse struct {
	Monthly    []analysis.TrendPoint   `json:"monthly"`
	Categories analysis.CategorySeries `json:"categories"`
}

type historyResponse struct {
	Files             []model.UploadEntry `json:"files"`
	TotalFiles        int                 `json:"total_files"`
	TotalTransactions int                 `json:"total_transactions"`
}

type uploadResponse struct {
	Success   bool   `json:"success"`
	RunID     string `json:"run_id"`
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	Bank      string `json:"bank"`
	Currency  string `json:"currency"`
	Records   int    `json:"records"`
	Skipped   int    `json:"skipped"`
	Added     int    `json:"added"`
	Total     int    `json:"total"`
	Encrypted bool   `json:"encrypted"`
}

// cached answers from the response cache when the ledger has not changed
// since key was last computed.
func (s *Server) cached(w http.ResponseWriter, r *http.Request, key string, compute func([]model.Transaction) (any, error)) {
	snap, err := s.ledger.Snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	k := fmt.Sprintf("%s@%d", key, snap.ModTime.UnixNano())
	if v, ok := s.responses.Get(k); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	v, err := compute(snap.Transactions)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.responses.Set(k, v, gocache.DefaultExpiration)
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, "summary", func(txns []model.Transaction) (any, error) {
		return analysis.Summarize(txns), nil
	})
}

func (s *Server) handlePeriod(period analysis.Period) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.cached(w, r, string(period), func(txns []model.Transaction) (any, error) {
			return analysis.Summaries(txns, period), nil
		})
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, "categories", func(txns []model.Transaction) (any, error) {
		return analysis.Categories(txns), nil
	})
}

func (s *Server) handleCategoryDetail(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	period, err := analysis.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cached(w, r, "category/"+name+"/"+string(period), func(txns []model.Transaction) (any, error) {
		return analysis.CategoryDetail(txns, name, period)
	})
}

func (s *Server) handleMerchants(w http.ResponseWriter, r *http.Request) {
	n := defaultMerchants
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		n = parsed
	}
	s.cached(w, r, "merchants/"+strconv.Itoa(n), func(txns []model.Transaction) (any, error) {
		return analysis.TopMerchants(txns, n), nil
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, "trends", func(txns []model.Transaction) (any, error) {
		return trendsResponse{
			Monthly:    analysis.Trend(txns),
			Categories: analysis.CategoryTrends(txns, trendCategories),
		}, nil
	})
}

func (s *Server) handleUploadHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.Recent()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	files, txns := history.Totals(entries)
	writeJSON(w, http.StatusOK, historyResponse{Files: entries, TotalFiles: files, TotalTransactions: txns})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.fail(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no file selected")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		s.fail(w, r, fmt.Errorf("reading upload: %w", err))
		return
	}
	if int64(len(data)) > s.maxBytes {
		s.fail(w, r, fmt.Errorf("%w: %s exceeds %d bytes", ingest.ErrTooLarge, header.Filename, s.maxBytes))
		return
	}

	res, err := s.ingest.Ingest(r.Context(), ingest.Source{
		Filename: header.Filename,
		Data:     data,
		Password: r.FormValue("password"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.responses.Flush()

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:   true,
		RunID:     res.RunID,
		Filename:  res.Filename,
		Format:    string(res.Format),
		Bank:      res.Bank,
		Currency:  res.Currency,
		Records:   res.Records,
		Skipped:   res.Skipped,
		Added:     res.Added,
		Total:     res.Total,
		Encrypted: res.Encrypted,
	})
}
