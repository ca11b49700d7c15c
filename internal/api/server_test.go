package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/currency"
	"github.com/tallyhq/tally/internal/history"
	"github.com/tallyhq/tally/internal/ingest"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/model"
)

const monzoUpload = `Transaction ID,Date,Time,Type,Name,Category,Amount,Currency
tx_01,01/12/2025,08:01:12,Card payment,Pret A Manger,Eating out,-4.25,GBP
tx_02,01/12/2025,09:00:00,Faster payment,ACME Ltd,Income,2500.00,GBP
`

type testEnv struct {
	store   *ledger.Store
	handler http.Handler
}

func newEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()
	dir := t.TempDir()

	conv, err := currency.NewConverter("GBP", map[string]float64{"KRW": 1750})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	store := ledger.NewStore(filepath.Join(dir, "combined_transactions.csv"))
	cache := ledger.NewCache(store)
	hist := history.NewStore(filepath.Join(dir, "upload_history.json"))
	svc := ingest.NewService(ingest.NewPipeline(ingest.DefaultRegistry(conv)), store, ingest.Options{
		Source:  history.SourceUpload,
		Cache:   cache,
		History: hist,
		Metrics: ingest.NewMetrics(reg),
	})

	cfg := Config{
		Logger:   zerolog.Nop(),
		Ledger:   cache,
		Ingest:   svc,
		History:  hist,
		Gatherer: reg,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return &testEnv{store: store, handler: New(cfg).Router()}
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	spend := func(day int, merchant, category, amount string) model.Transaction {
		a := decimal.RequireFromString(amount)
		return model.Transaction{
			Date: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC), Bank: "Monzo", Type: "Card payment",
			Merchant: merchant, Category: category, AmountBase: a.Neg(),
			OriginalCurrency: "GBP", OriginalAmount: a,
		}
	}
	require.NoError(t, e.store.Save([]model.Transaction{
		spend(3, "Tesco", "Groceries", "30"),
		spend(4, "Pret", "Eating out", "10"),
		spend(20, "Tesco", "Groceries", "20"),
	}))
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (e *testEnv) upload(t *testing.T, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestSummary_NoLedger(t *testing.T) {
	env := newEnv(t, nil)
	rec := env.get(t, "/api/summary")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errorResponse
	decode(t, rec, &body)
	assert.Equal(t, noData, body.Error)
}

func TestSummary(t *testing.T) {
	env := newEnv(t, nil)
	env.seed(t)

	rec := env.get(t, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "60", body["total_spending"])
	assert.Equal(t, float64(3), body["transaction_count"])
	assert.Equal(t, "2024-01-03", body["date_from"])
}

func TestPeriods(t *testing.T) {
	env := newEnv(t, nil)
	env.seed(t)

	for _, path := range []string{"/api/monthly", "/api/quarterly", "/api/yearly"} {
		rec := env.get(t, path)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var rows []map[string]any
		decode(t, rec, &rows)
		require.Len(t, rows, 1, path)
		assert.Equal(t, "60", rows[0]["spending"], path)
	}
}

func TestCategories(t *testing.T) {
	env := newEnv(t, nil)
	env.seed(t)

	var rows []map[string]any
	decode(t, env.get(t, "/api/categories"), &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "Groceries", rows[0]["category"])
	assert.Equal(t, "83.3", rows[0]["percentage"])
}

func TestCategoryDetail(t *testing.T) {
	env := newEnv(t, nil)
	env.seed(t)

	rec := env.get(t, "/api/category/groceries/daily")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "Groceries", body["category"])
	assert.Equal(t, float64(2), body["count"])

	assert.Equal(t, http.StatusNotFound, env.get(t, "/api/category/Travel/monthly").Code)
	assert.Equal(t, http.StatusBadRequest, env.get(t, "/api/category/Groceries/weekly").Code)
}

func TestMerchants(t *testing.T) {
	env := newEnv(t, nil)
	env.seed(t)

	var rows []map[string]any
	decode(t, env.get(t, "/api/merchants?limit=1"), &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tesco", rows[0]["merchant"])

	assert.Equal(t, http.StatusBadRequest, env.get(t, "/api/merchants?limit=zero").Code)
}

func TestTrends(t *testing.T) {
	env := newEnv(t, nil)
	env.seed(t)

	var body trendsResponse
	decode(t, env.get(t, "/api/trends"), &body)
	require.Len(t, body.Monthly, 1)
	assert.Equal(t, "2024-01", body.Monthly[0].Month)
	assert.Equal(t, []string{"2024-01"}, body.Categories.Labels)
}

func TestUpload(t *testing.T) {
	env := newEnv(t, nil)
	env.seed(t)

	// Prime the response cache before the ledger changes.
	require.Equal(t, http.StatusOK, env.get(t, "/api/summary").Code)

	rec := env.upload(t, "monzo.csv", monzoUpload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res uploadResponse
	decode(t, rec, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "monzo", res.Format)
	assert.Equal(t, "GBP", res.Currency)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 5, res.Total)

	var summary map[string]any
	decode(t, env.get(t, "/api/summary"), &summary)
	assert.Equal(t, float64(5), summary["transaction_count"])

	var hist historyResponse
	decode(t, env.get(t, "/api/upload-history"), &hist)
	require.Len(t, hist.Files, 1)
	assert.Equal(t, "monzo.csv", hist.Files[0].Filename)
	assert.Equal(t, history.SourceUpload, hist.Files[0].Source)
	assert.Equal(t, 2, hist.TotalTransactions)
}

func TestUpload_Errors(t *testing.T) {
	env := newEnv(t, func(c *Config) { c.MaxUploadBytes = 64 })

	assert.Equal(t, http.StatusBadRequest, env.upload(t, "notes.txt", "hello").Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, env.upload(t, "big.csv", monzoUpload).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_RateLimited(t *testing.T) {
	env := newEnv(t, func(c *Config) { c.UploadsPerMinute = 1 })

	assert.Equal(t, http.StatusOK, env.upload(t, "monzo.csv", monzoUpload).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.upload(t, "monzo.csv", monzoUpload).Code)
}

func TestMetrics(t *testing.T) {
	env := newEnv(t, nil)
	require.Equal(t, http.StatusOK, env.upload(t, "monzo.csv", monzoUpload).Code)

	rec := env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tally_ingest_files_total{format="monzo",outcome="ok"} 1`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ingest.Error{Kind: ingest.ErrEmptyResult, Filename: "a.csv"}, http.StatusBadRequest},
		{&ingest.Error{Kind: ingest.ErrTooLarge, Filename: "a.csv"}, http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{ledger.ErrNotFound, http.StatusNotFound},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
