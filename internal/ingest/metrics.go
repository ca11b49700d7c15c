package ingest

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts ingest outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Files   *prometheus.CounterVec
	Records prometheus.Counter
	Added   prometheus.Counter
	Skipped prometheus.Counter
}

// NewMetrics creates the ingest counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_ingest_files_total",
				Help: "Files ingested by detected format and outcome",
			},
			[]string{"format", "outcome"},
		),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_ingest_records_total",
			Help: "Records produced by normalizers",
		}),
		Added: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_ingest_records_added_total",
			Help: "Records that were new to the ledger",
		}),
		Skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_ingest_rows_skipped_total",
			Help: "Source rows dropped because a date or amount was unusable",
		}),
	}
	reg.MustRegister(m.Files, m.Records, m.Added, m.Skipped)
	return m
}

func (m *Metrics) success(res *Result) {
	if m == nil {
		return
	}
	m.Files.WithLabelValues(string(res.Format), "ok").Inc()
	m.Records.Add(float64(res.Records))
	m.Added.Add(float64(res.Added))
	m.Skipped.Add(float64(res.Skipped))
}

func (m *Metrics) failure(format Format, err error) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.Files.WithLabelValues(string(format), outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrUnsupportedEncryption):
		return "encrypted"
	case errors.Is(err, ErrEmptyResult):
		return "empty"
	case errors.Is(err, ErrParseFailure):
		return "parse_failure"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	default:
		return "error"
	}
}
