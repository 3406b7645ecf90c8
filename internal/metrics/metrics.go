// Package metrics exposes Prometheus instrumentation for evaluation runs.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	global *Metrics
	once   sync.Once
)

// Batch outcomes recorded on OracleBatches.
const (
	OutcomeOK         = "ok"
	OutcomeCached     = "cached"
	OutcomeCallError  = "call_error"
	OutcomeParseError = "parse_error"
)

// Vendor outcomes recorded on Vendors.
const (
	VendorEvaluated = "evaluated"
	VendorSkipped   = "skipped"
)

// Metrics holds the collectors shared by the pipeline.
type Metrics struct {
	DocumentsExtracted *prometheus.CounterVec
	OracleBatches      *prometheus.CounterVec
	OracleDuration     prometheus.Histogram
	Vendors            *prometheus.CounterVec
	RunDuration        prometheus.Histogram
}

// Get returns the process-wide metrics, registering them on first use.
//
// Metrics:
//   - tender_documents_extracted_total{method}
//   - tender_oracle_batches_total{outcome}
//   - tender_oracle_call_duration_seconds
//   - tender_vendors_total{outcome}
//   - tender_run_duration_seconds
func Get() *Metrics {
	once.Do(func() {
		global = &Metrics{
			DocumentsExtracted: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tender_documents_extracted_total",
					Help: "Documents processed by the extractor",
				},
				[]string{"method"}, // "text_layer" or "failed"
			),
			OracleBatches: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tender_oracle_batches_total",
					Help: "Document batches sent to the classification oracle",
				},
				[]string{"outcome"},
			),
			OracleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "tender_oracle_call_duration_seconds",
				Help:    "Latency of oracle calls",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}),
			Vendors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tender_vendors_total",
					Help: "Vendor archives handled",
				},
				[]string{"outcome"},
			),
			RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "tender_run_duration_seconds",
				Help:    "Wall time of complete evaluation runs",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			}),
		}
	})
	return global
}
