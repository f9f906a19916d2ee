package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "clinic_"

	resultSuccess = "success"
	resultError   = "error"
	resultLimited = "limited"
)

var (
	registerOnce sync.Once

	factIngestTotal   *prometheus.CounterVec
	factIngestLatency *prometheus.HistogramVec
	factsIngested     prometheus.Counter

	snapshotTotal   *prometheus.CounterVec
	snapshotLatency *prometheus.HistogramVec

	alertsEmitted *prometheus.CounterVec

	rcaOpsTotal *prometheus.CounterVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		factIngestTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fact_ingest_requests_total",
				Help: "Total fact ingest requests by result",
			},
			[]string{"result"},
		)
		factIngestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fact_ingest_latency_seconds",
				Help:    "Fact ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		factsIngested = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "facts_ingested_total",
				Help: "Total facts appended to the store",
			},
		)

		snapshotTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_compute_total",
				Help: "Total snapshot computations by result",
			},
			[]string{"result"},
		)
		snapshotLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "snapshot_compute_latency_seconds",
				Help:    "Snapshot computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		alertsEmitted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_emitted_total",
				Help: "Total alerts emitted by severity and metric",
			},
			[]string{"severity", "metric"},
		)

		rcaOpsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rca_operations_total",
				Help: "Total RCA operations by op and result",
			},
			[]string{"op", "result"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status",
			},
			[]string{"method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)

		prometheus.MustRegister(
			factIngestTotal,
			factIngestLatency,
			factsIngested,
			snapshotTotal,
			snapshotLatency,
			alertsEmitted,
			rcaOpsTotal,
			reportExportTotal,
			reportExportLatency,
			httpRequests,
			httpLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveFactIngest records ingest request duration, result and fact count.
func ObserveFactIngest(result string, count int, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if factIngestTotal != nil {
		factIngestTotal.WithLabelValues(result).Inc()
	}
	if factIngestLatency != nil {
		factIngestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if factsIngested != nil && result == resultSuccess && count > 0 {
		factsIngested.Add(float64(count))
	}
}

// ObserveSnapshot records snapshot computation latency and result.
func ObserveSnapshot(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if snapshotTotal != nil {
		snapshotTotal.WithLabelValues(result).Inc()
	}
	if snapshotLatency != nil {
		snapshotLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncAlert increments the emitted alert counter.
func IncAlert(severity, metric string) {
	if severity == "" {
		severity = "none"
	}
	if metric == "" {
		metric = "unknown"
	}
	if alertsEmitted != nil {
		alertsEmitted.WithLabelValues(severity, metric).Inc()
	}
}

// IncRCAOperation increments RCA operation counters.
func IncRCAOperation(op, result string) {
	if op == "" {
		op = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if rcaOpsTotal != nil {
		rcaOpsTotal.WithLabelValues(op, result).Inc()
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, status string, duration time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultLimited = resultLimited
)
