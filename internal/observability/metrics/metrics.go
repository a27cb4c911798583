package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "solarpark_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	decodeErrors *prometheus.CounterVec

	reportJobsTotal *prometheus.CounterVec
	reportJobLag    *prometheus.HistogramVec
	reportLatency   *prometheus.HistogramVec

	workbookExportTotal   *prometheus.CounterVec
	workbookExportLatency *prometheus.HistogramVec

	alarmEventsTotal *prometheus.CounterVec

	alarmStreamClients prometheus.Gauge
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		decodeErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "decode_errors_total",
				Help: "Total register decode errors by vendor",
			},
			[]string{"vendor"},
		)

		reportJobsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_jobs_total",
				Help: "Total report generation jobs by result",
			},
			[]string{"result"},
		)
		reportJobLag = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_job_queue_lag_seconds",
				Help:    "Delay between report submission and generation start",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_job_latency_seconds",
				Help:    "Report generation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		workbookExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "workbook_export_total",
				Help: "Total workbook export operations by format and result",
			},
			[]string{"format", "result"},
		)
		workbookExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "workbook_export_latency_seconds",
				Help:    "Workbook export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		alarmEventsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alarm_events_total",
				Help: "Total decoded alarm events by state",
			},
			[]string{"state"},
		)

		alarmStreamClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "alarm_stream_clients",
				Help: "Connected alarm stream subscribers",
			},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			decodeErrors,
			reportJobsTotal,
			reportJobLag,
			reportLatency,
			workbookExportTotal,
			workbookExportLatency,
			alarmEventsTotal,
			alarmStreamClients,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// IncDecodeError increments register decode error counter.
func IncDecodeError(vendor string) {
	if vendor == "" {
		vendor = "unknown"
	}
	if decodeErrors != nil {
		decodeErrors.WithLabelValues(vendor).Inc()
	}
}

// ObserveReportJob records report generation latency and result.
func ObserveReportJob(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if reportJobsTotal != nil {
		reportJobsTotal.WithLabelValues(result).Inc()
	}
	if reportLatency != nil {
		reportLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveReportQueueLag records how long a report waited before a worker
// picked it up.
func ObserveReportQueueLag(result string, lag time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if lag < 0 {
		lag = 0
	}
	if reportJobLag != nil {
		reportJobLag.WithLabelValues(result).Observe(lag.Seconds())
	}
}

// ObserveWorkbookExport records export latency and result.
func ObserveWorkbookExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if workbookExportTotal != nil {
		workbookExportTotal.WithLabelValues(format, result).Inc()
	}
	if workbookExportLatency != nil {
		workbookExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncAlarmEvent increments decoded alarm counters.
func IncAlarmEvent(state string) {
	if state == "" {
		state = "unknown"
	}
	if alarmEventsTotal != nil {
		alarmEventsTotal.WithLabelValues(state).Inc()
	}
}

// AddAlarmStreamClients adjusts the connected subscriber gauge.
func AddAlarmStreamClients(delta int) {
	if alarmStreamClients != nil {
		alarmStreamClients.Add(float64(delta))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
