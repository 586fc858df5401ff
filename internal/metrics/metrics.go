package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	curationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productcurator_curation_runs_total",
			Help: "Curation runs by outcome.",
		},
		[]string{"outcome"},
	)
	candidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productcurator_candidates_total",
			Help: "Candidates handled by the curation engine, by outcome.",
		},
		[]string{"outcome"},
	)
	candidateScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "productcurator_candidate_score",
			Help:    "Overall quality score of scored candidates.",
			Buckets: []float64{50, 60, 70, 80, 90, 100},
		},
	)
	supplierRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productcurator_supplier_requests_total",
			Help: "Supplier catalog searches by status.",
		},
		[]string{"supplier", "status"},
	)
	supplierDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productcurator_supplier_request_duration_seconds",
			Help:    "Latency of supplier catalog searches.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"supplier"},
	)
	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productcurator_job_runs_total",
			Help: "Scheduled job executions by final status.",
		},
		[]string{"job", "status"},
	)
	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productcurator_job_duration_seconds",
			Help:    "Duration of scheduled job executions.",
			Buckets: []float64{1, 5, 15, 60, 300, 900},
		},
		[]string{"job"},
	)
	reviewQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "productcurator_review_queue_depth",
			Help: "Items waiting for manual review.",
		},
	)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productcurator_http_requests_total",
			Help: "Total number of admin API requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productcurator_http_request_duration_seconds",
			Help:    "Histogram of admin API request durations.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "endpoint", "status"},
	)
)

func init() {
	prometheus.MustRegister(curationRuns)
	prometheus.MustRegister(candidatesTotal)
	prometheus.MustRegister(candidateScore)
	prometheus.MustRegister(supplierRequests)
	prometheus.MustRegister(supplierDuration)
	prometheus.MustRegister(jobRuns)
	prometheus.MustRegister(jobDuration)
	prometheus.MustRegister(reviewQueueDepth)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
}

// RecordRun counts a finished curation run.
func RecordRun(outcome string) {
	curationRuns.WithLabelValues(outcome).Inc()
}

// RecordCandidate counts one candidate outcome.
func RecordCandidate(outcome string) {
	candidatesTotal.WithLabelValues(outcome).Inc()
}

// ObserveScore records an overall quality score.
func ObserveScore(score float64) {
	candidateScore.Observe(score)
}

// RecordSupplierRequest records one catalog search.
func RecordSupplierRequest(supplier string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	supplierRequests.WithLabelValues(supplier, status).Inc()
	supplierDuration.WithLabelValues(supplier).Observe(duration.Seconds())
}

// RecordJob records a finished scheduled job.
func RecordJob(job, status string, duration time.Duration) {
	jobRuns.WithLabelValues(job, status).Inc()
	jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// SetReviewQueueDepth publishes the current review backlog.
func SetReviewQueueDepth(n int) {
	reviewQueueDepth.Set(float64(n))
}

// RecordRequest records metrics for one admin API request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}

// Handler exposes the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
