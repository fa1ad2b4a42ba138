package importing

import (
	"sync"
	"time"

	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	rowsTotal   *prometheus.CounterVec
	jobsTotal   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asset_import",
			Name:      "rows_total",
			Help:      "Rows processed by import executions, by outcome.",
		}, []string{"kind", "result"}),
		jobsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asset_import",
			Name:      "jobs_total",
			Help:      "Import jobs that reached a terminal status.",
		}, []string{"kind", "status"}),
		jobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "asset_import",
			Name:      "job_duration_seconds",
			Help:      "Wall time of import job executions.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"kind"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}

func recordRows(kind domain.JobKind, report domain.OutcomeReport) {
	m := getMetrics()
	m.rowsTotal.WithLabelValues(string(kind), "imported").Add(float64(report.Imported))
	m.rowsTotal.WithLabelValues(string(kind), "failed").Add(float64(len(report.Errors)))
}

func recordJob(kind domain.JobKind, status domain.JobStatus, started time.Time) {
	m := getMetrics()
	m.jobsTotal.WithLabelValues(string(kind), string(status)).Inc()
	m.jobDuration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())
}
