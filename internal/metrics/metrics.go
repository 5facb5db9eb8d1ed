package metrics

import (
	"net/http"

	"github.com/intent-feedx/feedx/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedx_search_runs_total",
			Help: "Keyword/source searches executed, by outcome",
		},
		[]string{"source_type", "status"},
	)

	ContentsRetrievedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedx_contents_retrieved_total",
			Help: "New contents enriched by searches",
		},
		[]string{"source_type"},
	)

	ContentsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedx_contents_skipped_total",
			Help: "Candidates dropped because their URL was already known",
		},
		[]string{"source_type"},
	)

	ContentsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedx_contents_saved_total",
			Help: "Content rows inserted into the store",
		},
		[]string{"source_type"},
	)

	DailyRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedx_daily_run_duration_seconds",
			Help:    "Duration of daily ingestion runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	DailyRunLastFinished = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedx_daily_run_last_finished_timestamp_seconds",
			Help: "Unix time the last daily ingestion run finished",
		},
	)
)

// RecordSearch updates counters for a finished search and its save count
func RecordSearch(sourceType models.SourceType, run *models.SearchRun, saved int, err error) {
	src := sourceLabel(sourceType)
	if err != nil {
		SearchRunsTotal.WithLabelValues(src, "error").Inc()
		return
	}

	SearchRunsTotal.WithLabelValues(src, "ok").Inc()
	if run != nil {
		ContentsRetrievedTotal.WithLabelValues(src).Add(float64(run.RetrievedCount))
		ContentsSkippedTotal.WithLabelValues(src).Add(float64(run.SkippedCount))
	}
	ContentsSavedTotal.WithLabelValues(src).Add(float64(saved))
}

// sourceLabel folds unsupported source types into one series
func sourceLabel(sourceType models.SourceType) string {
	if !sourceType.Known() {
		return "unknown"
	}
	return string(sourceType)
}

// RecordDailyRun observes a finished daily report
func RecordDailyRun(report *models.DailyReport) {
	if report == nil {
		return
	}
	DailyRunDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	DailyRunLastFinished.Set(float64(report.FinishedAt.Unix()))
}

// Handler serves the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.Handler()
}
