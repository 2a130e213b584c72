package manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"taskboard/internal/models"
)

var (
	operationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_store_operations_total",
			Help: "Total number of task store operations",
		},
		[]string{"operation", "status"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskboard_store_operation_duration_seconds",
			Help:    "Duration of task store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	taskTitleLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskboard_task_title_length_chars",
			Help:    "Length distribution of created task titles",
			Buckets: []float64{10, 25, 50, 100, 200},
		},
	)

	tasksByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "taskboard_tasks",
			Help: "Current number of tasks by status",
		},
		[]string{"status"},
	)

	completionRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskboard_completion_rate",
			Help: "Share of completed tasks (0..1)",
		},
	)
)

func observeResult(op string, err error) {
	status := "success"
	switch {
	case err == nil:
	case IsNotFound(err):
		status = "not_found"
	case IsValidation(err):
		status = "invalid"
	default:
		status = "error"
	}
	operationCount.WithLabelValues(op, status).Inc()
}

// PublishStatistics выставляет gauge-метрики по текущей статистике
func PublishStatistics(stats models.Statistics) {
	for _, s := range models.Statuses {
		tasksByStatus.WithLabelValues(string(s)).Set(float64(stats.ByStatus[s]))
	}
	completionRate.Set(stats.CompletionRate)
}
