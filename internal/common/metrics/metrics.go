// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Intake conversation metrics.
var (
	IntakeMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_messages_total",
			Help: "Total number of chat messages handled, by step at receipt",
		},
		[]string{"step"},
	)

	IntakeTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_transitions_total",
			Help: "Total number of session step transitions",
		},
		[]string{"from", "to"},
	)

	IntakeRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_rejections_total",
			Help: "Total number of sessions moved to REJECTED, by reason",
		},
		[]string{"reason"},
	)

	IntakeFraudEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_fraud_evaluations_total",
			Help: "Total number of fraud evaluations, by outcome",
		},
		[]string{"outcome"},
	)

	IntakeSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intake_sessions_active",
			Help: "Number of sessions held in memory",
		},
	)

	IntakeCollaboratorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_collaborator_errors_total",
			Help: "Total number of failed calls to verification and OCR providers",
		},
		[]string{"collaborator"},
	)
)

// Workflow worker metrics.
var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
