package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignupRunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signup_runs_started_total",
			Help: "Total number of signup wizard runs started",
		},
	)

	SignupRunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signup_runs_active",
			Help: "Number of signup runs currently held in memory",
		},
	)

	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_step_transitions_total",
			Help: "Wizard step transitions by origin step and direction",
		},
		[]string{"from_step", "direction"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_validation_failures_total",
			Help: "Field validation failures that blocked a step",
		},
		[]string{"field"},
	)

	PaymentIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_intents_total",
			Help: "Payment intent creation attempts by result",
		},
		[]string{"result"},
	)

	PaymentIntentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_intent_duration_seconds",
			Help:    "Duration of payment provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	PaymentConfirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_confirmations_total",
			Help: "Payment confirmation outcomes",
		},
		[]string{"outcome"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_submissions_total",
			Help: "Submission persistence results (stored, failed, duplicate)",
		},
		[]string{"result"},
	)

	AdminLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_logins_total",
			Help: "Admin sign-in attempts by result",
		},
		[]string{"result"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of onboarding jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of onboarding jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of onboarding job processing in seconds",
		},
		[]string{"task_type"},
	)
)
