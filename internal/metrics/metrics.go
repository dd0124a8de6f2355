package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InterviewsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interview_sessions_active",
		Help: "Currently active interview sessions",
	})

	InterviewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_sessions_total",
		Help: "Total interview sessions started",
	})

	InterviewsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_sessions_completed_total",
		Help: "Interview sessions that reached the completed phase",
	})

	Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_interactions_total",
		Help: "Handled interactions by resulting response type",
	}, []string{"type"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "interview_stage_duration_seconds",
		Help:    "Per-stage latency",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0, 10.0},
	}, []string{"stage"})

	FollowUps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_followups_total",
		Help: "Follow-up prompts issued by action",
	}, []string{"action"})

	Fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_fallbacks_total",
		Help: "Degraded responses served after an external service failure",
	}, []string{"stage"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_errors_total",
		Help: "Error counts by stage",
	}, []string{"stage", "error_type"})
)
