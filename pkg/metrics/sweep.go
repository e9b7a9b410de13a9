package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics records scheduler job outcomes and payout business counters.
type SweepMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec

	batches       *prometheus.CounterVec
	payouts       *prometheus.CounterVec
	payoutCents   *prometheus.CounterVec
	payoutFailure *prometheus.CounterVec
}

// NewSweepMetrics registers the sweep metrics on the provided registerer.
func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	if reg == nil {
		return &SweepMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of scheduled jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful scheduled job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed scheduled job executions.",
	}, []string{"job"})
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_batches_created_total",
		Help: "Payout batches created per payout method.",
	}, []string{"method"})
	payouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payouts_succeeded_total",
		Help: "Seller payouts paid successfully per payout method.",
	}, []string{"method"})
	payoutCents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_cents_total",
		Help: "Total cents paid to sellers per payout method.",
	}, []string{"method"})
	payoutFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payouts_failed_total",
		Help: "Seller payouts that failed per payout method.",
	}, []string{"method"})
	reg.MustRegister(duration, success, failure, batches, payouts, payoutCents, payoutFailure)
	return &SweepMetrics{
		duration:      duration,
		success:       success,
		failure:       failure,
		batches:       batches,
		payouts:       payouts,
		payoutCents:   payoutCents,
		payoutFailure: payoutFailure,
	}
}

// ObserveDuration records the duration for the named job.
func (s *SweepMetrics) ObserveDuration(job string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (s *SweepMetrics) IncSuccess(job string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (s *SweepMetrics) IncFailure(job string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncBatchCreated counts one created payout batch.
func (s *SweepMetrics) IncBatchCreated(method string) {
	if s == nil || s.batches == nil {
		return
	}
	s.batches.WithLabelValues(normalizeLabel(method)).Inc()
}

// ObservePayout counts one successful seller payout and its amount.
func (s *SweepMetrics) ObservePayout(method string, amountCents int64) {
	if s == nil || s.payouts == nil {
		return
	}
	s.payouts.WithLabelValues(normalizeLabel(method)).Inc()
	s.payoutCents.WithLabelValues(normalizeLabel(method)).Add(float64(amountCents))
}

// IncPayoutFailure counts one failed seller payout.
func (s *SweepMetrics) IncPayoutFailure(method string) {
	if s == nil || s.payoutFailure == nil {
		return
	}
	s.payoutFailure.WithLabelValues(normalizeLabel(method)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
