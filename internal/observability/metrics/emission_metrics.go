package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSubmitted = "submitted"
	OutcomeRetried   = "retried"
	OutcomeFailed    = "failed"
)

// EmissionMetrics captures emission pipeline health signals.
type EmissionMetrics struct {
	attempts        *prometheus.CounterVec
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	webhookEvents   *prometheus.CounterVec
	sweepRuns       prometheus.Counter
	sweepUpdates    prometheus.Counter
}

var (
	emissionMetricsOnce sync.Once
	emissionMetrics     *EmissionMetrics
)

// Emission returns the singleton emission metrics registry.
func Emission() *EmissionMetrics {
	emissionMetricsOnce.Do(func() {
		emissionMetrics = newEmissionMetrics(prometheus.DefaultRegisterer)
	})
	return emissionMetrics
}

// ResetEmissionMetricsForTest resets the emission metrics singleton for tests.
func ResetEmissionMetricsForTest() {
	emissionMetricsOnce = sync.Once{}
	emissionMetrics = nil
}

func newEmissionMetrics(registerer prometheus.Registerer) *EmissionMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fiscal_emission_attempts_total",
		Help: "Emission worker attempts by outcome.",
	}, []string{"outcome"})
	gatewayRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fiscal_gateway_requests_total",
		Help: "Authority gateway requests by operation and outcome.",
	}, []string{"operation", "outcome"})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fiscal_gateway_request_duration_seconds",
		Help:    "Authority gateway request latency.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"operation"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fiscal_webhook_events_total",
		Help: "Status callbacks received by mapped status.",
	}, []string{"status"})
	sweepRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fiscal_sync_sweep_runs_total",
		Help: "Reconciliation sweep executions.",
	})
	sweepUpdates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fiscal_sync_sweep_updates_total",
		Help: "Invoices updated by the reconciliation sweep.",
	})

	for _, collector := range []prometheus.Collector{
		attempts, gatewayRequests, gatewayDuration, webhookEvents, sweepRuns, sweepUpdates,
	} {
		registerCollector(registerer, collector)
	}

	return &EmissionMetrics{
		attempts:        attempts,
		gatewayRequests: gatewayRequests,
		gatewayDuration: gatewayDuration,
		webhookEvents:   webhookEvents,
		sweepRuns:       sweepRuns,
		sweepUpdates:    sweepUpdates,
	}
}

func registerCollector(registerer prometheus.Registerer, collector prometheus.Collector) {
	if err := registerer.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
	}
}

// ObserveAttempt records an emission attempt outcome.
func (m *EmissionMetrics) ObserveAttempt(outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
}

// ObserveGateway records a gateway call with its latency.
func (m *EmissionMetrics) ObserveGateway(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(operation, outcome).Inc()
	m.gatewayDuration.WithLabelValues(operation).Observe(seconds)
}

// ObserveWebhook records a received status callback.
func (m *EmissionMetrics) ObserveWebhook(status string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(status).Inc()
}

// ObserveSweep records one reconciliation sweep and how many invoices it updated.
func (m *EmissionMetrics) ObserveSweep(updated int) {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
	m.sweepUpdates.Add(float64(updated))
}
