package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ChainMetrics — метрики выполнения цепочек.
//
// Регистрируются в переданном Registerer: в сервисах это
// prometheus.DefaultRegisterer, в тестах — отдельный prometheus.NewRegistry().
type ChainMetrics struct {
	chains       *prometheus.CounterVec
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

// NewChainMetrics создаёт и регистрирует метрики.
func NewChainMetrics(reg prometheus.Registerer) *ChainMetrics {
	m := &ChainMetrics{
		chains: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherchain_chains_executed_total",
			Help: "Total number of executed chains by outcome",
		}, []string{"outcome"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cipherchain_steps_executed_total",
			Help: "Total number of executed steps by type and outcome",
		}, []string{"type", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cipherchain_step_duration_seconds",
			Help:    "Step execution duration",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"type"}),
	}

	if reg != nil {
		reg.MustRegister(m.chains, m.steps, m.stepDuration)
	}
	return m
}

// ObserveChain учитывает выполненную цепочку.
func (m *ChainMetrics) ObserveChain(success bool) {
	if m == nil {
		return
	}
	m.chains.WithLabelValues(outcome(success)).Inc()
}

// ObserveStep учитывает выполненный шаг.
func (m *ChainMetrics) ObserveStep(stepType string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(stepType, outcome(success)).Inc()
	m.stepDuration.WithLabelValues(stepType).Observe(d.Seconds())
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
