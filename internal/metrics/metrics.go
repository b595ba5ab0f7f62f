package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени занял поход в бэкенд за данными вью
	RefreshDuration *prometheus.HistogramVec

	// Traffic: обновления по вью с исходом
	RefreshTotal *prometheus.CounterVec

	// Исходы действий оператора (и resolve, и одноразовые действия)
	ActionsTotal *prometheus.CounterVec

	// Сработавшие тики планировщика
	PollTicks prometheus.Counter

	// Saturation: состояние Circuit Breaker (0 - ок, 1 - выбило)
	CircuitBreakerState prometheus.Gauge

	// Audit: заполненность буфера (backpressure)
	AuditBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RefreshDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_refresh_duration_seconds",
			Help:    "Histogram of backend refresh latencies per view.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"view"}),

		RefreshTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "console_refresh_total",
			Help: "Total number of view refreshes.",
		}, []string{"view", "outcome"}), // исходы: success, failure

		ActionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "console_actions_total",
			Help: "Total number of operator mutations.",
		}, []string{"action", "outcome"}),

		PollTicks: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "console_poll_ticks_total",
			Help: "Total number of scheduler ticks fired.",
		}),

		CircuitBreakerState: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "console_backend_circuit_breaker_state",
			Help: "Current state of the backend circuit breaker (0=closed, 1=open).",
		}),

		AuditBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "console_audit_buffer_utilization",
			Help: "Current number of events in audit buffer.",
		}),
	}
}
