package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — Prometheus метрики calltrace.
//
// Nil *Metrics допустим: все методы становятся no-op.
type Metrics struct {
	emitted   *prometheus.CounterVec
	filtered  *prometheus.CounterVec
	persisted *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics создаёт и регистрирует метрики в reg.
// Повторный вызов с тем же reg возвращает метрики, разделяющие коллекторы.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calltrace_records_emitted_total",
			Help: "Records accepted by a dispatcher channel",
		}, []string{"channel", "level"}),
		filtered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calltrace_records_filtered_total",
			Help: "Records dropped by a channel level threshold",
		}, []string{"channel"}),
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calltrace_records_persisted_total",
			Help: "Records stored by a sink",
		}, []string{"channel", "sink"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calltrace_persist_failures_total",
			Help: "Sink persist failures",
		}, []string{"channel", "sink"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calltrace_call_duration_ms",
			Help:    "Duration of instrumented calls in milliseconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}, []string{"function", "status"}),
	}

	m.emitted = register(reg, m.emitted)
	m.filtered = register(reg, m.filtered)
	m.persisted = register(reg, m.persisted)
	m.failures = register(reg, m.failures)
	m.duration = register(reg, m.duration)
	return m
}

// register регистрирует c в reg. Если такой коллектор уже есть,
// возвращает существующий.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// RecordEmitted учитывает запись, прошедшую порог канала.
func (m *Metrics) RecordEmitted(channel, level string) {
	if m == nil {
		return
	}
	m.emitted.WithLabelValues(channel, level).Inc()
}

// RecordFiltered учитывает запись, отброшенную порогом канала.
func (m *Metrics) RecordFiltered(channel string) {
	if m == nil {
		return
	}
	m.filtered.WithLabelValues(channel).Inc()
}

// RecordPersisted учитывает успешную запись в Sink.
func (m *Metrics) RecordPersisted(channel, sink string) {
	if m == nil {
		return
	}
	m.persisted.WithLabelValues(channel, sink).Inc()
}

// RecordPersistFailure учитывает ошибку Sink.
func (m *Metrics) RecordPersistFailure(channel, sink string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(channel, sink).Inc()
}

// ObserveCall учитывает длительность инструментированного вызова.
func (m *Metrics) ObserveCall(function, status string, durationMS float64) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(function, status).Observe(durationMS)
}
