package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus метрики оркестратора.
//
// Экспортируются на /metrics endpoint сервиса pipelined.
var (
	// ExecutionsTotal — количество запусков конвейеров по итоговому статусу.
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipelined_executions_total",
		Help: "Total pipeline executions by terminal status",
	}, []string{"status"})

	// ActivePipelines — количество выполняющихся сейчас запусков
	// (включая стоящие на паузе).
	ActivePipelines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pipelined_active_pipelines",
		Help: "Number of pipeline executions currently in flight",
	})

	// StepAttemptsTotal — общее количество попыток выполнения шагов.
	StepAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipelined_step_attempts_total",
		Help: "Total step execution attempts (including retries)",
	})

	// StepRetriesTotal — количество retry (попытки после первой неудачи).
	StepRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipelined_step_retries_total",
		Help: "Total step retries after a failed attempt",
	})

	// StepDuration — длительность выполнения шагов.
	StepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipelined_step_duration_seconds",
		Help:    "Step execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// RecoveriesTotal — вызовы диспетчера восстановления по виду и исходу.
	RecoveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipelined_recoveries_total",
		Help: "Recovery dispatcher invocations by kind and outcome",
	}, []string{"kind", "outcome"})
)
