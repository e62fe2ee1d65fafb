package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "import_worker"

var (
	// CommandsTotal — обработанные сообщения по команде и исходу (ack/reject/requeue).
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Import commands handled, by command and outcome.",
	}, []string{"command", "outcome"})

	// PhaseRunsTotal — завершённые прогоны фаз.
	PhaseRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "phase_runs_total",
		Help:      "Finished phase runs, by phase, status and stop reason.",
	}, []string{"phase", "status", "reason"})

	// RowsInvokedTotal — строки, отправленные во внешний сервис.
	RowsInvokedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_invoked_total",
		Help:      "Rows sent to the phase service, by phase and outcome.",
	}, []string{"phase", "outcome"})

	// PhaseCallDuration — длительность вызова внешнего сервиса.
	PhaseCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "phase_call_duration_seconds",
		Help:      "Latency of phase service calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase"})

	// BatchDuration — длительность одного batch целиком.
	BatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Time to invoke and persist one batch of rows.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"phase"})

	// StoreErrorsTotal — ошибки БД, превращённые gateway в sentinel-результат.
	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Store operations that failed and were degraded, by operation.",
	}, []string{"op"})
)
