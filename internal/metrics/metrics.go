// Package metrics holds the Prometheus collectors shared by the planner
// compile loop and the factory execution engine, registered once against
// the default registry via promauto so both cmd/harness subcommands and
// their tests can record against the same global instruments without
// threading a registry handle through every call site.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CompileAttemptsTotal counts planner compile-loop attempts, labeled by
	// terminal outcome ("success", "hard_errors", "transport_error").
	CompileAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compile_attempts_total",
		Help: "Planner compile-loop attempts by outcome.",
	}, []string{"outcome"})

	// CompileDurationSeconds observes the wall-clock duration of a full
	// compile run (all attempts).
	CompileDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "compile_duration_seconds",
		Help:    "Wall-clock duration of a planner compile run.",
		Buckets: prometheus.DefBuckets,
	})

	// CompileHardErrorsTotal counts structural/chain validation errors
	// emitted during compile, labeled by error code (E000, E101, ...).
	CompileHardErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compile_hard_errors_total",
		Help: "Planner validation hard errors by code.",
	}, []string{"code"})

	// FactoryAttemptsTotal counts factory execution attempts, labeled by
	// which node produced the terminal outcome and that outcome's class.
	FactoryAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factory_attempts_total",
		Help: "Factory execution attempts by stage and outcome.",
	}, []string{"stage", "outcome"})

	// FactoryVerdictTotal counts completed factory runs by final verdict.
	FactoryVerdictTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factory_verdict_total",
		Help: "Completed factory runs by verdict (PASS, FAIL, ERROR).",
	}, []string{"verdict"})
)
