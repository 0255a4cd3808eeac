package partition

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for enumeration.
var (
	tracer = otel.Tracer("collage.partition")
	meter  = otel.Meter("collage.partition")
)

// Metrics for enumeration passes.
var (
	candidatesTotal metric.Int64Counter
	filteredTotal   metric.Int64Counter
	passesTotal     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		candidatesTotal, err = meter.Int64Counter(
			"collage_partition_candidates_total",
			metric.WithDescription("Candidates produced, by rule kind"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filteredTotal, err = meter.Int64Counter(
			"collage_partition_filtered_total",
			metric.WithDescription("Candidates dropped by validity filters"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		passesTotal, err = meter.Int64Counter(
			"collage_partition_passes_total",
			metric.WithDescription("Enumeration passes, by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	if metricsErr != nil {
		slog.Warn("partition metrics unavailable", "error", metricsErr)
	}
	return metricsErr
}
