// pkg/ingest/metrics.go
package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	batchCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "statusdiario",
		Subsystem: "ingest",
		Name:      "batches_total",
		Help:      "Number of ingestion batches grouped by outcome.",
	}, []string{"outcome"})

	rowCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "statusdiario",
		Subsystem: "ingest",
		Name:      "rows_total",
		Help:      "Rows seen by each ingestion stage.",
	}, []string{"stage"})

	skippedSourceCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "statusdiario",
		Subsystem: "ingest",
		Name:      "sources_skipped_total",
		Help:      "Number of sources skipped because they could not be read or resolved.",
	})

	lastSuccessGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "statusdiario",
		Subsystem: "ingest",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful batch.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "statusdiario",
		Subsystem: "ingest",
		Name:      "batch_duration_seconds",
		Help:      "Wall time of ingestion batches.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(batchCounter, rowCounter, skippedSourceCounter, lastSuccessGauge, batchDuration)
}

// recordBatch publishes the metrics of a finished batch and logs its summary
func recordBatch(logger *zap.Logger, result *BatchResult) {
	outcome := "failed"
	if result.Success {
		outcome = "done"
		lastSuccessGauge.Set(float64(result.EndTime.Unix()))
	}
	batchCounter.WithLabelValues(outcome).Inc()
	batchDuration.Observe(result.Duration.Seconds())

	rowCounter.WithLabelValues("read").Add(float64(result.RowsRead))
	rowCounter.WithLabelValues("emitted").Add(float64(result.RowsEmitted))
	rowCounter.WithLabelValues("dropped").Add(float64(result.RowsDropped()))
	rowCounter.WithLabelValues("outside_window").Add(float64(result.RowsOutsideWindow))
	rowCounter.WithLabelValues("deduplicated").Add(float64(result.RowsDeduplicated))
	rowCounter.WithLabelValues("persisted").Add(float64(result.RowsPersisted))

	skipped := result.SkippedSources()
	skippedSourceCounter.Add(float64(len(skipped)))

	fields := []zap.Field{
		zap.String("batchID", result.BatchID),
		zap.String("state", string(result.State)),
		zap.Duration("duration", result.Duration),
		zap.Int("sources", len(result.Sources)),
		zap.Strings("skippedSources", skipped),
		zap.Int("rowsRead", result.RowsRead),
		zap.Int("rowsEmitted", result.RowsEmitted),
		zap.Int("rowsDropped", result.RowsDropped()),
		zap.Int("rowsOutsideWindow", result.RowsOutsideWindow),
		zap.Int("rowsDeduplicated", result.RowsDeduplicated),
		zap.Int64("rowsPersisted", result.RowsPersisted),
		zap.Int("cleaningOperations", result.CleaningOperations),
		zap.Int("errors", len(result.Errors)),
	}
	if result.Success {
		logger.Info("Ingestion batch completed", fields...)
	} else {
		logger.Error("Ingestion batch failed", fields...)
	}
}
