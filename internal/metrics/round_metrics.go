package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("round-metrics")

// RoundMetrics provides metrics collection for generation rounds
type RoundMetrics struct {
	roundsStartedCounter   metric.Int64Counter
	roundsCompletedCounter metric.Int64Counter
	roundsFailedCounter    metric.Int64Counter
	roundDurationHistogram metric.Float64Histogram
	roundsActiveGauge      metric.Int64UpDownCounter
}

// NewRoundMetrics creates a new generation round metrics collector
func NewRoundMetrics() (*RoundMetrics, error) {
	roundsStartedCounter, err := meter.Int64Counter(
		"drawing_orchestrator.rounds.started",
		metric.WithDescription("Total number of generation rounds started"),
		metric.WithUnit("{round}"),
	)
	if err != nil {
		return nil, err
	}

	roundsCompletedCounter, err := meter.Int64Counter(
		"drawing_orchestrator.rounds.completed",
		metric.WithDescription("Total number of generation rounds completed successfully"),
		metric.WithUnit("{round}"),
	)
	if err != nil {
		return nil, err
	}

	roundsFailedCounter, err := meter.Int64Counter(
		"drawing_orchestrator.rounds.failed",
		metric.WithDescription("Total number of generation rounds that failed"),
		metric.WithUnit("{round}"),
	)
	if err != nil {
		return nil, err
	}

	roundDurationHistogram, err := meter.Float64Histogram(
		"drawing_orchestrator.round.duration",
		metric.WithDescription("Duration of a generation round in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	roundsActiveGauge, err := meter.Int64UpDownCounter(
		"drawing_orchestrator.rounds.active",
		metric.WithDescription("Number of currently active generation rounds"),
		metric.WithUnit("{round}"),
	)
	if err != nil {
		return nil, err
	}

	return &RoundMetrics{
		roundsStartedCounter:   roundsStartedCounter,
		roundsCompletedCounter: roundsCompletedCounter,
		roundsFailedCounter:    roundsFailedCounter,
		roundDurationHistogram: roundDurationHistogram,
		roundsActiveGauge:      roundsActiveGauge,
	}, nil
}

// RecordRoundStarted records the start of a generation round
func (rm *RoundMetrics) RecordRoundStarted(ctx context.Context, drawingID, kind string) {
	rm.roundsStartedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("drawing.id", drawingID),
			attribute.String("round.kind", kind),
		),
	)
	rm.roundsActiveGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("round.kind", kind),
		),
	)
}

// RecordRoundCompleted records a successful generation round
func (rm *RoundMetrics) RecordRoundCompleted(ctx context.Context, drawingID, kind string, duration time.Duration) {
	rm.roundsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("drawing.id", drawingID),
			attribute.String("round.kind", kind),
			attribute.String("status", "completed"),
		),
	)
	rm.roundDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("round.kind", kind),
			attribute.String("status", "completed"),
		),
	)
	rm.roundsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("round.kind", kind),
		),
	)
}

// RecordRoundFailed records a failed generation round
func (rm *RoundMetrics) RecordRoundFailed(ctx context.Context, drawingID, kind, errorType string, duration time.Duration) {
	rm.roundsFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("drawing.id", drawingID),
			attribute.String("round.kind", kind),
			attribute.String("status", "failed"),
			attribute.String("error.type", errorType),
		),
	)
	rm.roundDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("round.kind", kind),
			attribute.String("status", "failed"),
		),
	)
	rm.roundsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("round.kind", kind),
		),
	)
}
