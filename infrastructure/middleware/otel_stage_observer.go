package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-champion/internal/domain"
	"github.com/ahrav/go-champion/internal/ports"
)

var _ StageObserver = (*OTelStageObserver)(nil)

// OTelStageObserver traces each pipeline stage as a span and records its
// latency with the metrics collector.
type OTelStageObserver struct {
	metrics    ports.MetricsCollector
	tracerName string
}

// NewOTelStageObserver creates a stage observer. metrics may be nil.
func NewOTelStageObserver(metrics ports.MetricsCollector, tracerName string) *OTelStageObserver {
	if tracerName == "" {
		tracerName = "champion/pipeline"
	}
	return &OTelStageObserver{metrics: metrics, tracerName: tracerName}
}

// PreExecute implements StageObserver. It starts the stage span.
func (o *OTelStageObserver) PreExecute(ctx context.Context, stage string, state domain.State) context.Context {
	attrs := []attribute.KeyValue{attribute.String("stage.name", stage)}
	if id, ok := domain.Get(state, domain.KeyExecutionID); ok {
		attrs = append(attrs, attribute.String("assessment.execution_id", id))
	}
	if uri, ok := domain.Get(state, domain.KeyCalculationURI); ok {
		attrs = append(attrs, attribute.String("algorithm.calculation_uri", uri))
	}

	ctx, _ = otel.Tracer(o.tracerName).Start(ctx, "stage."+stage, trace.WithAttributes(attrs...))
	return ctx
}

// PostExecute implements StageObserver. It annotates and ends the span
// started by PreExecute.
func (o *OTelStageObserver) PostExecute(
	ctx context.Context,
	stage string,
	state domain.State,
	elapsed time.Duration,
	err error,
) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	status := StageStatus(err)
	if o.metrics != nil {
		o.metrics.RecordLatency(ports.MetricStageDuration, elapsed, map[string]string{
			"stage":  stage,
			"status": status,
		})
	}

	if def, ok := domain.Get(state, domain.KeyAlgorithm); ok && def != nil {
		span.SetAttributes(
			attribute.String("algorithm.id", def.AlgorithmID),
			attribute.Int("algorithm.tests", len(def.Tests)),
			attribute.Int("algorithm.conditions", len(def.Conditions)),
		)
	}
	if diags, ok := domain.Get(state, domain.KeyDiagnostics); ok && len(diags) > 0 {
		span.AddEvent("stage.diagnostics", trace.WithAttributes(
			attribute.Int("count", len(diags)),
		))
	}
	span.SetAttributes(attribute.String("stage.status", status))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
