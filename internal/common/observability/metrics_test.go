package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopObservability(t *testing.T) {
	o := NewNoop()

	ctx, span := o.StartSpan(context.Background(), "build-business-insights", attribute.Int("rows", 3))
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "build-business-insights", "completed")
		o.RecordJobDuration(ctx, "build-business-insights", 15*time.Millisecond, "completed")
		o.Shutdown()
	})
}

func TestNilObservability(t *testing.T) {
	var o *Observability

	assert.NotPanics(t, func() {
		_, span := o.StartSpan(context.Background(), "export-insights-csv")
		span.End()
		o.RecordJobProcessed(context.Background(), "export-insights-csv", "failed")
		o.Shutdown()
	})
}

func TestNew_WithoutTracing(t *testing.T) {
	o, err := New("rms-insight-workers-test", TracingOptions{})
	assert.NoError(t, err)
	defer o.Shutdown()

	_, span := o.StartSpan(context.Background(), "load-insight-inputs")
	span.End()
	o.RecordJobProcessed(context.Background(), "load-insight-inputs", "completed")
}
