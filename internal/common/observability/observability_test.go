package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpan_NoProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "match-pass", attribute.String("opportunityId", "opp-1"))
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
	assert.NotPanics(t, func() { EndSpan(span, errors.New("boom")) })
}

func TestObservability_RecordAndShutdown(t *testing.T) {
	o := New("rfq-workers-test")
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(context.Background(), "process-opportunity", "completed")
		o.RecordJobDuration(context.Background(), "process-opportunity", 120*time.Millisecond, "completed")
		o.Shutdown()
	})
}

func TestObservability_NilSafe(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(context.Background(), "x", "failed")
		o.RecordJobDuration(context.Background(), "x", time.Second, "failed")
		o.Shutdown()
	})
}
