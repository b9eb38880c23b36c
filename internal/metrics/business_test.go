package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusinessMetrics(t *testing.T) {
	t.Run("Success_CreateBusinessMetrics", func(t *testing.T) {
		provider, err := NewProvider("test_app")
		require.NoError(t, err)

		businessMetrics, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")

		require.NoError(t, err)
		assert.NotNil(t, businessMetrics)
	})
}

func TestBusinessMetrics_RecordOperation(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	t.Run("Success_RecordSuccessfulOperation", func(t *testing.T) {
		// Should not panic
		bm.RecordOperation(context.Background(), "outbox", "dispatch", "success")
	})

	t.Run("Success_RecordFailedOperation", func(t *testing.T) {
		// Should not panic
		bm.RecordOperation(context.Background(), "outbox", "dispatch", "error")
	})

	t.Run("Success_RecordMultipleDomains", func(t *testing.T) {
		bm.RecordOperation(context.Background(), "command", "process_event", "success")
		bm.RecordOperation(context.Background(), "workflow", "fire_trigger", "success")
		bm.RecordOperation(context.Background(), "sync", "replay", "error")
	})
}

func TestBusinessMetrics_RecordDuration(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	t.Run("Success_RecordSuccessfulDuration", func(t *testing.T) {
		// Should not panic
		bm.RecordDuration(context.Background(), "outbox", "dispatch", 123*time.Millisecond, "success")
	})

	t.Run("Success_RecordFailedDuration", func(t *testing.T) {
		// Should not panic
		bm.RecordDuration(context.Background(), "sync", "replay", 456*time.Millisecond, "error")
	})
}

func TestBusinessMetrics_RecordOutcome(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	t.Run("Success_RecordOutcomes", func(t *testing.T) {
		bm.RecordOutcome(context.Background(), "consumed", true)
		bm.RecordOutcome(context.Background(), "preserved", false)
		bm.RecordOutcome(context.Background(), "passed", true)
	})
}

func TestBusinessMetrics_RecordRetry(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	t.Run("Success_RecordRetries", func(t *testing.T) {
		bm.RecordRetry(context.Background(), "outbox", "n8n")
		bm.RecordRetry(context.Background(), "outbox", "telegram")
	})
}

func TestNewNoOpBusinessMetrics(t *testing.T) {
	noOpMetrics := NewNoOpBusinessMetrics()

	assert.NotNil(t, noOpMetrics)
	assert.IsType(t, &NoOpBusinessMetrics{}, noOpMetrics)

	// All recorders are safe to call with metrics disabled.
	noOpMetrics.RecordOperation(context.Background(), "outbox", "dispatch", "success")
	noOpMetrics.RecordDuration(context.Background(), "outbox", "dispatch", time.Second, "success")
	noOpMetrics.RecordOutcome(context.Background(), "consumed", false)
	noOpMetrics.RecordRetry(context.Background(), "outbox", "n8n")
}
