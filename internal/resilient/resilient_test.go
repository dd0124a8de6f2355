package resilient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoReturnsResultOnSuccess(t *testing.T) {
	got, err := Do(context.Background(), time.Second, "fallback", func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestDoReturnsFallbackOnError(t *testing.T) {
	wantErr := errors.New("boom")
	got, err := Do(context.Background(), time.Second, 42, func(context.Context) (int, error) {
		return 0, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 42, got)
}

func TestDoEnforcesTimeout(t *testing.T) {
	start := time.Now()
	got, err := Do(context.Background(), 10*time.Millisecond, "fallback", func(ctx context.Context) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	assert.Error(t, err)
	assert.Equal(t, "fallback", got)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDoZeroTimeoutMeansNoDeadline(t *testing.T) {
	got, err := Do(context.Background(), 0, "fallback", func(ctx context.Context) (string, error) {
		_, hasDeadline := ctx.Deadline()
		if hasDeadline {
			return "", errors.New("unexpected deadline")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}
