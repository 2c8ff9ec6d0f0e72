package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastConfig() Config {
	return Config{
		MaxRetries:  3,
		InitialWait: time.Millisecond,
		MaxWait:     2 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 4, calls)
}

func TestDo_StopsOnNonRetryableError(t *testing.T) {
	permanent := errors.New("permanent")
	cfg := fastConfig()
	cfg.Retryable = func(err error) bool { return errors.Is(err, errTransient) }

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_HonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fastConfig()
	cfg.InitialWait = time.Hour
	cfg.MaxWait = time.Hour

	err := Do(ctx, cfg, func() error { return errTransient })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoff_CapsAtMaxWait(t *testing.T) {
	cfg := Config{InitialWait: time.Millisecond, MaxWait: 10 * time.Millisecond, Multiplier: 2.0}

	for attempt := 0; attempt < 10; attempt++ {
		d := calculateBackoff(attempt, cfg)
		assert.GreaterOrEqual(t, d, cfg.InitialWait)
		assert.LessOrEqual(t, d, cfg.MaxWait+cfg.MaxWait/4)
	}
}

func TestDo_NegativeMaxRetriesKeepsTrying(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = -1

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		if calls < 20 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 20, calls)
}

func TestDo_NegativeMaxRetriesStopsWhenContextIsDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cfg := fastConfig()
	cfg.MaxRetries = -1

	start := time.Now()
	err := Do(ctx, cfg, func() error { return errTransient })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
