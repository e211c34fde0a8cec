package backoff_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexrelay-systems/dexrelay/internal/backoff"
)

func TestExponentialSequence(t *testing.T) {
	b := backoff.New(backoff.Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		MaxAttempts:  3,
	})

	d, ok := b.NextDelay()
	require.True(t, ok)
	assert.Equal(t, 100*time.Millisecond, d)
	assert.Equal(t, 1, b.Attempt())

	d, ok = b.NextDelay()
	require.True(t, ok)
	assert.Equal(t, 200*time.Millisecond, d)

	d, ok = b.NextDelay()
	require.True(t, ok)
	assert.Equal(t, 400*time.Millisecond, d)
	assert.True(t, b.Exhausted())

	// A fourth call signals exhaustion, not a delay.
	_, ok = b.NextDelay()
	assert.False(t, ok)
}

func TestMaxDelayCap(t *testing.T) {
	b := backoff.New(backoff.Config{
		InitialDelay: time.Second,
		MaxDelay:     2 * time.Second,
		Multiplier:   3.0,
		MaxAttempts:  5,
	})

	want := []time.Duration{time.Second, 2 * time.Second, 2 * time.Second}
	for _, w := range want {
		d, ok := b.NextDelay()
		require.True(t, ok)
		assert.Equal(t, w, d)
	}
}

func TestReset(t *testing.T) {
	b := backoff.New(backoff.DefaultConfig())

	_, ok := b.NextDelay()
	require.True(t, ok)
	assert.Equal(t, 1, b.Attempt())

	b.Reset()
	assert.Equal(t, 0, b.Attempt())
	assert.False(t, b.Exhausted())

	d, ok := b.NextDelay()
	require.True(t, ok)
	assert.Equal(t, backoff.DefaultConfig().InitialDelay, d)
}
