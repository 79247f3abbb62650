package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNever(t *testing.T) {
	p := Never()
	assert.False(t, p(1))
	assert.False(t, p(2))
}

func TestLimit(t *testing.T) {
	p := Limit(3)
	assert.True(t, p(1))
	assert.True(t, p(2))
	assert.False(t, p(3))
	assert.False(t, p(4))
}

func TestLimit_OneIsNever(t *testing.T) {
	p := Limit(1)
	assert.False(t, p(1))
}

func TestBackoff_AttemptBudget(t *testing.T) {
	var sleeps []time.Duration
	p := Backoff(BackoffConfig{
		MaxAttempts: 3,
		Initial:     100 * time.Millisecond,
		Sleep:       func(d time.Duration) { sleeps = append(sleeps, d) },
	})

	assert.True(t, p(1))
	assert.True(t, p(2))
	assert.False(t, p(3))
	// No sleep once the budget is exhausted.
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, sleeps)
}

func TestBackoff_ExponentialDelaysWithCap(t *testing.T) {
	var sleeps []time.Duration
	p := Backoff(BackoffConfig{
		MaxAttempts: 5,
		Initial:     100 * time.Millisecond,
		Multiplier:  2,
		Max:         300 * time.Millisecond,
		Sleep:       func(d time.Duration) { sleeps = append(sleeps, d) },
	})

	for attempt := 1; attempt <= 4; attempt++ {
		assert.True(t, p(attempt))
	}
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond, // capped
		300 * time.Millisecond,
	}, sleeps)
}

func TestBackoff_ZeroInitialNeverSleeps(t *testing.T) {
	slept := false
	p := Backoff(BackoffConfig{
		MaxAttempts: 3,
		Sleep:       func(time.Duration) { slept = true },
	})

	assert.True(t, p(1))
	assert.True(t, p(2))
	assert.False(t, slept)
}

func TestBackoff_JitterStaysWithinBounds(t *testing.T) {
	var sleeps []time.Duration
	p := Backoff(BackoffConfig{
		MaxAttempts: 100,
		Initial:     100 * time.Millisecond,
		Jitter:      0.2,
		Sleep:       func(d time.Duration) { sleeps = append(sleeps, d) },
	})

	for attempt := 1; attempt < 100; attempt++ {
		assert.True(t, p(attempt))
	}
	for _, d := range sleeps {
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
	}
}

func TestBackoff_MaxAttemptsBelowOneMeansSingleAttempt(t *testing.T) {
	p := Backoff(BackoffConfig{MaxAttempts: 0})
	assert.False(t, p(1))
}
