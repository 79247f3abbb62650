package retry

import (
	"math/rand"
	"time"
)

// Sleeper blocks for the given duration. The default is time.Sleep;
// tests inject a recording sleeper so no test really waits.
type Sleeper func(d time.Duration)

// BackoffConfig configures a bounded, delaying retry policy.
type BackoffConfig struct {
	// MaxAttempts bounds the total attempt count. Values below 1 are
	// treated as 1 (a single attempt, no retries).
	MaxAttempts int

	// Initial is the delay before the first retry. Zero means no delay.
	Initial time.Duration

	// Multiplier scales the delay after each failure. Values below 1
	// are treated as 1 (constant delay).
	Multiplier float64

	// Max caps the computed delay. Zero means uncapped.
	Max time.Duration

	// Jitter adds a random offset of up to ±Jitter*delay. Zero means
	// deterministic delays. Values are clamped to [0, 1].
	Jitter float64

	// Sleep overrides how the policy blocks. Nil means time.Sleep.
	Sleep Sleeper
}

// Backoff returns a policy that retries up to cfg.MaxAttempts total
// attempts, sleeping between attempts per the configured schedule.
//
// The delay before retry n (n starting at 1) is
// Initial * Multiplier^(n-1), capped at Max, with optional jitter.
func Backoff(cfg BackoffConfig) Policy {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	return func(attempt int) bool {
		if attempt >= maxAttempts {
			return false
		}
		if d := delayFor(cfg, attempt); d > 0 {
			sleep(d)
		}
		return true
	}
}

// delayFor computes the pre-retry delay for the given failed-attempt
// count, before jitter clamping to non-negative.
func delayFor(cfg BackoffConfig, attempt int) time.Duration {
	if cfg.Initial <= 0 {
		return 0
	}

	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	d := float64(cfg.Initial)
	for i := 1; i < attempt; i++ {
		d *= multiplier
		if cfg.Max > 0 && d >= float64(cfg.Max) {
			d = float64(cfg.Max)
			break
		}
	}
	if cfg.Max > 0 && d > float64(cfg.Max) {
		d = float64(cfg.Max)
	}

	jitter := cfg.Jitter
	if jitter > 0 {
		if jitter > 1 {
			jitter = 1
		}
		d += d * jitter * (2*rand.Float64() - 1)
		if d < 0 {
			d = 0
		}
	}

	return time.Duration(d)
}
