package link

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// reopenBackoff paces transport reopen attempts for one Supervisor. It is
// only touched by the Supervisor's Run goroutine.
type reopenBackoff struct {
	cfg     BackoffConfig
	rng     *rand.Rand
	attempt int
}

func newReopenBackoff(cfg BackoffConfig, rng *rand.Rand) *reopenBackoff {
	return &reopenBackoff{cfg: cfg, rng: rng}
}

// Next records one failed open or dropped session and returns the wait
// before the next open.
func (b *reopenBackoff) Next() time.Duration {
	b.attempt++
	return b.delay(b.attempt)
}

// Reset is called once a transport opens.
func (b *reopenBackoff) Reset() {
	b.attempt = 0
}

// Attempt is the number of failures since the last Reset.
func (b *reopenBackoff) Attempt() int {
	return b.attempt
}

// delay grows InitialDelay by Multiplier per consecutive failure, capped at
// MaxDelay. Jitter scales the result into [0.5, 1.5) of itself.
func (b *reopenBackoff) delay(failures int) time.Duration {
	if b.cfg.InitialDelay <= 0 {
		return 0
	}
	grown := float64(b.cfg.InitialDelay)
	if failures > 1 {
		grown *= math.Pow(math.Max(b.cfg.Multiplier, 1), float64(failures-1))
	}
	if ceiling := float64(b.cfg.MaxDelay); ceiling > 0 && grown > ceiling {
		grown = ceiling
	}
	if b.cfg.Jitter && b.rng != nil {
		grown *= 0.5 + b.rng.Float64()
	}
	return time.Duration(grown)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
