package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrReconnectFailed = errors.New("session: reconnect failed")

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
}

// NextBackoffDelay returns the retry delay for attempt N (1-based).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	delay := float64(cfg.InitialDelay)
	if attempt > 1 {
		if cfg.Multiplier < 1.0 {
			cfg.Multiplier = 1.0
		}
		delay *= math.Pow(cfg.Multiplier, float64(attempt-1))
	}
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}

// ReconnectPolicy re-establishes a dropped engine connection.
// A nil policy, a nil Dial or zero Attempts disables reconnecting.
type ReconnectPolicy struct {
	Attempts int
	Backoff  BackoffConfig
	Dial     func(ctx context.Context) (Conn, error)
}

func (p *ReconnectPolicy) enabled() bool {
	return p != nil && p.Dial != nil && p.Attempts > 0
}

func (p *ReconnectPolicy) redial(ctx context.Context) (Conn, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		delay := NextBackoffDelay(p.Backoff, attempt, rng)
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
		conn, err := p.Dial(ctx)
		if err == nil {
			log.Info().Int("attempt", attempt).Msg("session.reconnected")
			return conn, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("session.reconnect_failed")
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrReconnectFailed, p.Attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
