package session

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/enginectl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}
	if got := NextBackoffDelay(cfg, 1, nil); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 2, nil); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 3, nil); got != time.Second {
		t.Fatalf("attempt3 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 6, nil); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
}

func TestNextBackoffDelayJitterRange(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultBackoff()
	rng := rand.New(rand.NewSource(7))
	got := NextBackoffDelay(cfg, 1, rng)
	if got < 125*time.Millisecond || got > 375*time.Millisecond {
		t.Fatalf("jitter out of range: %v", got)
	}
}

func TestNextBackoffDelayZeroInitial(t *testing.T) {
	testlog.Start(t)
	assert.Zero(t, NextBackoffDelay(BackoffConfig{Multiplier: 2}, 4, nil))
}

func TestReconnectPolicyRetriesUntilDialSucceeds(t *testing.T) {
	testlog.Start(t)
	dials := 0
	want := &fakeConn{}
	p := &ReconnectPolicy{
		Attempts: 3,
		Dial: func(context.Context) (Conn, error) {
			dials++
			if dials < 3 {
				return nil, errors.New("refused")
			}
			return want, nil
		},
	}
	got, err := p.redial(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 3, dials)
}

func TestReconnectPolicyGivesUp(t *testing.T) {
	testlog.Start(t)
	dialErr := errors.New("refused")
	p := &ReconnectPolicy{
		Attempts: 2,
		Dial:     func(context.Context) (Conn, error) { return nil, dialErr },
	}
	_, err := p.redial(context.Background())
	require.ErrorIs(t, err, ErrReconnectFailed)
	assert.ErrorIs(t, err, dialErr)
}

func TestReconnectPolicyHonorsContext(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &ReconnectPolicy{
		Attempts: 5,
		Backoff:  BackoffConfig{InitialDelay: time.Hour},
		Dial: func(context.Context) (Conn, error) {
			t.Fatal("dial after cancellation")
			return nil, nil
		},
	}
	_, err := p.redial(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReconnectPolicyDisabled(t *testing.T) {
	var p *ReconnectPolicy
	assert.False(t, p.enabled())
	assert.False(t, (&ReconnectPolicy{Attempts: 3}).enabled())
	assert.False(t, (&ReconnectPolicy{Dial: func(context.Context) (Conn, error) { return nil, nil }}).enabled())
}
