package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"igfollow/pkg/config"
)

// Sleeper waits for d or until ctx ends
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the real Sleeper
func ContextSleep(ctx context.Context, d time.Duration) error {
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

// Pacer inserts randomized human-like delays between browser actions.
type Pacer struct {
	cfg   config.PacingConfig
	sleep Sleeper
	mu    sync.Mutex
	rng   *rand.Rand
}

// New creates a Pacer that really sleeps
func New(cfg config.PacingConfig) *Pacer {
	return NewWithSleeper(cfg, ContextSleep, time.Now().UnixNano())
}

// NewWithSleeper creates a Pacer with an injected Sleeper and seed
func NewWithSleeper(cfg config.PacingConfig, sleep Sleeper, seed int64) *Pacer {
	return &Pacer{
		cfg:   cfg,
		sleep: sleep,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// NoDelay returns a Pacer that never waits, for tests and dry runs
func NoDelay() *Pacer {
	return NewWithSleeper(config.PacingConfig{}, func(ctx context.Context, _ time.Duration) error {
		return ctx.Err()
	}, 1)
}

// Between returns a uniformly random duration in [r.Min, r.Max]
func (p *Pacer) Between(r config.Range) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.Min + time.Duration(p.rng.Int63n(int64(r.Max-r.Min)+1))
}

func (p *Pacer) wait(ctx context.Context, r config.Range) error {
	return p.sleep(ctx, p.Between(r))
}

// Action waits the default inter-action delay
func (p *Pacer) Action(ctx context.Context) error { return p.wait(ctx, p.cfg.Action) }

// Input waits between keystroke bursts on the login form
func (p *Pacer) Input(ctx context.Context) error { return p.wait(ctx, p.cfg.Input) }

// AfterFollow waits after a follow click
func (p *Pacer) AfterFollow(ctx context.Context) error { return p.wait(ctx, p.cfg.AfterFollow) }

// Candidate waits between two candidate evaluations
func (p *Pacer) Candidate(ctx context.Context) error { return p.wait(ctx, p.cfg.Candidate) }

// Subject waits between two subjects
func (p *Pacer) Subject(ctx context.Context) error { return p.wait(ctx, p.cfg.Subject) }

// Scroll waits for lazily loaded follower items to render
func (p *Pacer) Scroll(ctx context.Context) error {
	return p.wait(ctx, config.Range{Min: p.cfg.ScrollSettle, Max: p.cfg.ScrollSettle + p.cfg.ScrollJitter})
}

// Sleep waits exactly d
func (p *Pacer) Sleep(ctx context.Context, d time.Duration) error {
	return p.sleep(ctx, d)
}
