package pacing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for follow budgeting
type Limiter interface {
	// Allow checks if a follow is allowed under the current budget
	Allow() bool
	// Wait blocks until the budget allows another follow or ctx ends
	Wait(ctx context.Context) error
	// Reset restores the full burst
	Reset()
}

// HourlyLimiter spreads follows evenly over an hour
type HourlyLimiter struct {
	perHour int
	limiter *rate.Limiter
	mu      sync.RWMutex
}

// NewHourlyLimiter creates a limiter allowing perHour follows per hour.
// A non-positive perHour disables limiting.
func NewHourlyLimiter(perHour int) Limiter {
	if perHour <= 0 {
		return Unlimited{}
	}
	return &HourlyLimiter{
		perHour: perHour,
		limiter: rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), 1),
	}
}

// Allow checks if a follow can proceed now
func (h *HourlyLimiter) Allow() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.limiter.Allow()
}

// Wait blocks until a follow can proceed
func (h *HourlyLimiter) Wait(ctx context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.limiter.Wait(ctx)
}

// Reset restores the full burst
func (h *HourlyLimiter) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.limiter = rate.NewLimiter(rate.Every(time.Hour/time.Duration(h.perHour)), 1)
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}
