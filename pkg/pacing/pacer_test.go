package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfollow/pkg/config"
)

type recorder struct {
	slept []time.Duration
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return ctx.Err()
}

func TestBetweenStaysInRange(t *testing.T) {
	p := NewWithSleeper(config.PacingConfig{}, ContextSleep, 42)
	r := config.Range{Min: 3 * time.Second, Max: 6 * time.Second}

	for i := 0; i < 1000; i++ {
		d := p.Between(r)
		assert.GreaterOrEqual(t, d, r.Min)
		assert.LessOrEqual(t, d, r.Max)
	}

	fixed := config.Range{Min: time.Second, Max: time.Second}
	assert.Equal(t, time.Second, p.Between(fixed))
}

func TestPacerUsesConfiguredRanges(t *testing.T) {
	cfg := config.DefaultConfig().Pacing
	rec := &recorder{}
	p := NewWithSleeper(cfg, rec.sleep, 7)
	ctx := context.Background()

	require.NoError(t, p.Candidate(ctx))
	require.NoError(t, p.Subject(ctx))
	require.NoError(t, p.Scroll(ctx))
	require.NoError(t, p.AfterFollow(ctx))

	require.Len(t, rec.slept, 4)
	assert.True(t, rec.slept[0] >= 3*time.Second && rec.slept[0] <= 6*time.Second)
	assert.True(t, rec.slept[1] >= 6*time.Second && rec.slept[1] <= 12*time.Second)
	assert.True(t, rec.slept[2] >= 1200*time.Millisecond && rec.slept[2] <= 1700*time.Millisecond)
	assert.True(t, rec.slept[3] >= 1500*time.Millisecond && rec.slept[3] <= 2500*time.Millisecond)
}

func TestContextSleep(t *testing.T) {
	assert.NoError(t, ContextSleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, ContextSleep(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNoDelay(t *testing.T) {
	p := NoDelay()
	start := time.Now()
	require.NoError(t, p.Subject(context.Background()))
	require.NoError(t, p.Sleep(context.Background(), time.Hour))
	assert.Less(t, time.Since(start), time.Second)
}
