package pacing

import (
	"context"
	"testing"
	"time"
)

func TestHourlyLimiter(t *testing.T) {
	l := NewHourlyLimiter(3600)

	if !l.Allow() {
		t.Error("Expected first follow to be allowed")
	}
	if l.Allow() {
		t.Error("Expected second immediate follow to be denied")
	}

	l.Reset()
	if !l.Allow() {
		t.Error("Expected follow to be allowed after reset")
	}
}

func TestHourlyLimiterWaitHonorsContext(t *testing.T) {
	l := NewHourlyLimiter(1)
	if !l.Allow() {
		t.Fatal("Expected first follow to be allowed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("Expected Wait to fail when the next token is an hour away")
	}
}

func TestUnlimited(t *testing.T) {
	l := NewHourlyLimiter(0)
	if _, ok := l.(Unlimited); !ok {
		t.Fatalf("Expected Unlimited for zero budget, got %T", l)
	}

	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatal("Unlimited should always allow")
		}
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("Expected canceled context error")
	}
}
