package session

import (
	"context"
	"strings"
	"time"
)

// FirstText tries each locator in order and returns the first non-empty text.
func FirstText(ctx context.Context, s Session, locs []Locator) (string, bool) {
	for _, loc := range locs {
		if loc.IsZero() {
			continue
		}
		if text, ok := s.Text(ctx, loc); ok && strings.TrimSpace(text) != "" {
			return text, true
		}
	}
	return "", false
}

// FirstPresent waits up to timeout for each locator in turn and returns the
// first that appears. Each strategy gets its own timeout.
func FirstPresent(ctx context.Context, s Session, locs []Locator, timeout time.Duration) (Locator, bool) {
	for _, loc := range locs {
		if loc.IsZero() {
			continue
		}
		if s.WaitFor(ctx, loc, timeout) {
			return loc, true
		}
		if ctx.Err() != nil {
			break
		}
	}
	return Locator{}, false
}

// FirstExisting returns the first locator currently present, without waiting.
func FirstExisting(ctx context.Context, s Session, locs []Locator) (Locator, bool) {
	for _, loc := range locs {
		if !loc.IsZero() && s.Exists(ctx, loc) {
			return loc, true
		}
	}
	return Locator{}, false
}
