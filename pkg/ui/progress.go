package ui

import (
	"fmt"
	"strings"
	"time"

	"igfollow/pkg/models"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// QuotaTracker keeps track of follows against the daily cap
type QuotaTracker struct {
	Followed  int
	DailyCap  int
	Evaluated int
	// seeded is what the ledger already held when the run started
	seeded    int
	StartTime time.Time
}

// NewQuotaTracker creates a tracker starting from q
func NewQuotaTracker(q models.Quota) *QuotaTracker {
	return &QuotaTracker{
		Followed:  q.TotalFollowed,
		DailyCap:  q.DailyCap,
		seeded:    q.TotalFollowed,
		StartTime: time.Now(),
	}
}

// Update copies the orchestrator's counters
func (qt *QuotaTracker) Update(q models.Quota) {
	qt.Followed = q.TotalFollowed
	qt.DailyCap = q.DailyCap
}

// IncrementEvaluated counts one decided candidate
func (qt *QuotaTracker) IncrementEvaluated() {
	qt.Evaluated++
}

// GetQuotaProgress returns a formatted progress bar for the daily cap
func (qt *QuotaTracker) GetQuotaProgress() string {
	const width = 20
	filled := width
	if qt.DailyCap > 0 {
		filled = int(float64(qt.Followed) / float64(qt.DailyCap) * width)
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, qt.Followed, qt.DailyCap)
}

// GetElapsedTime returns the elapsed time since tracking started
func (qt *QuotaTracker) GetElapsedTime() time.Duration {
	return time.Since(qt.StartTime)
}

// FollowedThisRun returns follows made since the tracker was created
func (qt *QuotaTracker) FollowedThisRun() int {
	return qt.Followed - qt.seeded
}

// GetFollowRate returns this run's follows per hour
func (qt *QuotaTracker) GetFollowRate() float64 {
	elapsed := qt.GetElapsedTime().Hours()
	if elapsed == 0 {
		return 0
	}
	return float64(qt.FollowedThisRun()) / elapsed
}

// IsCapReached checks if the daily cap is spent
func (qt *QuotaTracker) IsCapReached() bool {
	return qt.Followed >= qt.DailyCap
}
