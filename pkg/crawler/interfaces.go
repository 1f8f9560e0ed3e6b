package crawler

import (
	"context"
	"time"

	"igfollow/pkg/auth"
	"igfollow/pkg/models"
	"igfollow/pkg/session"
)

// Authenticator logs a session in and out
type Authenticator interface {
	Authenticate(ctx context.Context, s session.Session, username, password string) (auth.State, error)
	Logout(ctx context.Context, s session.Session)
}

// Discoverer samples a handle's followers
type Discoverer interface {
	Discover(ctx context.Context, s session.Session, handle string, sampleSize int) ([]string, error)
}

// Evaluator decides on one candidate
type Evaluator interface {
	Evaluate(ctx context.Context, s session.Session, c *models.Candidate, tokens []string) (models.Decision, error)
}

// Ledger is the durable processed set
type Ledger interface {
	HasProcessed(ref string) bool
	Record(subject, ref, tokens string, d models.Decision) error
}

// FollowCounter counts follows recorded since a point in time
type FollowCounter interface {
	FollowedSince(t time.Time) int
}

// Reporter receives progress events for display. Calls are made from the
// crawl goroutine and must not block.
type Reporter interface {
	SubjectStarted(subject models.Subject, index, total int)
	HandleStarted(subject, handle string, candidates int)
	Decided(subject string, c models.Candidate, d models.Decision, quota models.Quota)
	SubjectFinished(result SubjectResult)
	Challenge(subject, username string)
}

// NopReporter ignores every event
type NopReporter struct{}

func (NopReporter) SubjectStarted(models.Subject, int, int)                         {}
func (NopReporter) HandleStarted(string, string, int)                               {}
func (NopReporter) Decided(string, models.Candidate, models.Decision, models.Quota) {}
func (NopReporter) SubjectFinished(SubjectResult)                                   {}
func (NopReporter) Challenge(string, string)                                        {}
