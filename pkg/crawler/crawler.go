package crawler

import (
	"context"
	"math"
	"time"

	"igfollow/pkg/auth"
	"igfollow/pkg/config"
	"igfollow/pkg/discovery"
	"igfollow/pkg/errors"
	"igfollow/pkg/evaluator"
	"igfollow/pkg/instagram"
	"igfollow/pkg/ledger"
	"igfollow/pkg/logger"
	"igfollow/pkg/models"
	"igfollow/pkg/pacing"
	"igfollow/pkg/session"
)

const teardownTimeout = 30 * time.Second

// Outcome explains why a subject or a run stopped
type Outcome string

const (
	OutcomeDone          Outcome = "done"
	OutcomeSubjectCap    Outcome = "subject_cap"
	OutcomeDailyCap      Outcome = "daily_cap"
	OutcomeSessionFailed Outcome = "session_failed"
	OutcomeAuthFailed    Outcome = "auth_failed"
	OutcomeSessionBroken Outcome = "session_broken"
	OutcomeCanceled      Outcome = "canceled"
	OutcomeLedgerFailed  Outcome = "ledger_failed"
)

// SubjectResult summarises one subject
type SubjectResult struct {
	Subject        string
	Outcome        Outcome
	Err            error
	Handles        int
	SkippedHandles int
	Discovered     int
	AlreadyDone    int
	Evaluated      int
	Matched        int
	Followed       int
	LoadFailures   int
	Duration       time.Duration
}

// Summary is the result of a whole run
type Summary struct {
	Subjects []SubjectResult
	Followed int
	Outcome  Outcome
}

// Crawler orchestrates sessions, discovery and evaluation for every subject
type Crawler struct {
	sessions  session.Factory
	auth      Authenticator
	discovery Discoverer
	evaluator Evaluator
	ledger    Ledger
	pacer     *pacing.Pacer
	reporter  Reporter
	cfg       config.QuotaConfig
	dryRun    bool
	logger    logger.Logger

	// current is the subject being crawled, for challenge reports
	current string
}

// New builds a Crawler and its collaborators from cfg
func New(cfg *config.Config, sessions session.Factory, l Ledger) *Crawler {
	pacer := pacing.New(cfg.Pacing)
	selectors := cfg.Selectors.Merge(instagram.DefaultSelectors())

	controller := auth.NewController(cfg.Auth, selectors, auth.NewFileSignal(cfg.Auth.SentinelPath), pacer)
	ev := evaluator.New(cfg.Evaluation, selectors, pacer)
	ev.BeforeFollow = pacing.NewHourlyLimiter(cfg.Quota.FollowsPerHour).Wait

	c := &Crawler{
		sessions:  sessions,
		auth:      controller,
		discovery: discovery.New(cfg.Discovery, selectors, pacer),
		evaluator: ev,
		ledger:    l,
		pacer:     pacer,
		reporter:  NopReporter{},
		cfg:       cfg.Quota,
		dryRun:    cfg.Evaluation.DryRun,
		logger:    logger.GetLogger().WithField("component", "crawler"),
	}
	controller.OnChallenge = func(username string) {
		c.reporter.Challenge(c.current, username)
	}
	return c
}

// NewWithComponents creates a Crawler from explicit collaborators
func NewWithComponents(cfg config.QuotaConfig, dryRun bool, sessions session.Factory, a Authenticator, d Discoverer, e Evaluator, l Ledger, pacer *pacing.Pacer) *Crawler {
	return &Crawler{
		sessions:  sessions,
		auth:      a,
		discovery: d,
		evaluator: e,
		ledger:    l,
		pacer:     pacer,
		reporter:  NopReporter{},
		cfg:       cfg,
		dryRun:    dryRun,
		logger:    logger.GetLogger().WithField("component", "crawler"),
	}
}

// SetReporter sets the progress sink
func (c *Crawler) SetReporter(r Reporter) {
	if r == nil {
		r = NopReporter{}
	}
	c.reporter = r
}

// SetLogger replaces the crawler's logger
func (c *Crawler) SetLogger(l logger.Logger) {
	c.logger = l
}

// Auth returns the login controller when the Crawler built its own
func (c *Crawler) Auth() *auth.Controller {
	ctrl, _ := c.auth.(*auth.Controller)
	return ctrl
}

// SeedQuota counts today's recorded follows against the daily cap so a
// restart cannot exceed it. It returns the number of follows found.
func SeedQuota(q *models.Quota, l FollowCounter, now time.Time) int {
	n := l.FollowedSince(ledger.StartOfDay(now))
	q.TotalFollowed += n
	return n
}

// Run processes subjects in order until all are done, the daily cap is
// spent or ctx is canceled. Cancellation is not an error. The only error
// returned is a fatal ledger failure.
func (c *Crawler) Run(ctx context.Context, subjects []models.Subject, quota *models.Quota) (*Summary, error) {
	summary := &Summary{Outcome: OutcomeDone}
	startFollowed := quota.TotalFollowed
	defer func() {
		summary.Followed = quota.TotalFollowed - startFollowed
	}()

	c.logger.InfoWithFields("Starting crawl", map[string]interface{}{
		"subjects":  len(subjects),
		"daily_cap": quota.DailyCap,
		"followed":  quota.TotalFollowed,
		"dry_run":   c.dryRun,
	})

	for i, subject := range subjects {
		if quota.Exhausted() {
			summary.Outcome = OutcomeDailyCap
			break
		}
		if i > 0 {
			if err := c.pacer.Subject(ctx); err != nil {
				summary.Outcome = OutcomeCanceled
				break
			}
		}

		c.reporter.SubjectStarted(subject, i, len(subjects))
		result, err := c.runSubject(ctx, subject, quota)
		summary.Subjects = append(summary.Subjects, result)
		c.reporter.SubjectFinished(result)
		logger.LogSubjectDone(subject.Name, result.Followed, result.Evaluated, string(result.Outcome))

		if err != nil {
			summary.Outcome = OutcomeLedgerFailed
			c.logger.WithError(err).Error("Ledger write failed, stopping run")
			return summary, err
		}
		if result.Outcome == OutcomeCanceled {
			summary.Outcome = OutcomeCanceled
			break
		}
	}

	if summary.Outcome == OutcomeDone && quota.Exhausted() {
		summary.Outcome = OutcomeDailyCap
	}
	logger.LogQuota(quota)
	c.logger.InfoWithFields("Crawl finished", map[string]interface{}{
		"outcome":  string(summary.Outcome),
		"subjects": len(summary.Subjects),
		"followed": quota.TotalFollowed - startFollowed,
	})
	return summary, nil
}

// SampleSize is how many followers to sample per handle. The product
// saturates at math.MaxInt instead of wrapping.
func SampleSize(maxFollow, oversample int) int {
	if maxFollow <= 0 || oversample <= 0 {
		return 0
	}
	if maxFollow > math.MaxInt/oversample {
		return math.MaxInt
	}
	return maxFollow * oversample
}

// runSubject owns one session from launch to teardown
func (c *Crawler) runSubject(ctx context.Context, subject models.Subject, quota *models.Quota) (result SubjectResult, err error) {
	start := time.Now()
	result = SubjectResult{Subject: subject.Name, Outcome: OutcomeDone, Handles: len(subject.Handles)}
	defer func() { result.Duration = time.Since(start) }()

	c.current = subject.Name
	log := c.logger.WithField("subject", subject.Name)
	sampleSize := SampleSize(subject.MaxFollow, c.cfg.OversampleFactor)
	logger.LogSubjectStart(subject.Name, len(subject.Handles), subject.MaxFollow, sampleSize)

	s, err := c.sessions.NewSession(ctx)
	if err != nil {
		result.Outcome, result.Err = c.interrupted(ctx, OutcomeSessionFailed), err
		log.WithError(err).Warn("Failed to start browser session, skipping subject")
		return result, nil
	}
	defer c.teardown(ctx, s, log)

	if _, err := c.auth.Authenticate(ctx, s, subject.Username, subject.Password); err != nil {
		result.Outcome, result.Err = c.interrupted(ctx, OutcomeAuthFailed), err
		log.WithError(err).Warn("Login failed, skipping subject")
		return result, nil
	}

	for _, handle := range subject.Handles {
		if quota.Exhausted() {
			result.Outcome = OutcomeDailyCap
			break
		}
		if result.Followed >= subject.MaxFollow {
			result.Outcome = OutcomeSubjectCap
			break
		}
		if ctx.Err() != nil {
			result.Outcome = OutcomeCanceled
			break
		}

		hlog := log.WithField("handle", handle)
		refs, err := c.discovery.Discover(ctx, s, handle, sampleSize)
		if err != nil {
			if ctx.Err() != nil {
				result.Outcome = OutcomeCanceled
				break
			}
			result.SkippedHandles++
			hlog.WithError(err).Warn("Skipping handle")
			continue
		}
		result.Discovered += len(refs)
		c.reporter.HandleStarted(subject.Name, handle, len(refs))

		outcome, err := c.evaluateAll(ctx, s, subject, refs, quota, &result)
		if err != nil {
			return result, err
		}
		if outcome != OutcomeDone {
			result.Outcome = outcome
			break
		}
	}

	return result, nil
}

// evaluateAll walks one handle's sample. It returns OutcomeDone when the
// sample is exhausted, and an error only when the ledger cannot be written.
func (c *Crawler) evaluateAll(ctx context.Context, s session.Session, subject models.Subject, refs []string, quota *models.Quota, result *SubjectResult) (Outcome, error) {
	seen := make(map[string]bool)
	for _, ref := range refs {
		key := ledger.Key(ref)
		if seen[key] || c.ledger.HasProcessed(ref) {
			result.AlreadyDone++
			continue
		}
		if quota.Exhausted() {
			return OutcomeDailyCap, nil
		}
		if result.Followed >= subject.MaxFollow {
			return OutcomeSubjectCap, nil
		}
		if ctx.Err() != nil {
			return OutcomeCanceled, nil
		}

		candidate := &models.Candidate{Ref: ref}
		decision, err := c.evaluator.Evaluate(ctx, s, candidate, subject.Tokens)
		if decision.Action != "" {
			seen[key] = true
			if !c.dryRun {
				if rerr := c.ledger.Record(subject.Name, ref, subject.TokenString(), decision); rerr != nil {
					result.Err = rerr
					return OutcomeLedgerFailed, rerr
				}
			}
			c.count(decision, quota, result)
			logger.LogDecision(subject.Name, ref, decision)
			c.reporter.Decided(subject.Name, *candidate, decision, *quota)
		}
		if err != nil {
			result.Err = err
			if ctx.Err() != nil {
				return OutcomeCanceled, nil
			}
			c.logger.WithError(err).WithField("subject", subject.Name).Warn("Browser session broke, abandoning subject")
			return OutcomeSessionBroken, nil
		}

		if err := c.pacer.Candidate(ctx); err != nil {
			return OutcomeCanceled, nil
		}
	}
	return OutcomeDone, nil
}

func (c *Crawler) count(d models.Decision, quota *models.Quota, result *SubjectResult) {
	result.Evaluated++
	if d.Matched {
		result.Matched++
	}
	if d.Action == models.ActionProfileLoadFail {
		result.LoadFailures++
	}
	if d.Followed() {
		quota.TotalFollowed++
		result.Followed++
	}
}

func (c *Crawler) interrupted(ctx context.Context, otherwise Outcome) Outcome {
	if ctx.Err() != nil {
		return OutcomeCanceled
	}
	return otherwise
}

// teardown logs out and closes s even when ctx is already canceled
func (c *Crawler) teardown(ctx context.Context, s session.Session, log logger.Logger) {
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	c.auth.Logout(tctx, s)
	if err := s.Close(); err != nil {
		log.WithError(errors.Wrap(errors.ErrorTypeSession, "close session", err)).Warn("Failed to close browser session")
	}
}
