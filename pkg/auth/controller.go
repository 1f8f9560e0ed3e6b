package auth

import (
	"context"
	"fmt"
	"time"

	"igfollow/pkg/config"
	"igfollow/pkg/errors"
	"igfollow/pkg/instagram"
	"igfollow/pkg/logger"
	"igfollow/pkg/pacing"
	"igfollow/pkg/session"
)

// State is a position in the login state machine
type State int

const (
	StateUnauthenticated State = iota
	StateSubmitted
	StateAuthenticated
	StateChallenged
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateSubmitted:
		return "SUBMITTED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateChallenged:
		return "CHALLENGED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Notifier alerts the operator out of band
type Notifier interface {
	SendNotification(title, message string)
}

// Controller drives a session through login, including the manual
// intervention path when Instagram shows a challenge.
type Controller struct {
	cfg       config.AuthConfig
	selectors instagram.Selectors
	signal    Signal
	pacer     *pacing.Pacer
	notifier  Notifier
	logger    logger.Logger
	now       func() time.Time

	// OnChallenge runs once when the controller enters CHALLENGED
	OnChallenge func(username string)
}

// NewController creates a login controller
func NewController(cfg config.AuthConfig, selectors instagram.Selectors, signal Signal, pacer *pacing.Pacer) *Controller {
	return &Controller{
		cfg:       cfg,
		selectors: selectors,
		signal:    signal,
		pacer:     pacer,
		logger:    logger.GetLogger().WithField("component", "auth"),
		now:       time.Now,
	}
}

// SetNotifier sets the desktop notifier used on challenge
func (c *Controller) SetNotifier(n Notifier) {
	c.notifier = n
}

// SetLogger replaces the controller's logger
func (c *Controller) SetLogger(l logger.Logger) {
	c.logger = l
}

// Authenticate logs s in as username. It returns the terminal state, which
// is AUTHENTICATED on success and FAILED otherwise, with a typed auth error.
func (c *Controller) Authenticate(ctx context.Context, s session.Session, username, password string) (State, error) {
	log := c.logger.WithField("username", username)
	state := StateUnauthenticated
	log.DebugWithFields("Login state", map[string]interface{}{"state": state.String()})

	// A sentinel left over from an earlier challenge must not satisfy this one
	if c.signal.Present() {
		if err := c.signal.Consume(); err != nil {
			log.WithError(err).Warn("Failed to remove stale sentinel")
		}
	}

	if err := c.submit(ctx, s, username, password); err != nil {
		if ctx.Err() != nil {
			return c.fail(log, errors.Wrap(errors.ErrorTypeAuth, "login interrupted", ctx.Err()))
		}
		// Submission problems are indistinguishable from a challenge page
		log.WithError(err).Debug("Login submission incomplete")
	}

	state = StateSubmitted
	log.DebugWithFields("Login state", map[string]interface{}{"state": state.String()})

	if s.WaitFor(ctx, c.selectors.LoggedInMarker, c.cfg.MarkerTimeout) {
		log.Info("Logged in")
		return StateAuthenticated, nil
	}
	if ctx.Err() != nil {
		return c.fail(log, errors.Wrap(errors.ErrorTypeAuth, "login interrupted", ctx.Err()))
	}

	return c.challenge(ctx, s, username, log)
}

// submit fills in and sends the login form once. It never retries.
func (c *Controller) submit(ctx context.Context, s session.Session, username, password string) error {
	if err := s.Navigate(ctx, instagram.LoginURL()); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "open login page", err)
	}
	if !s.WaitFor(ctx, c.selectors.LoginUsername, c.cfg.FormTimeout) {
		return errors.New(errors.ErrorTypeAuth, "login form did not appear")
	}
	if err := c.pacer.Input(ctx); err != nil {
		return err
	}
	if !s.Type(ctx, c.selectors.LoginUsername, username) {
		return errors.New(errors.ErrorTypeAuth, "username field not writable")
	}
	if !s.Type(ctx, c.selectors.LoginPassword, password) {
		return errors.New(errors.ErrorTypeAuth, "password field not writable")
	}
	if err := c.pacer.Input(ctx); err != nil {
		return err
	}
	if !s.Submit(ctx, c.selectors.LoginPassword) {
		return errors.New(errors.ErrorTypeAuth, "login form could not be submitted")
	}
	return c.pacer.Action(ctx)
}

// challenge waits for the operator to clear a checkpoint by hand and
// signal it through the sentinel, then verifies the session.
func (c *Controller) challenge(ctx context.Context, s session.Session, username string, log logger.Logger) (State, error) {
	log.WarnWithFields("Login requires manual intervention", map[string]interface{}{
		"state":    StateChallenged.String(),
		"sentinel": c.signal.String(),
		"wait":     c.cfg.ChallengeWait,
	})
	if c.OnChallenge != nil {
		c.OnChallenge(username)
	}
	if c.notifier != nil {
		c.notifier.SendNotification("igfollow: login challenge",
			fmt.Sprintf("Resolve the challenge for %s in the browser, then create %s", username, c.signal.String()))
	}

	deadline := c.now().Add(c.cfg.ChallengeWait)
	for {
		if c.signal.Present() {
			if c.verify(ctx, s, username) {
				if err := c.signal.Consume(); err != nil {
					log.WithError(err).Warn("Failed to remove sentinel")
				}
				log.Info("Logged in after manual intervention")
				return StateAuthenticated, nil
			}
			log.Info("Still not verified, waiting")
		}
		if ctx.Err() != nil {
			return c.fail(log, errors.Wrap(errors.ErrorTypeAuth, "challenge wait interrupted", ctx.Err()))
		}
		if !c.now().Before(deadline) {
			return c.fail(log, errors.New(errors.ErrorTypeAuth,
				fmt.Sprintf("manual intervention not confirmed within %s", c.cfg.ChallengeWait)))
		}
		if err := c.pacer.Sleep(ctx, c.cfg.PollInterval); err != nil {
			return c.fail(log, errors.Wrap(errors.ErrorTypeAuth, "challenge wait interrupted", err))
		}
	}
}

// verify checks that the session reaches the account's own profile
func (c *Controller) verify(ctx context.Context, s session.Session, username string) bool {
	if err := s.Navigate(ctx, instagram.GetUserProfileURL(username)); err != nil {
		return false
	}
	return s.WaitFor(ctx, c.selectors.ProfileHeader, c.cfg.VerifyTimeout)
}

func (c *Controller) fail(log logger.Logger, err error) (State, error) {
	log.WithError(err).WarnWithFields("Login failed", map[string]interface{}{"state": StateFailed.String()})
	return StateFailed, err
}

// Logout ends the web session. Failures are logged and otherwise ignored.
func (c *Controller) Logout(ctx context.Context, s session.Session) {
	if !c.cfg.Logout {
		return
	}
	if err := s.Navigate(ctx, instagram.LogoutURL()); err != nil {
		c.logger.WithError(err).Debug("Logout failed")
	}
}
