// Package evaluator decides, profile by profile, whether a discovered
// follower matches a subject and follows the ones that do.
package evaluator

import (
	"context"
	"strings"

	"igfollow/pkg/config"
	"igfollow/pkg/errors"
	"igfollow/pkg/instagram"
	"igfollow/pkg/logger"
	"igfollow/pkg/models"
	"igfollow/pkg/pacing"
	"igfollow/pkg/session"
)

// Match reports the first token contained in bio. Both sides are compared
// lower-cased and blank tokens never match.
func Match(bio string, tokens []string) (string, bool) {
	bio = strings.ToLower(bio)
	for _, token := range tokens {
		t := strings.ToLower(strings.TrimSpace(token))
		if t != "" && strings.Contains(bio, t) {
			return token, true
		}
	}
	return "", false
}

// Evaluator opens candidate profiles in a throwaway tab and follows matches
type Evaluator struct {
	cfg       config.EvaluationConfig
	selectors instagram.Selectors
	pacer     *pacing.Pacer
	logger    logger.Logger

	// BeforeFollow runs right before the follow click and may block. An
	// error abandons the candidate without a decision.
	BeforeFollow func(ctx context.Context) error
}

// New creates an Evaluator
func New(cfg config.EvaluationConfig, selectors instagram.Selectors, pacer *pacing.Pacer) *Evaluator {
	return &Evaluator{
		cfg:       cfg,
		selectors: selectors,
		pacer:     pacer,
		logger:    logger.GetLogger().WithField("component", "evaluator"),
	}
}

// SetLogger replaces the evaluator's logger
func (e *Evaluator) SetLogger(l logger.Logger) {
	e.logger = l
}

// Evaluate opens c in a new tab, reads its bio and relationship into c and
// follows it when the bio matches one of tokens and the account is not
// already followed or requested. The tab is always closed and the original
// tab made active again before returning.
//
// A profile that does not render yields a profile_load_fail decision, not an
// error. Errors report a broken session or a canceled context; the decision
// is still valid when its Action is set.
func (e *Evaluator) Evaluate(ctx context.Context, s session.Session, c *models.Candidate, tokens []string) (decision models.Decision, err error) {
	log := e.logger.WithField("candidate", c.Ref)

	origin := s.CurrentTab()
	tab, err := s.OpenTab(ctx)
	if err != nil {
		return models.Decision{}, errors.Wrap(errors.ErrorTypeSession, "open candidate tab", err)
	}
	defer func() {
		if rerr := e.restore(context.WithoutCancel(ctx), s, tab, origin); rerr != nil && err == nil {
			err = rerr
		}
	}()

	if !e.load(ctx, s, c.Ref) {
		if ctx.Err() != nil {
			return models.Decision{}, ctx.Err()
		}
		log.Debug("Candidate profile did not load")
		return models.Decision{Action: models.ActionProfileLoadFail}, nil
	}

	c.Bio, _ = session.FirstText(ctx, s, e.selectors.Bio)
	token, matched := Match(c.Bio, tokens)
	if !matched {
		return models.Decision{Action: models.ActionNoAction}, nil
	}

	decision = models.Decision{Matched: true, Action: models.ActionNoAction, Token: token}
	c.Relationship = e.relationship(ctx, s)

	if c.Relationship == models.RelationshipNone {
		switch {
		case e.cfg.DryRun:
			log.InfoWithFields("Dry run, follow skipped", map[string]interface{}{"token": token})
			decision.Action = models.ActionFollowed
		default:
			if e.BeforeFollow != nil {
				if err := e.BeforeFollow(ctx); err != nil {
					return models.Decision{}, err
				}
			}
			if s.Click(ctx, e.selectors.FollowButton) {
				decision.Action = models.ActionFollowed
			} else {
				log.Debug("Follow button vanished before click")
			}
		}
	} else {
		log.DebugWithFields("Match found, already connected", map[string]interface{}{
			"relationship": c.Relationship.String(),
		})
	}

	if err := e.pacer.AfterFollow(ctx); err != nil {
		return decision, err
	}
	return decision, nil
}

func (e *Evaluator) load(ctx context.Context, s session.Session, ref string) bool {
	if err := s.Navigate(ctx, ref); err != nil {
		return false
	}
	return s.WaitFor(ctx, e.selectors.ProfileHeader, e.cfg.ProfileTimeout)
}

// relationship reads the follow button label
func (e *Evaluator) relationship(ctx context.Context, s session.Session) models.Relationship {
	label, ok := s.Text(ctx, e.selectors.FollowButton)
	if !ok {
		return models.RelationshipUnknown
	}
	switch {
	case containsAny(label, e.selectors.FollowingLabel):
		return models.RelationshipFollowing
	case containsAny(label, e.selectors.RequestedLabel):
		return models.RelationshipRequested
	default:
		return models.RelationshipNone
	}
}

func (e *Evaluator) restore(ctx context.Context, s session.Session, tab, origin session.TabID) error {
	if err := s.CloseTab(ctx, tab); err != nil {
		return errors.Wrap(errors.ErrorTypeSession, "close candidate tab", err)
	}
	if err := s.SwitchTab(ctx, origin); err != nil {
		return errors.Wrap(errors.ErrorTypeSession, "restore original tab", err)
	}
	return nil
}

func containsAny(s string, labels []string) bool {
	for _, l := range labels {
		if l != "" && strings.Contains(s, l) {
			return true
		}
	}
	return false
}
