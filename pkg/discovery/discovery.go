// Package discovery samples the follower list of a target account.
package discovery

import (
	"context"
	stderrors "errors"

	"igfollow/pkg/config"
	"igfollow/pkg/errors"
	"igfollow/pkg/instagram"
	"igfollow/pkg/logger"
	"igfollow/pkg/pacing"
	"igfollow/pkg/session"
)

var (
	// ErrPrivateAccount is returned when the target hides its followers
	ErrPrivateAccount = stderrors.New("account is private")

	// ErrProfileUnavailable is returned when the target profile never renders
	ErrProfileUnavailable = stderrors.New("profile did not load")

	// ErrNoFollowerList is returned when the follower list cannot be opened
	ErrNoFollowerList = stderrors.New("follower list did not open")
)

// Discoverer samples the follower list of a target account
type Discoverer struct {
	cfg       config.DiscoveryConfig
	selectors instagram.Selectors
	pacer     *pacing.Pacer
	logger    logger.Logger
}

// New creates a Discoverer
func New(cfg config.DiscoveryConfig, selectors instagram.Selectors, pacer *pacing.Pacer) *Discoverer {
	return &Discoverer{
		cfg:       cfg,
		selectors: selectors,
		pacer:     pacer,
		logger:    logger.GetLogger().WithField("component", "discovery"),
	}
}

// SetLogger replaces the discoverer's logger
func (d *Discoverer) SetLogger(l logger.Logger) {
	d.logger = l
}

// Discover opens handle's follower list and scrolls it until sampleSize
// distinct profile URLs have been collected or the list stops growing.
// The result keeps first-seen order. Failures to reach the list are
// returned as discovery errors with an empty result.
func (d *Discoverer) Discover(ctx context.Context, s session.Session, handle string, sampleSize int) ([]string, error) {
	log := d.logger.WithField("handle", handle)

	if err := d.openFollowers(ctx, s, handle, log); err != nil {
		return nil, err
	}

	if sampleSize <= 0 {
		return []string{}, nil
	}

	refs := make([]string, 0, sampleSize)
	seen := make(map[string]bool, sampleSize)
	idle := 0

	for len(refs) < sampleSize && idle < d.cfg.NoGrowthLimit {
		before := len(refs)
		for _, href := range s.Attrs(ctx, d.selectors.FollowerItems, "href") {
			ref, ok := instagram.CanonicalProfileURL(href)
			if !ok || seen[ref] {
				continue
			}
			seen[ref] = true
			refs = append(refs, ref)
		}

		if len(refs) >= sampleSize {
			break
		}

		s.Scroll(ctx, d.selectors.FollowerList)
		if err := d.pacer.Scroll(ctx); err != nil {
			return nil, errors.Wrap(errors.ErrorTypeDiscovery, "follower scroll interrupted", err)
		}

		if len(refs) == before {
			idle++
		} else {
			idle = 0
		}
	}

	if len(refs) > sampleSize {
		refs = refs[:sampleSize]
	}

	log.InfoWithFields("Loaded followers", map[string]interface{}{
		"count":  len(refs),
		"target": sampleSize,
		"idle":   idle,
	})
	return refs, nil
}

func (d *Discoverer) openFollowers(ctx context.Context, s session.Session, handle string, log logger.Logger) error {
	url := instagram.GetUserProfileURL(handle)
	if url == "" {
		return errors.New(errors.ErrorTypeDiscovery, "invalid handle "+handle)
	}

	log.Info("Opening target profile")
	if err := s.Navigate(ctx, url); err != nil {
		return errors.Wrap(errors.ErrorTypeDiscovery, "open "+handle, err)
	}
	if !s.WaitFor(ctx, d.selectors.ProfileHeader, d.cfg.ProfileTimeout) {
		return errors.Wrap(errors.ErrorTypeDiscovery, handle, ErrProfileUnavailable)
	}

	link, ok := session.FirstPresent(ctx, s, d.selectors.FollowersLink, d.cfg.ModalTimeout)
	if !ok {
		if s.Exists(ctx, d.selectors.PrivateMarker) {
			log.Warn("Private account, cannot open followers list")
			return errors.Wrap(errors.ErrorTypeDiscovery, handle, ErrPrivateAccount)
		}
		return errors.Wrap(errors.ErrorTypeDiscovery, handle, ErrNoFollowerList)
	}

	if !s.Click(ctx, link) {
		return errors.Wrap(errors.ErrorTypeDiscovery, handle, ErrNoFollowerList)
	}
	log.DebugWithFields("Clicked followers link", map[string]interface{}{"locator": link.String()})

	if !s.WaitFor(ctx, d.selectors.FollowerList, d.cfg.ModalTimeout) {
		log.Warn("Timeout waiting for followers list")
		return errors.Wrap(errors.ErrorTypeDiscovery, handle, ErrNoFollowerList)
	}

	return d.pacer.Action(ctx)
}
