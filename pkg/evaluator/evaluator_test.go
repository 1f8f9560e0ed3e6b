package evaluator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfollow/pkg/config"
	"igfollow/pkg/errors"
	"igfollow/pkg/instagram"
	"igfollow/pkg/logger"
	"igfollow/pkg/models"
	"igfollow/pkg/pacing"
	"igfollow/pkg/session/sessiontest"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		bio       string
		tokens    []string
		wantToken string
		wantMatch bool
	}{
		{"substring anywhere", "Class of '26 @ XYZ High", []string{"xyz"}, "xyz", true},
		{"no match", "Hello", []string{"xyz"}, "", false},
		{"upper-case token", "lincoln high school", []string{"LHS", "Lincoln"}, "Lincoln", true},
		{"first token wins", "lhs and lincoln", []string{"lincoln", "lhs"}, "lincoln", true},
		{"blank tokens ignored", "anything", []string{"", "  "}, "", false},
		{"empty bio", "", []string{"xyz"}, "", false},
		{"no tokens", "xyz", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, ok := Match(tt.bio, tt.tokens)
			assert.Equal(t, tt.wantMatch, ok)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func newTestEvaluator(dryRun bool) *Evaluator {
	cfg := config.DefaultConfig().Evaluation
	cfg.DryRun = dryRun
	e := New(cfg, instagram.DefaultSelectors(), pacing.NoDelay())
	e.SetLogger(logger.NewTestLogger())
	return e
}

func candidatePage(bio, button string) *sessiontest.Page {
	sel := instagram.DefaultSelectors()
	p := &sessiontest.Page{
		Elements: []string{sel.ProfileHeader.Query},
		Texts:    map[string]string{sel.Bio[0].Query: bio},
	}
	if button != "" {
		p.Texts[sel.FollowButton.Query] = button
	}
	return p
}

func ref(h string) string {
	return instagram.GetUserProfileURL(h)
}

func assertRestored(t *testing.T, b *sessiontest.Browser, origin string) {
	t.Helper()
	assert.Len(t, b.Tabs(), 1)
	assert.Equal(t, origin, string(b.CurrentTab()))
}

func TestEvaluateFollowsMatch(t *testing.T) {
	sel := instagram.DefaultSelectors()
	b := sessiontest.New(map[string]*sessiontest.Page{
		ref("alice"): candidatePage("Proud XYZ alum", "Follow"),
	})
	origin := string(b.CurrentTab())

	c := &models.Candidate{Ref: ref("alice")}
	d, err := newTestEvaluator(false).Evaluate(context.Background(), b, c, []string{"abc", "xyz"})
	require.NoError(t, err)

	assert.Equal(t, models.Decision{Matched: true, Action: models.ActionFollowed, Token: "xyz"}, d)
	assert.Equal(t, "true|followed", d.String())
	assert.Equal(t, "Proud XYZ alum", c.Bio)
	assert.Equal(t, models.RelationshipNone, c.Relationship)
	assert.Equal(t, []string{ref("alice") + " " + sel.FollowButton.Query}, b.Clicks)
	assertRestored(t, b, origin)
}

func TestEvaluateWithoutFollowing(t *testing.T) {
	tests := []struct {
		name         string
		page         *sessiontest.Page
		want         models.Decision
		relationship models.Relationship
	}{
		{
			name:         "no match",
			page:         candidatePage("Hello", "Follow"),
			want:         models.Decision{Action: models.ActionNoAction},
			relationship: models.RelationshipUnknown,
		},
		{
			name:         "already following",
			page:         candidatePage("xyz", "Following"),
			want:         models.Decision{Matched: true, Action: models.ActionNoAction, Token: "xyz"},
			relationship: models.RelationshipFollowing,
		},
		{
			name:         "already requested",
			page:         candidatePage("xyz", "Requested"),
			want:         models.Decision{Matched: true, Action: models.ActionNoAction, Token: "xyz"},
			relationship: models.RelationshipRequested,
		},
		{
			name:         "no follow button",
			page:         candidatePage("xyz", ""),
			want:         models.Decision{Matched: true, Action: models.ActionNoAction, Token: "xyz"},
			relationship: models.RelationshipUnknown,
		},
		{
			name:         "profile never renders",
			page:         &sessiontest.Page{},
			want:         models.Decision{Action: models.ActionProfileLoadFail},
			relationship: models.RelationshipUnknown,
		},
		{
			name:         "navigation fails",
			page:         &sessiontest.Page{NavigateErr: assert.AnError},
			want:         models.Decision{Action: models.ActionProfileLoadFail},
			relationship: models.RelationshipUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := sessiontest.New(map[string]*sessiontest.Page{ref("bob"): tt.page})
			origin := string(b.CurrentTab())

			c := &models.Candidate{Ref: ref("bob")}
			d, err := newTestEvaluator(false).Evaluate(context.Background(), b, c, []string{"xyz"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
			assert.Equal(t, tt.relationship, c.Relationship)
			assert.Empty(t, b.Clicks)
			assertRestored(t, b, origin)
		})
	}
}

func TestEvaluateBioFallbackStrategy(t *testing.T) {
	sel := instagram.DefaultSelectors()
	b := sessiontest.New(map[string]*sessiontest.Page{
		ref("carol"): {
			Elements: []string{sel.ProfileHeader.Query},
			Texts: map[string]string{
				sel.Bio[1].Query:       "LHS '25",
				sel.FollowButton.Query: "Follow Back",
			},
		},
	})

	c := &models.Candidate{Ref: ref("carol")}
	d, err := newTestEvaluator(false).Evaluate(context.Background(), b, c, []string{"lhs"})
	require.NoError(t, err)
	assert.True(t, d.Followed())
	assert.Equal(t, "LHS '25", c.Bio)
}

func TestEvaluateTabIsolationAcrossRuns(t *testing.T) {
	pages := map[string]*sessiontest.Page{
		ref("ok"):      candidatePage("xyz", "Follow"),
		ref("nomatch"): candidatePage("nothing here", "Follow"),
	}
	b := sessiontest.New(pages)
	origin := string(b.CurrentTab())
	e := newTestEvaluator(false)

	refs := []string{ref("ok"), ref("missing"), ref("nomatch"), ref("ok"), ref("missing")}
	for _, r := range refs {
		_, err := e.Evaluate(context.Background(), b, &models.Candidate{Ref: r}, []string{"xyz"})
		require.NoError(t, err)
		assertRestored(t, b, origin)
	}
	assert.Equal(t, 2, b.PeakTabs)
}

func TestEvaluateDryRunNeverClicks(t *testing.T) {
	b := sessiontest.New(map[string]*sessiontest.Page{
		ref("dana"): candidatePage("xyz", "Follow"),
	})

	d, err := newTestEvaluator(true).Evaluate(context.Background(), b, &models.Candidate{Ref: ref("dana")}, []string{"xyz"})
	require.NoError(t, err)
	assert.True(t, d.Followed())
	assert.Empty(t, b.Clicks)
}

func TestEvaluateOpenTabFailure(t *testing.T) {
	b := sessiontest.New(nil)
	b.OpenTabErr = assert.AnError

	d, err := newTestEvaluator(false).Evaluate(context.Background(), b, &models.Candidate{Ref: ref("erin")}, []string{"xyz"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeSession))
	assert.Empty(t, d.Action)
	assert.Len(t, b.Tabs(), 1)
	assert.Empty(t, b.Navigations)
}

func TestEvaluateCanceledContextIsNotALoadFailure(t *testing.T) {
	b := sessiontest.New(nil)
	origin := string(b.CurrentTab())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := newTestEvaluator(false).Evaluate(ctx, b, &models.Candidate{Ref: ref("frank")}, []string{"xyz"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.Action)
	assertRestored(t, b, origin)
}

func TestEvaluateBeforeFollowGate(t *testing.T) {
	b := sessiontest.New(map[string]*sessiontest.Page{
		ref("gina"): candidatePage("xyz", "Follow"),
	})
	origin := string(b.CurrentTab())
	e := newTestEvaluator(false)

	calls := 0
	e.BeforeFollow = func(ctx context.Context) error {
		calls++
		return context.DeadlineExceeded
	}

	d, err := e.Evaluate(context.Background(), b, &models.Candidate{Ref: ref("gina")}, []string{"xyz"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, d.Action)
	assert.Equal(t, 1, calls)
	assert.Empty(t, b.Clicks)
	assertRestored(t, b, origin)

	_, err = e.Evaluate(context.Background(), b, &models.Candidate{Ref: ref("nomatch")}, []string{"xyz"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
