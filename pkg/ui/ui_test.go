package ui

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfollow/pkg/crawler"
	"igfollow/pkg/models"
)

// plainOutput captures package output without colors for the test
func plainOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetNoColor(true)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetNoColor(false)
		SetQuietMode(false)
		SetProgressOnlyMode(false)
	})
	return &buf
}

type recordingSender struct {
	sent []string
	err  error
}

func (r *recordingSender) Send(title, message string) error {
	r.sent = append(r.sent, title+": "+message)
	return r.err
}

func TestQuotaTrackerProgress(t *testing.T) {
	qt := NewQuotaTracker(models.Quota{DailyCap: 10, TotalFollowed: 2})
	assert.Equal(t, "[████░░░░░░░░░░░░░░░░] 2/10", qt.GetQuotaProgress())
	assert.False(t, qt.IsCapReached())

	qt.Update(models.Quota{DailyCap: 10, TotalFollowed: 12})
	assert.Equal(t, "["+strings.Repeat(ProgressBar, 20)+"] 12/10", qt.GetQuotaProgress())
	assert.True(t, qt.IsCapReached())
	assert.Equal(t, 10, qt.FollowedThisRun())

	zero := NewQuotaTracker(models.Quota{})
	assert.Equal(t, "["+strings.Repeat(ProgressBar, 20)+"] 0/0", zero.GetQuotaProgress())
	assert.True(t, zero.IsCapReached())
}

func TestColorsCanBeDisabled(t *testing.T) {
	plainOutput(t)
	assert.Equal(t, "hello", Red("hello"))

	SetNoColor(false)
	assert.Equal(t, "\033[31mhello\033[0m", Red("hello"))
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := plainOutput(t)
	SetQuietMode(true)

	PrintLogo()
	PrintInfo("Roster", "subjects.xlsx")
	PrintSuccess("done")
	PrintWarning("careful")
	PrintError("Failed to open ledger", errors.New("permission denied"))

	assert.Equal(t, "Failed to open ledger: permission denied\n", buf.String())
}

func TestProgressOnlyModeDropsInfo(t *testing.T) {
	buf := plainOutput(t)
	SetProgressOnlyMode(true)

	PrintLogo()
	PrintInfo("Roster", "subjects.xlsx")
	PrintWarning("Row 3 skipped")

	assert.Equal(t, "Row 3 skipped\n", buf.String())
}

func TestNotifierMirrorsToDesktop(t *testing.T) {
	buf := plainOutput(t)
	sender := &recordingSender{err: errors.New("no display")}
	n := NewNotifierWithSender(sender)

	n.SendNotification("Login needs attention", "alice_bot is waiting")
	n.SendError("Login failed", "bad password")

	assert.Equal(t, []string{
		"Login needs attention: alice_bot is waiting",
		"Login failed: bad password",
	}, sender.sent)
	assert.Contains(t, buf.String(), "Login needs attention: alice_bot is waiting")
	assert.Contains(t, buf.String(), "Login failed: bad password")
}

func TestNotifierWithoutDesktop(t *testing.T) {
	buf := plainOutput(t)
	NewNotifier(false).SendSuccess("Done", "3 followed")
	assert.Contains(t, buf.String(), "Done: 3 followed")
}

func TestAlertReporter(t *testing.T) {
	plainOutput(t)
	sender := &recordingSender{}
	r := NewNotifierWithSender(sender).NotifyOn()

	r.SubjectFinished(crawler.SubjectResult{Subject: "alice", Outcome: crawler.OutcomeDone})
	r.SubjectFinished(crawler.SubjectResult{Subject: "bob", Outcome: crawler.OutcomeAuthFailed, Err: errors.New("challenge timed out")})
	r.SubjectFinished(crawler.SubjectResult{Subject: "carol", Outcome: crawler.OutcomeDailyCap})
	r.SubjectFinished(crawler.SubjectResult{Subject: "dave", Outcome: crawler.OutcomeDailyCap})

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "Login failed: Skipped bob: challenge timed out", sender.sent[0])
	assert.Equal(t, "Daily cap reached: Stopped after carol", sender.sent[1])
}

func TestEscaping(t *testing.T) {
	assert.Equal(t, `"say \"hi\" \\o/"`, appleScriptString(`say "hi" \o/`))
	assert.Equal(t, "a &amp; b &lt;3", xmlEscape("a & b <3"))
}

func TestProgressDisplayReportsCrawl(t *testing.T) {
	plainOutput(t)
	var out bytes.Buffer
	p := NewProgressDisplay(&out, models.Quota{DailyCap: 4, TotalFollowed: 1}, false)

	p.SubjectStarted(models.Subject{Name: "alice", Handles: []string{"target"}, Tokens: []string{"yoga"}, MaxFollow: 2}, 0, 2)
	p.HandleStarted("alice", "target", 3)
	p.Decided("alice", models.Candidate{Ref: "/a1/"}, models.Decision{Matched: true, Action: models.ActionFollowed, Token: "yoga"}, models.Quota{DailyCap: 4, TotalFollowed: 2})
	p.Decided("alice", models.Candidate{Ref: "/a2/"}, models.Decision{Action: models.ActionProfileLoadFail}, models.Quota{DailyCap: 4, TotalFollowed: 2})
	p.SubjectFinished(crawler.SubjectResult{Subject: "alice", Outcome: crawler.OutcomeDone, Followed: 1, Evaluated: 2, LoadFailures: 1, Duration: 90 * time.Second})
	p.Complete(&crawler.Summary{Followed: 1, Outcome: crawler.OutcomeDone, Subjects: []crawler.SubjectResult{{Subject: "alice"}}})

	text := out.String()
	assert.Contains(t, text, "[1/2] alice • 1 handles • max 2 • tokens yoga")
	assert.Contains(t, text, "@target 2/3")
	assert.Contains(t, text, "1 load failures")
	assert.Contains(t, text, "2/4")
	assert.Contains(t, text, "✓ alice: followed 1 of 2 evaluated (done)")
	assert.Contains(t, text, "1m30s")
	assert.Contains(t, text, "Followed 1 accounts across 1 subjects (done)")
}

func TestProgressDisplayDebugLines(t *testing.T) {
	plainOutput(t)
	var out bytes.Buffer
	p := NewProgressDisplay(&out, models.Quota{DailyCap: 4}, true)

	p.HandleStarted("alice", "target", 1)
	p.Decided("alice", models.Candidate{Ref: "/a1/", Bio: "morning\nyoga and coffee"}, models.Decision{Matched: true, Action: models.ActionFollowed, Token: "yoga"}, models.Quota{DailyCap: 4, TotalFollowed: 1})

	assert.Contains(t, out.String(), "@target: 1 followers sampled")
	assert.Contains(t, out.String(), "✓ /a1/ • followed • yoga • morning yoga and coffee")
}

func TestProgressDisplayQuietShowsFailuresOnly(t *testing.T) {
	plainOutput(t)
	SetQuietMode(true)
	var out bytes.Buffer
	p := NewProgressDisplay(&out, models.Quota{DailyCap: 4}, false)

	p.SubjectStarted(models.Subject{Name: "alice"}, 0, 1)
	p.HandleStarted("alice", "target", 3)
	p.SubjectFinished(crawler.SubjectResult{Subject: "alice", Outcome: crawler.OutcomeDone})
	assert.Empty(t, out.String())

	p.SubjectFinished(crawler.SubjectResult{Subject: "bob", Outcome: crawler.OutcomeAuthFailed, Err: errors.New("login rejected")})
	assert.Contains(t, out.String(), "✗ bob: followed 0 of 0 evaluated (auth_failed)")
	assert.Contains(t, out.String(), "login rejected")
}

func TestProgressDisplayChallenge(t *testing.T) {
	plainOutput(t)
	var out bytes.Buffer
	p := NewProgressDisplay(&out, models.Quota{DailyCap: 4}, false)

	p.Challenge("alice", "alice_bot")
	assert.Contains(t, out.String(), "alice_bot (alice) needs manual attention")

	out.Reset()
	p.SetChallengeGuide("/tmp/igfollow.continue", 5*time.Minute)
	p.Challenge("alice", "alice_bot")
	assert.Contains(t, out.String(), "/tmp/igfollow.continue")
	assert.Contains(t, out.String(), "alice_bot")
}

type countingReporter struct {
	crawler.NopReporter
	finished int
}

func (c *countingReporter) SubjectFinished(crawler.SubjectResult) { c.finished++ }

func TestTee(t *testing.T) {
	a, b := &countingReporter{}, &countingReporter{}

	single := Tee(nil, a)
	assert.Same(t, a, single)

	r := Tee(a, nil, b)
	r.SubjectFinished(crawler.SubjectResult{})
	r.Challenge("alice", "alice_bot")
	assert.Equal(t, 2, a.finished)
	assert.Equal(t, 1, b.finished)
}
