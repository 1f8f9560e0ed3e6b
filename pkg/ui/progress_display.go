package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"igfollow/pkg/auth"
	"igfollow/pkg/crawler"
	"igfollow/pkg/models"
)

// ProgressDisplay renders a crawl as a single refreshing progress line
// with one summary line per subject. It implements crawler.Reporter.
type ProgressDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	tracker *QuotaTracker
	isDebug bool

	subject      string
	subjectIndex int
	subjects     int
	handle       string
	candidates   int
	handleDone   int
	loadFailures int

	sentinel      string
	challengeWait time.Duration
}

// NewProgressDisplay creates a display writing to out
func NewProgressDisplay(out io.Writer, quota models.Quota, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:     out,
		tracker: NewQuotaTracker(quota),
		isDebug: debug,
	}
}

// SetChallengeGuide sets what the challenge banner tells the operator
func (p *ProgressDisplay) SetChallengeGuide(sentinel string, wait time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sentinel = sentinel
	p.challengeWait = wait
}

// SubjectStarted prints a header for the subject
func (p *ProgressDisplay) SubjectStarted(subject models.Subject, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subject = subject.Name
	p.subjectIndex = index + 1
	p.subjects = total
	p.handle = ""
	p.loadFailures = 0

	if IsQuietMode() {
		return
	}
	fmt.Fprintf(p.out, "\n%s %s %s\n",
		Magenta(fmt.Sprintf("[%d/%d]", p.subjectIndex, p.subjects)),
		Cyan(subject.Name),
		Dim(fmt.Sprintf("• %d handles • max %d • tokens %s", len(subject.Handles), subject.MaxFollow, strings.Join(subject.Tokens, ", "))),
	)
}

// HandleStarted resets the per-handle counters
func (p *ProgressDisplay) HandleStarted(subject, handle string, candidates int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.handle = handle
	p.candidates = candidates
	p.handleDone = 0

	if p.isDebug {
		fmt.Fprintf(p.out, "%s @%s: %d followers sampled\n", Magenta("→"), handle, candidates)
		return
	}
	p.printProgress()
}

// Decided records one evaluated candidate
func (p *ProgressDisplay) Decided(subject string, c models.Candidate, d models.Decision, quota models.Quota) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracker.Update(quota)
	p.tracker.IncrementEvaluated()
	p.handleDone++
	if d.Action == models.ActionProfileLoadFail {
		p.loadFailures++
	}

	if p.isDebug {
		p.printDebugDecision(c, d)
		return
	}
	p.printProgress()
}

// SubjectFinished prints the subject's summary line
func (p *ProgressDisplay) SubjectFinished(r crawler.SubjectResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuietMode() && !failed(r.Outcome) {
		return
	}

	mark, color := Green("✓"), Green
	if failed(r.Outcome) {
		mark, color = Red("✗"), Red
	}
	fmt.Fprintf(p.out, "\n%s %s: followed %d of %d evaluated %s\n",
		mark,
		r.Subject,
		r.Followed,
		r.Evaluated,
		color("("+string(r.Outcome)+")"),
	)
	if r.AlreadyDone > 0 || r.SkippedHandles > 0 || r.LoadFailures > 0 {
		fmt.Fprintf(p.out, "  %s %d already processed • %d handles skipped • %d profiles failed to load • %s\n",
			Dim("•"),
			r.AlreadyDone,
			r.SkippedHandles,
			r.LoadFailures,
			formatDuration(r.Duration),
		)
	}
	if r.Err != nil && failed(r.Outcome) {
		fmt.Fprintf(p.out, "  %s %v\n", Dim("•"), r.Err)
	}
}

// Challenge prints the manual recovery guide
func (p *ProgressDisplay) Challenge(subject, username string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.out)
	if p.sentinel == "" {
		fmt.Fprintf(p.out, "%s Login for %s (%s) needs manual attention in the browser\n", Yellow("⚠"), username, subject)
		return
	}
	auth.ShowChallengeGuide(p.out, username, p.sentinel, p.challengeWait)
}

// Complete prints the run summary
func (p *ProgressDisplay) Complete(summary *crawler.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.tracker.GetElapsedTime()
	fmt.Fprintf(p.out, "\n%s Followed %d accounts across %d subjects (%s)\n",
		Green("✓"),
		summary.Followed,
		len(summary.Subjects),
		string(summary.Outcome),
	)
	fmt.Fprintf(p.out, "  %s %s today • %d evaluated in %s\n",
		Dim("•"),
		p.tracker.GetQuotaProgress(),
		p.tracker.Evaluated,
		formatDuration(elapsed),
	)
}

// printProgress prints the minimal progress line
func (p *ProgressDisplay) printProgress() {
	if IsQuietMode() {
		return
	}

	line := fmt.Sprintf("\r%s %s • %.1f/h",
		Cyan(p.subject),
		p.tracker.GetQuotaProgress(),
		p.tracker.GetFollowRate(),
	)
	if p.handle != "" {
		line += fmt.Sprintf(" • @%s %d/%d", p.handle, p.handleDone, p.candidates)
	}
	if p.loadFailures > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d load failures", p.loadFailures)))
	}

	// Clear line and print
	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

// printDebugDecision prints one line per candidate in debug mode
func (p *ProgressDisplay) printDebugDecision(c models.Candidate, d models.Decision) {
	var mark string
	switch {
	case d.Followed():
		mark = Green("✓")
	case d.Action == models.ActionProfileLoadFail:
		mark = Red("✗")
	default:
		mark = Dim("·")
	}

	line := fmt.Sprintf("%s %s • %s", mark, c.Ref, string(d.Action))
	if d.Token != "" {
		line += fmt.Sprintf(" • %s", Yellow(d.Token))
	}
	if bio := strings.Join(strings.Fields(c.Bio), " "); bio != "" {
		if r := []rune(bio); len(r) > 50 {
			bio = string(r[:47]) + "..."
		}
		line += fmt.Sprintf(" • %s", Dim(bio))
	}
	fmt.Fprintln(p.out, line)
}

func failed(o crawler.Outcome) bool {
	switch o {
	case crawler.OutcomeAuthFailed, crawler.OutcomeSessionFailed, crawler.OutcomeSessionBroken, crawler.OutcomeLedgerFailed:
		return true
	}
	return false
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
