package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"igfollow/pkg/crawler"
	"igfollow/pkg/models"
)

// TUI is the full-screen crawl dashboard. It implements crawler.Reporter,
// so the crawl goroutine can feed it directly.
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a new TUI instance starting from quota
func NewTUI(quota models.Quota, opts ...tea.ProgramOption) *TUI {
	model := NewModel(quota)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	program := tea.NewProgram(&model, opts...)

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start runs the TUI until the user quits
func (t *TUI) Start() error {
	go func() {
		time.Sleep(100 * time.Millisecond)
		t.program.Send(TickMsg(time.Now()))
	}()

	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) SubjectStarted(subject models.Subject, index, total int) {
	t.Send(SubjectStartMsg{Subject: subject, Index: index, Total: total})
}

func (t *TUI) HandleStarted(subject, handle string, candidates int) {
	t.Send(HandleStartMsg{Subject: subject, Handle: handle, Candidates: candidates})
}

func (t *TUI) Decided(subject string, c models.Candidate, d models.Decision, quota models.Quota) {
	t.Send(DecisionMsg{Subject: subject, Candidate: c, Decision: d, Quota: quota})
}

func (t *TUI) SubjectFinished(r crawler.SubjectResult) {
	t.Send(subjectDone(r))
}

func (t *TUI) Challenge(subject, username string) {
	t.Send(ChallengeMsg{Subject: subject, Username: username})
}

// Done tells the dashboard the crawl has returned
func (t *TUI) Done(summary *crawler.Summary) {
	t.Send(RunDoneMsg{Outcome: string(summary.Outcome), Followed: summary.Followed})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}

func subjectDone(r crawler.SubjectResult) SubjectDoneMsg {
	msg := SubjectDoneMsg{
		Subject:  r.Subject,
		Outcome:  string(r.Outcome),
		Followed: r.Followed,
		Err:      r.Err,
	}
	switch r.Outcome {
	case crawler.OutcomeAuthFailed, crawler.OutcomeSessionFailed, crawler.OutcomeSessionBroken, crawler.OutcomeLedgerFailed:
		msg.Failed = true
	}
	return msg
}
