package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"igfollow/pkg/models"
)

// Message types for the TUI

// SubjectStartMsg is sent when the crawler opens a subject
type SubjectStartMsg struct {
	Subject models.Subject
	Index   int
	Total   int
}

// HandleStartMsg is sent when a handle's follower sample is ready
type HandleStartMsg struct {
	Subject    string
	Handle     string
	Candidates int
}

// DecisionMsg is sent for every evaluated candidate
type DecisionMsg struct {
	Subject   string
	Candidate models.Candidate
	Decision  models.Decision
	Quota     models.Quota
}

// SubjectDoneMsg is sent when a subject finishes
type SubjectDoneMsg struct {
	Subject  string
	Outcome  string
	Followed int
	Failed   bool
	Err      error
}

// ChallengeMsg is sent when a login waits on the operator
type ChallengeMsg struct {
	Subject  string
	Username string
}

// RunDoneMsg is sent when the crawl returns
type RunDoneMsg struct {
	Outcome  string
	Followed int
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case SubjectStartMsg:
		m.StartSubject(msg.Subject, msg.Index, msg.Total)
		m.AddLogMessage("INFO", fmt.Sprintf("Subject %s (%d/%d)", msg.Subject.Name, msg.Index+1, msg.Total))
		return m, nil

	case HandleStartMsg:
		m.StartHandle(msg.Handle, msg.Candidates)
		m.AddLogMessage("INFO", fmt.Sprintf("@%s: %d followers sampled", msg.Handle, msg.Candidates))
		return m, nil

	case DecisionMsg:
		m.RecordDecision(msg.Subject, msg.Decision, msg.Quota)
		switch {
		case msg.Decision.Followed():
			m.AddLogMessage("SUCCESS", fmt.Sprintf("Followed %s (%s)", msg.Candidate.Ref, msg.Decision.Token))
		case msg.Decision.Action == models.ActionProfileLoadFail:
			m.AddLogMessage("WARN", "Profile failed to load: "+msg.Candidate.Ref)
		}
		return m, nil

	case SubjectDoneMsg:
		m.FinishSubject(msg.Subject, msg.Outcome, msg.Failed)
		if msg.Failed {
			text := fmt.Sprintf("%s skipped: %s", msg.Subject, msg.Outcome)
			if msg.Err != nil {
				text += " - " + msg.Err.Error()
			}
			m.AddLogMessage("ERROR", text)
		} else {
			m.AddLogMessage("INFO", fmt.Sprintf("%s finished: %s, %d followed", msg.Subject, msg.Outcome, msg.Followed))
		}
		return m, nil

	case ChallengeMsg:
		m.SetChallenge(msg.Username)
		m.AddLogMessage("WARN", fmt.Sprintf("Login for %s needs manual attention", msg.Username))
		return m, nil

	case RunDoneMsg:
		m.mu.Lock()
		m.finished = true
		m.mu.Unlock()
		m.AddLogMessage("SUCCESS", fmt.Sprintf("Run finished (%s): %d followed. Press q to exit", msg.Outcome, msg.Followed))
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = []LogMessage{}
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// Commands

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
