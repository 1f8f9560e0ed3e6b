package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"igfollow/pkg/models"
)

// SubjectState is where a subject is in the run
type SubjectState int

const (
	SubjectPending SubjectState = iota
	SubjectActive
	SubjectCompleted
	SubjectFailed
)

// SubjectItem is one roster row as the dashboard sees it
type SubjectItem struct {
	Name      string
	MaxFollow int
	Followed  int
	Evaluated int
	Outcome   string
	State     SubjectState
	StartTime time.Time
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner   spinner.Model
	handleBar progress.Model

	// Crawl state
	subjects      map[string]*SubjectItem
	subjectOrder  []string
	totalSubjects int
	current       string
	handle        string
	candidates    int
	handleDone    int

	// Stats
	quota            models.Quota
	seeded           int
	evaluated        int
	matched          int
	loadFailures     int
	sessionStartTime time.Time

	// Challenge waiting on the operator
	challengeUser string
	challengeAt   time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	finished       bool
	logMessages    []LogMessage
	maxLogMessages int

	// Mutex for thread safety
	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a new TUI model starting from quota
func NewModel(quota models.Quota) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	handleBar := progress.New(progress.WithDefaultGradient())
	handleBar.Width = 40

	return Model{
		spinner:          s,
		handleBar:        handleBar,
		subjects:         make(map[string]*SubjectItem),
		quota:            quota,
		seeded:           quota.TotalFollowed,
		sessionStartTime: time.Now(),
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// StartSubject marks a subject as active
func (m *Model) StartSubject(subject models.Subject, index, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.subjects[subject.Name]
	if !ok {
		item = &SubjectItem{Name: subject.Name}
		m.subjects[subject.Name] = item
		m.subjectOrder = append(m.subjectOrder, subject.Name)
	}
	item.MaxFollow = subject.MaxFollow
	item.State = SubjectActive
	item.StartTime = time.Now()

	m.totalSubjects = total
	m.current = subject.Name
	m.handle = ""
	m.candidates = 0
	m.handleDone = 0
	m.challengeUser = ""
}

// StartHandle resets the per-handle progress
func (m *Model) StartHandle(handle string, candidates int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handle = handle
	m.candidates = candidates
	m.handleDone = 0
	m.challengeUser = ""
}

// RecordDecision counts one evaluated candidate
func (m *Model) RecordDecision(subject string, d models.Decision, quota models.Quota) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.quota = quota
	m.evaluated++
	m.handleDone++
	if d.Matched {
		m.matched++
	}
	if d.Action == models.ActionProfileLoadFail {
		m.loadFailures++
	}
	if item, ok := m.subjects[subject]; ok {
		item.Evaluated++
		if d.Followed() {
			item.Followed++
		}
	}
}

// FinishSubject marks a subject done or failed
func (m *Model) FinishSubject(name, outcome string, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item, ok := m.subjects[name]; ok {
		item.Outcome = outcome
		item.State = SubjectCompleted
		if failed {
			item.State = SubjectFailed
		}
	}
	if m.current == name {
		m.handle = ""
	}
	m.challengeUser = ""
}

// SetChallenge shows the manual recovery banner for username
func (m *Model) SetChallenge(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challengeUser = username
	m.challengeAt = time.Now()
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	color := dimWhite
	switch level {
	case "ERROR":
		color = lipgloss.Color("#FF0000")
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	case "INFO":
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// GetSubjects returns the subjects seen so far in run order
func (m *Model) GetSubjects() []SubjectItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]SubjectItem, 0, len(m.subjectOrder))
	for _, name := range m.subjectOrder {
		items = append(items, *m.subjects[name])
	}
	return items
}

// Stats is a snapshot of the run counters
type Stats struct {
	FollowedToday int
	DailyCap      int
	FollowedRun   int
	Evaluated     int
	Matched       int
	LoadFailures  int
	FollowRate    float64
}

// GetStats returns the run counters
func (m *Model) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{
		FollowedToday: m.quota.TotalFollowed,
		DailyCap:      m.quota.DailyCap,
		FollowedRun:   m.quota.TotalFollowed - m.seeded,
		Evaluated:     m.evaluated,
		Matched:       m.matched,
		LoadFailures:  m.loadFailures,
	}
	if hours := time.Since(m.sessionStartTime).Hours(); hours > 0 {
		st.FollowRate = float64(st.FollowedRun) / hours
	}
	return st
}

// QuotaRatio returns the share of the daily cap spent, capped at 1
func (m *Model) QuotaRatio() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ratio(m.quota.TotalFollowed, m.quota.DailyCap)
}

func ratio(n, of int) float64 {
	if of <= 0 {
		return 1
	}
	r := float64(n) / float64(of)
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}
