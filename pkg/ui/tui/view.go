package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderLogo())

	if banner := m.renderChallenge(); banner != "" {
		sections = append(sections, banner)
	}

	leftColumn := m.renderLeftColumn()
	rightColumn := m.renderRightColumn()

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftColumn,
		"  ",
		rightColumn,
	)
	sections = append(sections, mainContent)

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderLogo() string {
	title := asciiArtStyle.Render("igfollow") + " " + GlowText("follower crawl & decide", neonMagenta)
	return logoStyle.Width(m.width).Render(title)
}

// renderChallenge renders the banner shown while a login is paused
func (m *Model) renderChallenge() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.challengeUser == "" {
		return ""
	}
	waited := time.Since(m.challengeAt)
	text := fmt.Sprintf("%s Login for %s needs your help in the browser. Run `igfollow continue` when done. Waiting %s",
		m.spinner.View(), m.challengeUser, formatDuration(waited))
	return challengeStyle.Width(m.width - 4).Render(text)
}

func (m *Model) renderLeftColumn() string {
	width := (m.width - 4) / 2

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderCurrentPanel(width),
		m.renderSubjectsPanel(width),
	)
}

func (m *Model) renderRightColumn() string {
	width := (m.width - 4) / 2

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderQuotaPanel(width),
		m.renderLogsPanel(width),
	)
}

// renderStatsPanel renders the run counters
func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" RUN STATS ")

	st := m.GetStats()
	elapsed := time.Since(m.sessionStartTime)

	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Session Time:"), statsValueStyle.Render(formatDuration(elapsed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Followed This Run:"), statsValueStyle.Render(fmt.Sprintf("%d", st.FollowedRun))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Evaluated:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Evaluated))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Matched:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Matched))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Follow Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f/h", st.FollowRate))),
	}
	if st.LoadFailures > 0 {
		stats = append(stats, warningStyle.Render(fmt.Sprintf("%d profiles failed to load", st.LoadFailures)))
	}

	m.mu.RLock()
	finished := m.finished
	m.mu.RUnlock()
	if finished {
		stats = append(stats, successStyle.Render("✓ RUN FINISHED"))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

// renderCurrentPanel renders the subject and handle in progress
func (m *Model) renderCurrentPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" NOW CRAWLING ")

	if m.current == "" || m.finished {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("Idle")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	lines := []string{
		fmt.Sprintf("%s %s %s", m.spinner.View(), statsLabelStyle.Render("Subject:"), statsValueStyle.Render(m.current)),
	}
	if item, ok := m.subjects[m.current]; ok {
		lines = append(lines, fmt.Sprintf("%s %s",
			statsLabelStyle.Render("Subject Cap:"),
			GetProgressBarStyle(ratio(item.Followed, item.MaxFollow)*100).Render(fmt.Sprintf("%d/%d", item.Followed, item.MaxFollow))))
	}
	if m.handle != "" {
		done := 0.0
		if m.candidates > 0 {
			done = ratio(m.handleDone, m.candidates)
		}
		bar := m.handleBar
		bar.Width = max(width-8, 10)
		lines = append(lines,
			fmt.Sprintf("%s %s", statsLabelStyle.Render("Handle:"), handleLine(m.handle, m.handleDone, m.candidates)),
			bar.ViewAs(done),
		)
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}

func handleLine(handle string, done, total int) string {
	return statsValueStyle.Render("@"+handle) + " " +
		lipgloss.NewStyle().Foreground(dimWhite).Render(fmt.Sprintf("%d/%d candidates", done, total))
}

// renderSubjectsPanel renders finished and active subjects
func (m *Model) renderSubjectsPanel(width int) string {
	title := titleStyle.Render(" SUBJECTS ")

	subjects := m.GetSubjects()

	m.mu.RLock()
	total := m.totalSubjects
	m.mu.RUnlock()

	var items []string
	if pending := total - len(subjects); pending > 0 {
		items = append(items, warningStyle.Render(fmt.Sprintf("⏳ %d pending", pending)))
	}

	start := len(subjects) - 6
	if start < 0 {
		start = 0
	}
	for _, item := range subjects[start:] {
		switch item.State {
		case SubjectActive:
			items = append(items, successStyle.Render(fmt.Sprintf("▶ %s %d/%d", item.Name, item.Followed, item.MaxFollow)))
		case SubjectFailed:
			items = append(items, errorStyle.Render(fmt.Sprintf("✗ %s (%s)", item.Name, item.Outcome)))
		default:
			items = append(items, lipgloss.NewStyle().Foreground(dimWhite).Render(
				fmt.Sprintf("✓ %s %d followed (%s)", item.Name, item.Followed, item.Outcome)))
		}
	}
	if len(items) == 0 {
		items = append(items, lipgloss.NewStyle().Foreground(dimWhite).Render("No subjects yet"))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

// renderQuotaPanel renders the daily cap status
func (m *Model) renderQuotaPanel(width int) string {
	title := titleStyle.Render(" DAILY CAP ")

	st := m.GetStats()
	r := m.QuotaRatio()
	usage := r * 100

	barWidth := width - 8
	if barWidth < 0 {
		barWidth = 0
	}
	filled := int(r * float64(barWidth))
	empty := barWidth - filled

	barStyle := GetQuotaStyle(usage)
	bar := barStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", empty))

	remaining := st.DailyCap - st.FollowedToday
	if remaining < 0 {
		remaining = 0
	}

	content := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Followed Today:"),
			barStyle.Render(fmt.Sprintf("%d/%d (%.0f%%)", st.FollowedToday, st.DailyCap, usage))),
		bar,
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Remaining:"),
			statsValueStyle.Render(fmt.Sprintf("%d", remaining))),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

// renderLogsPanel renders the recent events
func (m *Model) renderLogsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" EVENTS ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for i := start; i < len(m.logMessages); i++ {
		log := m.logMessages[i]
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		text := log.Message
		if maxLen := width - 25; maxLen > 3 && len([]rune(text)) > maxLen {
			text = string([]rune(text)[:maxLen-3]) + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(text)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No events yet...")
	}

	logsHeight := m.height - 30
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Stop the crawl and exit
    ctrl+l   - Clear events
    ?        - Toggle this help

  Status Indicators:
    ` + successStyle.Render("Green") + `    - Active/Followed
    ` + warningStyle.Render("Orange") + `   - Waiting/Load failure
    ` + errorStyle.Render("Red") + `      - Subject skipped

  Icons:
    ⏳       - Pending subjects
    ▶        - Subject in progress
    ✓        - Subject finished
    ✗        - Subject skipped
`

	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
