package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"igfollow/pkg/crawler"
)

// AppName is the title desktop notifications are filed under
const AppName = "igfollow"

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	cmd := exec.Command("notify-send", "--app-name", AppName, title, message)
	return cmd.Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %s with title %s`, appleScriptString(message), appleScriptString(title))
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// appleScriptString quotes s as an AppleScript string literal
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("%s").Show($toast)
	`, xmlEscape(title), xmlEscape(message), AppName)

	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	return cmd.Run()
}

var xmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}

// Notifier prints alerts to the terminal and mirrors them to the desktop.
// It satisfies the login controller's notifier and, through NotifyOn, the
// crawl reporter.
type Notifier struct {
	sender NotificationSender
}

// NewNotifier creates a Notifier for the current platform. With desktop
// false alerts only go to the terminal.
func NewNotifier(desktop bool) *Notifier {
	if !desktop {
		return &Notifier{}
	}
	return NewNotifierWithSender(platformSender())
}

// NewNotifierWithSender creates a Notifier around an explicit sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

func platformSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &LinuxNotificationSender{}
	case "darwin":
		return &MacOSNotificationSender{}
	case "windows":
		return &WindowsNotificationSender{}
	default:
		return nil
	}
}

// SendNotification sends a desktop notification and prints to console
func (n *Notifier) SendNotification(title, message string) {
	if !IsQuietMode() {
		fmt.Fprintf(Output(), "\n%s: %s\n", Cyan(title), Yellow(message))
	}
	n.send(title, message)
}

// SendError sends an error notification
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(Output(), "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

// SendSuccess sends a success notification
func (n *Notifier) SendSuccess(title, message string) {
	if !IsQuietMode() {
		fmt.Fprintf(Output(), "\n%s: %s\n", Green(title), Green(message))
	}
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender == nil {
		return
	}
	// Notifications are best effort
	_ = n.sender.Send(title, message)
}

// NotifyOn returns a crawl reporter that raises an alert whenever a
// subject is skipped for a login or browser failure, and once when the run
// reaches the daily cap.
func (n *Notifier) NotifyOn() crawler.Reporter {
	return &alertReporter{notifier: n}
}

type alertReporter struct {
	crawler.NopReporter
	notifier  *Notifier
	capRaised bool
}

func (a *alertReporter) SubjectFinished(r crawler.SubjectResult) {
	switch r.Outcome {
	case crawler.OutcomeAuthFailed:
		a.notifier.SendError("Login failed", fmt.Sprintf("Skipped %s: %v", r.Subject, r.Err))
	case crawler.OutcomeSessionFailed, crawler.OutcomeSessionBroken:
		a.notifier.SendError("Browser failed", fmt.Sprintf("Skipped %s: %v", r.Subject, r.Err))
	case crawler.OutcomeDailyCap:
		if !a.capRaised {
			a.capRaised = true
			a.notifier.SendSuccess("Daily cap reached", fmt.Sprintf("Stopped after %s", r.Subject))
		}
	}
}
