package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════════╗
    ║ ██╗ ██████╗ ███████╗ ██████╗ ██╗     ██╗      ██████╗  ║
    ║ ██║██╔════╝ ██╔════╝██╔═══██╗██║     ██║     ██╔═══██╗ ║
    ║ ██║██║  ███╗█████╗  ██║   ██║██║     ██║     ██║   ██║ ║
    ║ ██║██║   ██║██╔══╝  ██║   ██║██║     ██║     ██║   ██║ ║
    ║ ██║╚██████╔╝██║     ╚██████╔╝███████╗███████╗╚██████╔╝ ║
    ║ ╚═╝ ╚═════╝ ╚═╝      ╚═════╝ ╚══════╝╚══════╝ ╚═════╝  ║
    ║          FOLLOWER CRAWL & DECIDE ENGINE                ║
    ╚═══════════════════════════════════════════════════════╝
`

var (
	mu           sync.RWMutex
	output       io.Writer = os.Stdout
	quiet        bool
	noColor      bool
	progressOnly bool
)

// SetOutput redirects everything the package prints
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Output returns the writer the package prints to
func Output() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

// SetQuietMode suppresses informational output. Errors are still printed.
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// IsQuietMode reports whether informational output is suppressed
func IsQuietMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return quiet
}

// SetProgressOnlyMode keeps the progress line but drops the logo and
// informational messages
func SetProgressOnlyMode(p bool) {
	mu.Lock()
	defer mu.Unlock()
	progressOnly = p
}

// IsProgressOnlyMode reports whether only progress is printed
func IsProgressOnlyMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return progressOnly
}

// SetNoColor disables ANSI colors
func SetNoColor(n bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = n
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.RLock()
		plain := noColor
		mu.RUnlock()
		if plain {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

func chatty() bool {
	return !IsQuietMode() && !IsProgressOnlyMode()
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if !chatty() {
		return
	}
	fmt.Fprint(Output(), Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output(), Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output(), Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if !chatty() {
		return
	}
	fmt.Fprintln(Output(), Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	if !chatty() {
		return
	}
	fmt.Fprintf(Output(), "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(Output(), Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output(), Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if !chatty() {
		return
	}
	fmt.Fprintln(Output(), Magenta(msg))
}
