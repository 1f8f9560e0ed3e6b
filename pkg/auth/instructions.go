package auth

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ShowChallengeGuide prints what the operator must do to unblock a
// challenged login
func ShowChallengeGuide(w io.Writer, username, sentinel string, wait time.Duration) {
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "🔐 LOGIN NEEDS YOUR HELP")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Instagram did not accept the login for %s without a check.\n", username)
	fmt.Fprintln(w, "The crawl is paused until you confirm the account is usable.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🌐 STEP 1: Switch to the browser window")
	fmt.Fprintln(w, "   - Complete the security code, captcha or \"Was this you?\" prompt")
	fmt.Fprintln(w, "   - Dismiss any \"Save login info\" or notification dialogs")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "✅ STEP 2: Tell the bot to continue")
	fmt.Fprintf(w, "   - Create the file: %s\n", sentinel)
	fmt.Fprintln(w, "   - Or run: igfollow continue")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "⏱  The bot waits up to %s before skipping this subject.\n", wait)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)
}
