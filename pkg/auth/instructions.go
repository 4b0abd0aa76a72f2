package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCookieExtractionGuide writes step-by-step instructions for copying the
// session cookies out of a logged-in browser.
func ShowCookieExtractionGuide(w io.Writer) {
	line := strings.Repeat("=", 80)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "X SESSION COOKIE GUIDE")
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "tweetkit talks to the same web API as x.com and needs two session cookies.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 1: Log in")
	fmt.Fprintln(w, "   - Open https://x.com in your browser and sign in")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 2: Open Developer Tools")
	fmt.Fprintln(w, "   - Chrome/Edge/Brave/Firefox: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Fprintln(w, "   - Safari: enable the Develop menu, then Cmd+Option+I")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 3: Find the cookies")
	fmt.Fprintln(w, "   - Application tab (Chrome) or Storage tab (Firefox)")
	fmt.Fprintln(w, "   - Cookies > https://x.com")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 4: Copy these values")
	fmt.Fprintln(w, "   auth_token   40 hex characters, the login session")
	fmt.Fprintln(w, "   ct0          long hex string, sent back as x-csrf-token")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TIPS:")
	fmt.Fprintln(w, "   - Copy only the value, without quotes or semicolons")
	fmt.Fprintln(w, "   - ct0 rotates; log in again if requests start failing with 403")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "WARNING: auth_token grants full access to the account. Never share it.")
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)
}

// ShowQuickExtractGuide writes a one-line version of the guide
func ShowQuickExtractGuide(w io.Writer) {
	fmt.Fprintln(w, "\nF12 > Application > Cookies > https://x.com")
	fmt.Fprintln(w, "   Need: auth_token=... and ct0=...")
	fmt.Fprintln(w, "   Type 'help' for detailed instructions")
}
