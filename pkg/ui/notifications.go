package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// CommandRunner runs an external command; exec by default
type CommandRunner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

type commandSender struct {
	run  CommandRunner
	goos string
}

func (c *commandSender) Send(title, message string) error {
	switch c.goos {
	case "linux":
		return c.run("notify-send", "--app-name=tweetkit", title, message)
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return c.run("osascript", "-e", script)
	case "windows":
		script := fmt.Sprintf(`[reflection.assembly]::loadwithpartialname('System.Windows.Forms') | Out-Null;`+
			`$n = New-Object System.Windows.Forms.NotifyIcon; $n.Icon = [System.Drawing.SystemIcons]::Information;`+
			`$n.Visible = $true; $n.ShowBalloonTip(5000, '%s', '%s', 'Info')`,
			psQuote(title), psQuote(message))
		return c.run("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	}
	return fmt.Errorf("desktop notifications are not supported on %s", c.goos)
}

func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Notifier prints a summary line and mirrors it as a desktop notification
// when enabled.
type Notifier struct {
	printer *Printer
	sender  NotificationSender
}

// NewNotifier creates a Notifier; desktop notifications are sent only when
// desktop is true.
func NewNotifier(printer *Printer, desktop bool) *Notifier {
	return newNotifier(printer, desktop, runtime.GOOS, execRunner)
}

func newNotifier(printer *Printer, desktop bool, goos string, run CommandRunner) *Notifier {
	n := &Notifier{printer: printer}
	if desktop {
		n.sender = &commandSender{run: run, goos: goos}
	}
	return n
}

// Success prints and sends a success notification
func (n *Notifier) Success(title, message string) {
	n.printer.Success(title + ": " + message)
	n.send(title, message)
}

// Failure prints and sends an error notification
func (n *Notifier) Failure(title, message string) {
	n.printer.Error(title, message)
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender == nil {
		return
	}
	// Notifications are best effort.
	_ = n.sender.Send(title, message)
}
