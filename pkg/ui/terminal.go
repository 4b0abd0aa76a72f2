package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

const logoText = "tweetkit · media uploads and timeline walks"

// Printer writes styled status lines. Quiet suppresses everything but errors.
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	errw  io.Writer
	quiet bool
}

// NewPrinter creates a Printer writing status to out and errors to errw
func NewPrinter(out, errw io.Writer) *Printer {
	return &Printer{out: out, errw: errw}
}

var std = NewPrinter(os.Stdout, os.Stderr)

// Default returns the package printer used by the Print helpers
func Default() *Printer { return std }

// SetOutput redirects the package printer
func SetOutput(out, errw io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.out, std.errw = out, errw
}

// SetQuiet toggles quiet mode on the package printer
func SetQuiet(quiet bool) { std.SetQuiet(quiet) }

func (p *Printer) SetQuiet(quiet bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quiet = quiet
}

func (p *Printer) Quiet() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quiet
}

// Out returns the status writer, or io.Discard in quiet mode
func (p *Printer) Out() io.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.quiet {
		return io.Discard
	}
	return p.out
}

func (p *Printer) println(toErr bool, s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if toErr {
		fmt.Fprintln(p.errw, s)
		return
	}
	if !p.quiet {
		fmt.Fprintln(p.out, s)
	}
}

func withArg(msg string, args []interface{}) string {
	if len(args) > 0 {
		return msg + ": " + fmt.Sprintf("%v", args[0])
	}
	return msg
}

func (p *Printer) Logo()                                   { p.println(false, logoStyle.Render(logoText)) }
func (p *Printer) Info(label, value string)                { p.println(false, Cyan(label)+": "+Yellow(value)) }
func (p *Printer) Success(msg string)                      { p.println(false, Green("✓ "+msg)) }
func (p *Printer) Warning(msg string, args ...interface{}) { p.println(false, warningStyle.Render(withArg(msg, args))) }
func (p *Printer) Error(msg string, args ...interface{})   { p.println(true, Red("✗ "+withArg(msg, args))) }
func (p *Printer) Highlight(msg string)                    { p.println(false, Magenta(msg)) }
func (p *Printer) Plain(msg string)                        { p.println(false, msg) }

// PrintLogo prints the banner
func PrintLogo() { std.Logo() }

// PrintError prints an error message; it is shown even in quiet mode
func PrintError(msg string, args ...interface{}) { std.Error(msg, args...) }

func PrintSuccess(msg string) { std.Success(msg) }

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) { std.Info(label, value) }

func PrintWarning(msg string, args ...interface{}) { std.Warning(msg, args...) }

func PrintHighlight(msg string) { std.Highlight(msg) }
