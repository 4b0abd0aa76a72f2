package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tweetkit/pkg/upload"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// UploadProgress renders upload progress reports. With a single upload it
// redraws one line; with several it prints a line per state change.
type UploadProgress struct {
	mu        sync.Mutex
	out       io.Writer
	multi     bool
	lastState map[string]upload.State
	started   time.Time
	done      int
	failed    int
}

func NewUploadProgress(out io.Writer, concurrent bool) *UploadProgress {
	return &UploadProgress{
		out:       out,
		multi:     concurrent,
		lastState: make(map[string]upload.State),
		started:   time.Now(),
	}
}

// Handle is an upload.ProgressFunc
func (u *UploadProgress) Handle(p upload.Progress) {
	u.mu.Lock()
	defer u.mu.Unlock()

	changed := u.lastState[p.Source] != p.State
	u.lastState[p.Source] = p.State

	line := FormatProgress(p)
	if u.multi {
		if changed || p.State == upload.StatePolling {
			fmt.Fprintln(u.out, line)
		}
		return
	}
	fmt.Fprintf(u.out, "\r%s\r%s", strings.Repeat(" ", 100), line)
	if p.State == upload.StateSucceeded || p.State == upload.StateFailed {
		fmt.Fprintln(u.out)
	}
}

// Finish records the outcome of one upload
func (u *UploadProgress) Finish(source, mediaID string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err != nil {
		u.failed++
		fmt.Fprintf(u.out, "%s %s: %v\n", Red("✗"), filepath.Base(source), err)
		return
	}
	u.done++
	fmt.Fprintf(u.out, "%s %s %s\n", Green("✓"), filepath.Base(source), Yellow(mediaID))
}

// Summary prints the totals
func (u *UploadProgress) Summary() {
	u.mu.Lock()
	defer u.mu.Unlock()

	fmt.Fprintf(u.out, "\n%s %d uploaded, %d failed in %s\n",
		Cyan("[UPLOAD]"), u.done, u.failed, FormatDuration(time.Since(u.started)))
}

// FormatProgress renders one progress report as a status line
func FormatProgress(p upload.Progress) string {
	name := filepath.Base(p.Source)
	switch p.State {
	case upload.StateInitialized, upload.StateAppended:
		return fmt.Sprintf("%s %s %s %s/%s", Cyan("[UPLOAD]"), name,
			Bar(p.BytesSent, p.TotalBytes), FormatBytes(p.BytesSent), FormatBytes(p.TotalBytes))
	case upload.StatePolling:
		return fmt.Sprintf("%s %s %s %d%%", Magenta("[PROCESSING]"), name, p.Processing, p.Percent)
	case upload.StateSucceeded:
		return fmt.Sprintf("%s %s %s", Green("[DONE]"), name, p.MediaID)
	case upload.StateFailed:
		return fmt.Sprintf("%s %s", Red("[FAILED]"), name)
	}
	return fmt.Sprintf("%s %s %s", Dim("[UPLOAD]"), name, p.State)
}

// Bar draws a fixed-width progress bar
func Bar(done, total int64) string {
	filled := 0
	if total > 0 {
		filled = int(float64(done) / float64(total) * barWidth)
	}
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + barStyle.Render(strings.Repeat(ProgressBar, filled)) +
		barEmptyStyle.Render(strings.Repeat(ProgressEmpty, barWidth-filled)) + "]"
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatDuration renders d rounded to the second
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
