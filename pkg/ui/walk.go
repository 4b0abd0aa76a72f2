package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"tweetkit/pkg/models"
	"tweetkit/pkg/timeline"
)

// WalkTracker reports the progress of a listing walk
type WalkTracker struct {
	out      io.Writer
	listing  string
	pages    int
	entities int
	start    time.Time
}

func NewWalkTracker(out io.Writer, listing string) *WalkTracker {
	return &WalkTracker{out: out, listing: listing, start: time.Now()}
}

// Page records one fetched page
func (w *WalkTracker) Page(n int, p timeline.Page) {
	w.pages = n
	w.entities += p.Len()
	fmt.Fprintf(w.out, "%s %s page %d: %d entities (total %d)\n",
		Magenta("[SCANNING]"), w.listing, n, p.Len(), w.entities)
}

// Done prints the walk summary
func (w *WalkTracker) Done(res timeline.Result) {
	state := "stopped"
	if res.Exhausted {
		state = "exhausted"
	}
	fmt.Fprintf(w.out, "%s %s %s after %d pages, %d entities in %s\n",
		Green("[DONE]"), w.listing, state, res.Pages, res.Entities, FormatDuration(time.Since(w.start)))
	if !res.Exhausted && res.Cursor != "" {
		fmt.Fprintf(w.out, "  %s %s\n", Dim("resume cursor:"), res.Cursor)
	}
}

// PrintPage writes one line per entity of the page
func PrintPage(out io.Writer, p timeline.Page) {
	for i := range p.Tweets {
		fmt.Fprintln(out, FormatTweet(&p.Tweets[i]))
	}
	for i := range p.Users {
		fmt.Fprintln(out, FormatUser(&p.Users[i]))
	}
	for i := range p.Lists {
		fmt.Fprintln(out, FormatList(&p.Lists[i]))
	}
}

func FormatTweet(t *models.Tweet) string {
	author := "?"
	if t.Author != nil {
		author = "@" + t.Author.ScreenName
	}
	return fmt.Sprintf("%s %s %s %s", Dim(t.ID), Cyan(author), oneLine(t.Text, 100),
		Dim(fmt.Sprintf("♥ %d ↻ %d", t.FavoriteCount, t.RetweetCount)))
}

func FormatUser(u *models.User) string {
	return fmt.Sprintf("%s %s %s %s", Dim(u.ID), Cyan("@"+u.ScreenName), u.Name,
		Dim(fmt.Sprintf("%d followers", u.FollowersCount)))
}

func FormatList(l *models.List) string {
	return fmt.Sprintf("%s %s %s", Dim(l.ID), Cyan(l.Name), Dim(fmt.Sprintf("%d members", l.MemberCount)))
}

func FormatNotification(n *models.Notification) string {
	return fmt.Sprintf("%s %s", Dim(n.ID), oneLine(n.Message, 120))
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}
