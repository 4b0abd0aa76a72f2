package twitter

import (
	"context"
	"net/http"
	"net/url"

	errs "tweetkit/pkg/errors"
	"tweetkit/pkg/models"
	"tweetkit/pkg/timeline"
	"tweetkit/pkg/transport"
)

// NotificationKind selects a notifications tab
type NotificationKind string

const (
	NotificationsAll      NotificationKind = "all"
	NotificationsVerified NotificationKind = "verified"
	NotificationsMentions NotificationKind = "mentions"
)

// ParseNotificationKind validates a tab name
func ParseNotificationKind(s string) (NotificationKind, error) {
	switch k := NotificationKind(s); k {
	case NotificationsAll, NotificationsVerified, NotificationsMentions:
		return k, nil
	}
	return "", errs.Validation("notifications", "unknown notifications tab %q", s)
}

// NotificationPage is one page of a notifications tab. The embedded page
// holds the posts referenced by the notifications; for mentions those posts
// are the content itself.
type NotificationPage struct {
	timeline.Page
	Notifications []models.Notification
}

// Notification timelines keep entities in globalObjects; the entries only
// carry the cursors, first entry next and last entry previous.
var notificationCursors = timeline.Config{
	Path:        timeline.Keys("timeline", "instructions").Then(timeline.Find("addEntries"), timeline.Key("entries")),
	CursorOrder: timeline.FirstIsNext,
	Classify: func(string, map[string]any) (timeline.Entity, bool) {
		return timeline.Entity{}, false
	},
}

// Notifications fetches one page of a notifications tab, newest first
func (c *Client) Notifications(ctx context.Context, kind NotificationKind, cursor string) (NotificationPage, error) {
	if _, err := ParseNotificationKind(string(kind)); err != nil {
		return NotificationPage{}, err
	}

	q := url.Values{}
	for k, v := range notificationParams() {
		q.Set(k, v)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	doc, err := c.get(ctx, transport.Request{
		Op:     "notifications/" + string(kind),
		Method: http.MethodGet,
		URL:    c.apiBase + "/2/notifications/" + string(kind) + ".json",
		Query:  q,
	})
	if err != nil {
		return NotificationPage{}, err
	}

	page, err := timeline.Extract(doc, notificationCursors)
	if err != nil {
		return NotificationPage{}, err
	}
	page.Tweets = models.TweetsFromGlobalObjects(doc)

	np := NotificationPage{Page: page}
	if kind != NotificationsMentions {
		np.Notifications = models.NotificationsFromGlobalObjects(doc)
	}
	return np, nil
}

// NotificationWalker walks a notifications tab page by page. onPage receives
// every page including its notifications.
func (c *Client) NotificationWalker(kind NotificationKind, onPage func(n int, p NotificationPage) error) *timeline.Walker {
	count := 0
	return &timeline.Walker{
		Listing: "notifications-" + string(kind),
		Fetch: func(ctx context.Context, cursor string) (timeline.Page, error) {
			np, err := c.Notifications(ctx, kind, cursor)
			if err != nil {
				return timeline.Page{}, err
			}
			count++
			if onPage != nil {
				if err := onPage(count, np); err != nil {
					return timeline.Page{}, err
				}
			}
			return np.Page, nil
		},
		Logger: c.logger,
	}
}
