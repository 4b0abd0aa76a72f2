package models

import (
	"sort"
	"time"
)

// Notification is an entry of globalObjects.notifications
type Notification struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Icon        string    `json:"icon,omitempty"`
	Message     string    `json:"message"`
	TweetIDs    []string  `json:"tweet_ids,omitempty"`
	FromUserIDs []string  `json:"from_user_ids,omitempty"`
	Context     string    `json:"context,omitempty"`
}

func NewNotification(obj map[string]any) (*Notification, bool) {
	id := str(obj, "id")
	if id == "" {
		return nil, false
	}
	n := &Notification{
		ID:        id,
		Timestamp: fromMillis(num(obj, "timestampMs")),
		Icon:      str(dig(obj, "icon"), "id"),
		Message:   str(dig(obj, "message"), "text"),
	}

	actions := dig(obj, "template", "aggregateUserActionsV1")
	for _, target := range objects(actions, "targetObjects") {
		if tid := str(dig(target, "tweet"), "id"); tid != "" {
			n.TweetIDs = append(n.TweetIDs, tid)
		}
	}
	for _, from := range objects(actions, "fromUsers") {
		if uid := str(dig(from, "user"), "id"); uid != "" {
			n.FromUserIDs = append(n.FromUserIDs, uid)
		}
	}
	n.Context = str(dig(actions, "additionalContext", "contextText"), "text")
	return n, true
}

// NotificationsFromGlobalObjects reads every notification of a
// notifications/*.json response, newest first.
func NotificationsFromGlobalObjects(doc map[string]any) []Notification {
	raw := dig(doc, "globalObjects", "notifications")
	out := make([]Notification, 0, len(raw))
	for _, v := range raw {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if n, ok := NewNotification(obj); ok {
			out = append(out, *n)
		}
	}
	SortNotificationsByRecency(out)
	return out
}

// TweetsFromGlobalObjects reads globalObjects.tweets, newest first.
func TweetsFromGlobalObjects(doc map[string]any) []Tweet {
	raw := dig(doc, "globalObjects", "tweets")
	out := make([]Tweet, 0, len(raw))
	for _, v := range raw {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if t, ok := NewLegacyTweet(obj); ok {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// SortNotificationsByRecency orders notifications newest first. Ties are
// broken by id so the order is stable across map iteration.
func SortNotificationsByRecency(ns []Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		if !ns[i].Timestamp.Equal(ns[j].Timestamp) {
			return ns[i].Timestamp.After(ns[j].Timestamp)
		}
		return ns[i].ID > ns[j].ID
	})
}
