package timeline

import (
	"strings"

	errs "tweetkit/pkg/errors"
	"tweetkit/pkg/models"
)

// CursorOrder says which raw entries carry the pagination cursors.
type CursorOrder int

const (
	// LastIsNext: entries[-1] is the next cursor, entries[-2] the previous one.
	LastIsNext CursorOrder = iota
	// LastIsPrevious: entries[-2] is the next cursor, entries[-1] the previous one.
	LastIsPrevious
	// FirstIsNext: entries[0] is the next cursor, entries[-1] the previous one.
	FirstIsNext
	// Unpaged: no sentinels, every entry is content.
	Unpaged
)

// Kind of an extracted entity
type Kind int

const (
	KindTweet Kind = iota
	KindUser
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindTweet:
		return "tweet"
	case KindUser:
		return "user"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Entity is one extracted object; the field matching Kind is set.
type Entity struct {
	Kind  Kind
	Tweet *models.Tweet
	User  *models.User
	List  *models.List
}

// Classifier turns the object holding itemContent into an entity. entryID is
// the id of the enclosing entry. It returns false for anything it does not
// recognise, and must not modify content.
type Classifier func(entryID string, content map[string]any) (Entity, bool)

// Config tells Extract where a listing keeps its entries and how to read them.
type Config struct {
	Path        Path
	CursorOrder CursorOrder
	Classify    Classifier
}

// Page is the result of one listing response
type Page struct {
	Tweets         []models.Tweet
	Users          []models.User
	Lists          []models.List
	NextCursor     string
	PreviousCursor string
}

// Len is the number of entities of every kind
func (p Page) Len() int {
	return len(p.Tweets) + len(p.Users) + len(p.Lists)
}

// HasNext reports whether another page can be requested
func (p Page) HasNext() bool {
	return p.NextCursor != ""
}

func (p *Page) add(e Entity) {
	switch {
	case e.Kind == KindTweet && e.Tweet != nil:
		p.Tweets = append(p.Tweets, *e.Tweet)
	case e.Kind == KindUser && e.User != nil:
		p.Users = append(p.Users, *e.User)
	case e.Kind == KindList && e.List != nil:
		p.Lists = append(p.Lists, *e.List)
	}
}

// EntryKind tells a single-item entry from a module of items
type EntryKind int

const (
	EntryLeaf EntryKind = iota
	EntryModule
)

// Entry is one element of a timeline's entries array. A Leaf carries its
// content directly; a Module carries content.items[].item in order.
type Entry struct {
	ID      string
	Kind    EntryKind
	Content map[string]any
	Items   []map[string]any
}

// ParseEntry reads one raw entry. It reports false for values that are not
// objects or have no content object.
func ParseEntry(raw any) (Entry, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Entry{}, false
	}
	content, ok := obj["content"].(map[string]any)
	if !ok {
		return Entry{}, false
	}
	id, _ := obj["entryId"].(string)

	items, _ := content["items"].([]any)
	if len(items) == 0 {
		return Entry{ID: id, Kind: EntryLeaf, Content: content}, true
	}

	e := Entry{ID: id, Kind: EntryModule, Content: content}
	for _, it := range items {
		wrapper, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if item, ok := wrapper["item"].(map[string]any); ok {
			e.Items = append(e.Items, item)
		}
	}
	return e, true
}

// cursorValue reads content.value of a sentinel entry.
func cursorValue(raw any) string {
	obj, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	content, ok := obj["content"].(map[string]any)
	if !ok {
		return ""
	}
	v, _ := content["value"].(string)
	return v
}

// Extract reads one listing response. A missing path yields an empty page
// and no error; a present entries value that is not an array is a format
// error. Malformed entries and items are skipped. doc is never modified.
func Extract(doc any, cfg Config) (Page, error) {
	var page Page

	raw, ok := cfg.Path.Lookup(doc)
	if !ok || raw == nil {
		return page, nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return page, errs.Format("timeline", "entries at %s is %T, not an array", cfg.Path, raw)
	}

	body := splitCursors(entries, cfg.CursorOrder, &page)

	classify := cfg.Classify
	if classify == nil {
		classify = TweetClassifier
	}
	for _, raw := range body {
		entry, ok := ParseEntry(raw)
		if !ok {
			continue
		}
		if entry.Kind == EntryLeaf {
			if e, ok := classify(entry.ID, entry.Content); ok {
				page.add(e)
			}
			continue
		}
		for _, item := range entry.Items {
			if e, ok := classify(entry.ID, item); ok {
				page.add(e)
			}
		}
	}
	return page, nil
}

// splitCursors fills the page cursors from the sentinel entries and returns
// the content entries. A lone entry is the next-cursor sentinel.
func splitCursors(entries []any, order CursorOrder, page *Page) []any {
	if order == Unpaged {
		return entries
	}
	n := len(entries)
	switch {
	case n == 0:
		return nil
	case n == 1:
		page.NextCursor = cursorValue(entries[0])
		return nil
	}

	switch order {
	case LastIsPrevious:
		page.NextCursor = cursorValue(entries[n-2])
		page.PreviousCursor = cursorValue(entries[n-1])
		return entries[:n-2]
	case FirstIsNext:
		page.NextCursor = cursorValue(entries[0])
		page.PreviousCursor = cursorValue(entries[n-1])
		return entries[1 : n-1]
	default:
		page.NextCursor = cursorValue(entries[n-1])
		page.PreviousCursor = cursorValue(entries[n-2])
		return entries[:n-2]
	}
}

func itemContent(content map[string]any) map[string]any {
	ic, _ := content["itemContent"].(map[string]any)
	return ic
}

func result(ic map[string]any, key string) map[string]any {
	holder, _ := ic[key].(map[string]any)
	r, _ := holder["result"].(map[string]any)
	return r
}

// TweetClassifier reads itemContent.tweet_results.result
func TweetClassifier(_ string, content map[string]any) (Entity, bool) {
	t, ok := models.NewTweet(result(itemContent(content), "tweet_results"))
	if !ok {
		return Entity{}, false
	}
	return Entity{Kind: KindTweet, Tweet: t}, true
}

// UserClassifier reads itemContent.user_results.result
func UserClassifier(_ string, content map[string]any) (Entity, bool) {
	u, ok := models.NewUser(result(itemContent(content), "user_results"))
	if !ok {
		return Entity{}, false
	}
	return Entity{Kind: KindUser, User: u}, true
}

// ListClassifier reads itemContent.list
func ListClassifier(_ string, content map[string]any) (Entity, bool) {
	obj, _ := itemContent(content)["list"].(map[string]any)
	l, ok := models.NewList(obj)
	if !ok {
		return Entity{}, false
	}
	return Entity{Kind: KindList, List: l}, true
}

// SearchClassifier routes by the entry id first: ids mentioning "user" hold
// accounts and ids mentioning "list" hold lists. Entries without a usable
// hint are classified by content shape, posts before accounts before lists.
func SearchClassifier(entryID string, content map[string]any) (Entity, bool) {
	id := strings.ToLower(entryID)
	switch {
	case strings.Contains(id, "user"):
		if e, ok := UserClassifier(entryID, content); ok {
			return e, true
		}
	case strings.Contains(id, "list"):
		if e, ok := ListClassifier(entryID, content); ok {
			return e, true
		}
	}
	for _, classify := range []Classifier{TweetClassifier, UserClassifier, ListClassifier} {
		if e, ok := classify(entryID, content); ok {
			return e, true
		}
	}
	return Entity{}, false
}
