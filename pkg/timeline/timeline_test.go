package timeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	errs "tweetkit/pkg/errors"
	"tweetkit/pkg/logger"
	"tweetkit/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func tweetItem(id string) string {
	return fmt.Sprintf(`{"itemContent": {"tweet_results": {"result": {"rest_id": %q, "legacy": {"full_text": "post %s"}}}}}`, id, id)
}

func userItem(id string) string {
	return fmt.Sprintf(`{"itemContent": {"user_results": {"result": {"rest_id": %q, "legacy": {"screen_name": "u%s"}}}}}`, id, id)
}

func cursor(value string) string {
	return fmt.Sprintf(`{"entryId": "cursor-%s", "content": {"value": %q}}`, value, value)
}

func leaf(entryID, content string) string {
	return fmt.Sprintf(`{"entryId": %q, "content": %s}`, entryID, content)
}

func module(entryID string, items ...string) string {
	wrapped := ""
	for i, it := range items {
		if i > 0 {
			wrapped += ","
		}
		wrapped += fmt.Sprintf(`{"item": %s}`, it)
	}
	return fmt.Sprintf(`{"entryId": %q, "content": {"items": [%s]}}`, entryID, wrapped)
}

func listing(entries ...string) string {
	body := ""
	for i, e := range entries {
		if i > 0 {
			body += ","
		}
		body += e
	}
	return fmt.Sprintf(`{"data": {"timeline": {"instructions": [
		{"type": "TimelineClearCache"},
		{"type": "TimelineAddEntries", "entries": [%s]}
	]}}}`, body)
}

var testPath = Keys("data", "timeline", "instructions").Then(Find("entries"))

func tweetIDs(p Page) []string {
	ids := make([]string, len(p.Tweets))
	for i, t := range p.Tweets {
		ids[i] = t.ID
	}
	return ids
}

func TestPathLookup(t *testing.T) {
	doc := decode(t, `{"a": {"b": [{"x": 1}, {"y": [10, 20, 30]}]}}`)

	v, ok := Keys("a", "b").Then(Find("y"), Index(-1)).Lookup(doc)
	require.True(t, ok)
	assert.Equal(t, json.Number("30"), v)

	_, ok = Keys("a", "missing").Lookup(doc)
	assert.False(t, ok)
	_, ok = Keys("a", "b").Then(Index(5)).Lookup(doc)
	assert.False(t, ok)
	_, ok = Keys("a", "b", "c").Lookup(doc)
	assert.False(t, ok, "key step on an array")

	assert.Equal(t, "a.b.[?y].[-1]", Keys("a", "b").Then(Find("y"), Index(-1)).String())
}

func TestExtractOrderWithModules(t *testing.T) {
	doc := decode(t, listing(
		leaf("tweet-A", tweetItem("A")),
		module("profile-conversation-1", tweetItem("B"), tweetItem("C")),
		cursor("prev"),
		cursor("next"),
	))

	page, err := Extract(doc, Config{Path: testPath, CursorOrder: LastIsNext, Classify: TweetClassifier})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, tweetIDs(page))
	assert.Equal(t, "post B", page.Tweets[1].Text)
	assert.Equal(t, "next", page.NextCursor)
	assert.Equal(t, "prev", page.PreviousCursor)
	assert.True(t, page.HasNext())
	assert.Equal(t, 3, page.Len())
}

func TestExtractCursorOrders(t *testing.T) {
	raw := listing(leaf("tweet-1", tweetItem("1")), cursor("x"), cursor("y"))

	tests := []struct {
		name       string
		order      CursorOrder
		next, prev string
		ids        []string
	}{
		{"last is next", LastIsNext, "y", "x", []string{"1"}},
		{"last is previous", LastIsPrevious, "x", "y", []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Extract(decode(t, raw), Config{Path: testPath, CursorOrder: tt.order})
			require.NoError(t, err)
			assert.Equal(t, tt.next, page.NextCursor)
			assert.Equal(t, tt.prev, page.PreviousCursor)
			assert.Equal(t, tt.ids, tweetIDs(page))
		})
	}
}

func TestExtractFirstIsNext(t *testing.T) {
	doc := decode(t, listing(cursor("top"), leaf("tweet-1", tweetItem("1")), leaf("tweet-2", tweetItem("2")), cursor("bottom")))

	page, err := Extract(doc, Config{Path: testPath, CursorOrder: FirstIsNext})
	require.NoError(t, err)
	assert.Equal(t, "top", page.NextCursor)
	assert.Equal(t, "bottom", page.PreviousCursor)
	assert.Equal(t, []string{"1", "2"}, tweetIDs(page))
}

func TestExtractMissingPathIsEmpty(t *testing.T) {
	docs := []string{
		`{}`,
		`{"data": {}}`,
		`{"data": {"timeline": {"instructions": [{"type": "TimelineClearCache"}]}}}`,
		`{"data": {"timeline": {"instructions": []}}}`,
		`{"data": {"timeline": {"instructions": [{"entries": null}]}}}`,
	}
	for _, raw := range docs {
		page, err := Extract(decode(t, raw), Config{Path: testPath})
		require.NoError(t, err, raw)
		assert.Zero(t, page.Len(), raw)
		assert.False(t, page.HasNext(), raw)
	}
}

func TestExtractEntriesNotArray(t *testing.T) {
	doc := decode(t, `{"data": {"timeline": {"instructions": [{"entries": {"oops": true}}]}}}`)
	_, err := Extract(doc, Config{Path: testPath})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeFormat))
}

func TestExtractSkipsMalformed(t *testing.T) {
	doc := decode(t, listing(
		`"not an object"`,
		`{"entryId": "no-content"}`,
		leaf("tweet-1", tweetItem("1")),
		leaf("tweet-tombstone", `{"itemContent": {"tweet_results": {}}}`),
		module("conversation", `{"nope": 1}`, tweetItem("2")),
		leaf("who-to-follow", `{"itemContent": {"itemType": "TimelineMessagePrompt"}}`),
		cursor("p"),
		cursor("n"),
	))

	page, err := Extract(doc, Config{Path: testPath})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tweetIDs(page))
	assert.Equal(t, "n", page.NextCursor)
}

func TestExtractIsPureAndIdempotent(t *testing.T) {
	raw := listing(leaf("tweet-1", tweetItem("1")), module("m", tweetItem("2")), cursor("p"), cursor("n"))
	doc := decode(t, raw)
	before, err := json.Marshal(doc)
	require.NoError(t, err)

	cfg := Config{Path: testPath}
	first, err := Extract(doc, cfg)
	require.NoError(t, err)
	second, err := Extract(doc, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	after, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestExtractSingleEntryIsNextCursor(t *testing.T) {
	page, err := Extract(decode(t, listing(cursor("only"))), Config{Path: testPath})
	require.NoError(t, err)
	assert.Equal(t, "only", page.NextCursor)
	assert.Empty(t, page.PreviousCursor)
	assert.Zero(t, page.Len())
}

func TestExtractOnlyCursors(t *testing.T) {
	page, err := Extract(decode(t, listing(cursor("p"), cursor("n"))), Config{Path: testPath})
	require.NoError(t, err)
	assert.Zero(t, page.Len())
	assert.Equal(t, "n", page.NextCursor)
}

func TestSearchClassifierRoutesByEntryID(t *testing.T) {
	list := `{"itemContent": {"list": {"id_str": "77", "name": "gophers", "member_count": 4}}}`
	doc := decode(t, listing(
		leaf("tweet-1", tweetItem("1")),
		leaf("user-2", userItem("2")),
		module("UserModule-abc", userItem("3")),
		module("list-search-0", list),
		cursor("p"),
		cursor("n"),
	))

	page, err := Extract(doc, Config{Path: testPath, Classify: SearchClassifier})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, tweetIDs(page))
	require.Len(t, page.Users, 2)
	assert.Equal(t, "2", page.Users[0].ID)
	assert.Equal(t, "u3", page.Users[1].ScreenName)
	require.Len(t, page.Lists, 1)
	assert.Equal(t, "gophers", page.Lists[0].Name)
}

func TestSearchClassifierFallsBackToContentShape(t *testing.T) {
	list := `{"itemContent": {"list": {"id_str": "78", "name": "rustaceans", "member_count": 2}}}`
	doc := decode(t, listing(
		leaf("tweet-1", userItem("1")),
		leaf("entry-2", list),
		leaf("user-3", tweetItem("3")),
		leaf("entry-4", `{"itemContent": {"unknown": {}}}`),
		cursor("p"),
		cursor("n"),
	))

	page, err := Extract(doc, Config{Path: testPath, Classify: SearchClassifier})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "u1", page.Users[0].ScreenName)
	require.Len(t, page.Lists, 1)
	assert.Equal(t, "rustaceans", page.Lists[0].Name)
	assert.Equal(t, []string{"3"}, tweetIDs(page))
}

func TestUserClassifierIgnoresTweets(t *testing.T) {
	doc := decode(t, listing(leaf("user-1", userItem("1")), leaf("tweet-2", tweetItem("2")), cursor("p"), cursor("n")))
	page, err := Extract(doc, Config{Path: testPath, CursorOrder: LastIsPrevious, Classify: UserClassifier})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Empty(t, page.Tweets)
	assert.Equal(t, "p", page.NextCursor)
}

func TestParseEntry(t *testing.T) {
	e, ok := ParseEntry(decode(t, module("m", tweetItem("1"), tweetItem("2"))))
	require.True(t, ok)
	assert.Equal(t, EntryModule, e.Kind)
	assert.Len(t, e.Items, 2)

	e, ok = ParseEntry(decode(t, leaf("l", tweetItem("1"))))
	require.True(t, ok)
	assert.Equal(t, EntryLeaf, e.Kind)
	assert.Equal(t, "l", e.ID)

	_, ok = ParseEntry(decode(t, `[1, 2]`))
	assert.False(t, ok)
}

func pages(cursors ...string) map[string]Page {
	out := map[string]Page{}
	prev := ""
	for i, c := range cursors {
		out[prev] = Page{
			Tweets:     tweetsFor(i),
			NextCursor: c,
		}
		prev = c
	}
	return out
}

func tweetsFor(i int) []models.Tweet {
	return []models.Tweet{{ID: fmt.Sprint(i)}}
}

func TestWalkerStopsOnEmptyCursor(t *testing.T) {
	script := pages("c1", "c2", "")
	var seen []string
	w := &Walker{
		Listing: "test",
		Fetch: func(ctx context.Context, cursor string) (Page, error) {
			seen = append(seen, cursor)
			return script[cursor], nil
		},
		Logger: logger.NewTestLogger(),
	}

	res, err := w.Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"", "c1", "c2"}, seen)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 3, res.Entities)
	assert.True(t, res.Exhausted)
	assert.Equal(t, "c2", res.Cursor)
}

func TestWalkerStopsOnRepeatedCursor(t *testing.T) {
	calls := 0
	w := &Walker{
		Fetch: func(ctx context.Context, cursor string) (Page, error) {
			calls++
			return Page{Tweets: tweetsFor(calls), NextCursor: "same"}, nil
		},
		Logger: logger.NewNopLogger(),
	}
	res, err := w.Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, res.Exhausted)
}

func TestWalkerMaxPagesAndResume(t *testing.T) {
	script := pages("c1", "c2", "c3", "")
	w := &Walker{
		Fetch: func(ctx context.Context, cursor string) (Page, error) {
			return script[cursor], nil
		},
		MaxPages: 2,
		Logger:   logger.NewNopLogger(),
	}
	res, err := w.Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.False(t, res.Exhausted)
	assert.Equal(t, "c2", res.Cursor)

	w.StartCursor = res.Cursor
	w.MaxPages = 0
	res, err = w.Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.True(t, res.Exhausted)
}

func TestWalkerStopsOnEmptyPage(t *testing.T) {
	w := &Walker{
		Fetch: func(ctx context.Context, cursor string) (Page, error) {
			return Page{NextCursor: cursor + "x"}, nil
		},
		Logger: logger.NewNopLogger(),
	}
	res, err := w.Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "x", res.Cursor)
}

func TestWalkerErrors(t *testing.T) {
	boom := errors.New("boom")
	w := &Walker{
		Listing: "likes",
		Fetch: func(ctx context.Context, cursor string) (Page, error) {
			return Page{}, boom
		},
		Logger: logger.NewNopLogger(),
	}
	_, err := w.Walk(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "likes page 1")

	stop := errors.New("stop")
	w.Fetch = func(ctx context.Context, cursor string) (Page, error) {
		return Page{Tweets: tweetsFor(1), NextCursor: "n" + cursor}, nil
	}
	w.OnPage = func(n int, p Page) error { return stop }
	res, err := w.Walk(context.Background())
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, res.Pages)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.OnPage = nil
	_, err = w.Walk(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = (&Walker{}).Walk(context.Background())
	assert.Error(t, err)
}

func TestExtractUnpaged(t *testing.T) {
	doc := decode(t, listing(leaf("tweet-1", tweetItem("1")), module("conversationthread-2", tweetItem("2")), cursor("bottom")))
	page, err := Extract(doc, Config{Path: testPath, CursorOrder: Unpaged})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tweetIDs(page))
	assert.False(t, page.HasNext())
}
