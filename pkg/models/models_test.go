package models

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return m
}

const tweetResult = `{
  "__typename": "Tweet",
  "rest_id": "1780000000000000001",
  "views": {"count": "1523", "state": "EnabledWithCount"},
  "edit_control": {"edit_tweet_ids": ["1780000000000000001"]},
  "core": {"user_results": {"result": {
    "__typename": "User", "id": "VXNlcjox", "rest_id": "12",
    "is_blue_verified": true,
    "legacy": {"screen_name": "jack", "name": "jack", "followers_count": 6400000,
      "created_at": "Tue Mar 21 20:50:14 +0000 2006",
      "description": "see https://t.co/abc",
      "entities": {"description": {"urls": [{"url": "https://t.co/abc", "expanded_url": "https://example.com"}]},
                   "url": {"urls": [{"expanded_url": "https://jack.example"}]}}}
  }}},
  "legacy": {
    "created_at": "Wed Apr 17 10:00:00 +0000 2024",
    "full_text": "Read https://t.co/xyz &amp; look https://t.co/media",
    "lang": "en",
    "favorite_count": 10, "retweet_count": 2, "reply_count": 1, "quote_count": 0, "bookmark_count": 3,
    "favorited": true,
    "in_reply_to_status_id_str": "1779999999999999999",
    "in_reply_to_screen_name": "someone",
    "entities": {
      "hashtags": [{"text": "golang"}],
      "user_mentions": [{"screen_name": "someone"}],
      "urls": [{"url": "https://t.co/xyz", "expanded_url": "https://go.dev"}],
      "media": [{"url": "https://t.co/media"}]
    },
    "extended_entities": {"media": [
      {"type": "photo", "media_url_https": "https://pbs.twimg.com/media/a.jpg"},
      {"type": "video", "media_url_https": "https://pbs.twimg.com/thumb.jpg",
       "allow_download_status": {"allow_download": true},
       "video_info": {"variants": [
         {"content_type": "video/mp4", "bitrate": 2176000, "url": "https://video.twimg.com/high.mp4"},
         {"content_type": "application/x-mpegURL", "url": "https://video.twimg.com/pl.m3u8"},
         {"content_type": "video/mp4", "bitrate": 832000, "url": "https://video.twimg.com/low.mp4"}
       ]}}
    ]}
  }
}`

func TestNewTweet(t *testing.T) {
	tweet, ok := NewTweet(decode(t, tweetResult))
	require.True(t, ok)

	assert.Equal(t, "1780000000000000001", tweet.ID)
	assert.Equal(t, "Read https://go.dev & look", tweet.Text)
	assert.Equal(t, int64(1523), tweet.Views)
	assert.Equal(t, int64(10), tweet.FavoriteCount)
	assert.True(t, tweet.Favorited)
	assert.True(t, tweet.IsReply())
	assert.False(t, tweet.IsQuote())
	assert.Equal(t, []string{"golang"}, tweet.Hashtags)
	assert.Equal(t, []string{"https://go.dev"}, tweet.URLs)
	assert.Equal(t, time.Date(2024, 4, 17, 10, 0, 0, 0, time.UTC), tweet.CreatedAt)

	require.Len(t, tweet.Media, 2)
	assert.Equal(t, "https://pbs.twimg.com/media/a.jpg", tweet.Media[0].URL)
	assert.Equal(t, "https://video.twimg.com/high.mp4", tweet.Media[1].URL)
	assert.True(t, tweet.Media[1].AllowDownload)

	require.NotNil(t, tweet.Author)
	assert.Equal(t, "jack", tweet.Author.ScreenName)
	assert.Equal(t, "see https://example.com", tweet.Author.Description)
	assert.Equal(t, []string{"https://jack.example"}, tweet.Author.Websites)
	assert.True(t, tweet.Author.BlueVerified)
	assert.Equal(t, int64(6400000), tweet.Author.FollowersCount)
}

func TestNewTweetUnwrapsAndSkips(t *testing.T) {
	wrapped := decode(t, `{"__typename":"TweetWithVisibilityResults","tweet":{"rest_id":"5","legacy":{"full_text":"hi"}}}`)
	tweet, ok := NewTweet(wrapped)
	require.True(t, ok)
	assert.Equal(t, "5", tweet.ID)
	assert.Equal(t, "hi", tweet.Text)

	_, ok = NewTweet(decode(t, `{"__typename":"TweetTombstone","tombstone":{}}`))
	assert.False(t, ok)
	_, ok = NewTweet(nil)
	assert.False(t, ok)
}

func TestNewTweetNoteAndRetweet(t *testing.T) {
	raw := decode(t, `{
	  "rest_id": "9",
	  "note_tweet": {"note_tweet_results": {"result": {"text": "a very long post"}}},
	  "legacy": {"full_text": "a very lo…", "retweeted_status_result": {"result": {"rest_id": "8", "legacy": {"full_text": "original"}}}}
	}`)
	tweet, ok := NewTweet(raw)
	require.True(t, ok)
	assert.Equal(t, "a very long post", tweet.Text)
	require.NotNil(t, tweet.RetweetedTweet)
	assert.Equal(t, "original", tweet.RetweetedTweet.Text)
}

func TestBestVariantFallsBackToLast(t *testing.T) {
	variants := []map[string]any{
		{"content_type": "application/x-mpegURL", "url": "a"},
		{"content_type": "application/x-mpegURL", "url": "b"},
	}
	assert.Equal(t, "b", bestVariant(variants))
	assert.Empty(t, bestVariant(nil))
}

func TestNewUserCoreFallback(t *testing.T) {
	u, ok := NewUser(decode(t, `{"rest_id":"44","core":{"screen_name":"gopher","name":"Gopher","created_at":"Tue Mar 21 20:50:14 +0000 2006"},"legacy":{"followers_count":"7"}}`))
	require.True(t, ok)
	assert.Equal(t, "gopher", u.ScreenName)
	assert.Equal(t, "Gopher", u.Name)
	assert.Equal(t, int64(7), u.FollowersCount)
	assert.Equal(t, 2006, u.CreatedAt.Year())

	_, ok = NewUser(decode(t, `{"__typename":"UserUnavailable"}`))
	assert.False(t, ok)
}

func TestNewList(t *testing.T) {
	l, ok := NewList(decode(t, `{
	  "id": "TGlzdDox", "id_str": "1500", "name": "Go people", "member_count": 42, "subscriber_count": 7,
	  "mode": "Public", "created_at": 1700000000000,
	  "default_banner_media": {"media_info": {"original_img_url": "https://pbs.twimg.com/default.png"}},
	  "user_results": {"result": {"rest_id": "12", "legacy": {"screen_name": "jack"}}}
	}`))
	require.True(t, ok)
	assert.Equal(t, "1500", l.ID)
	assert.Equal(t, int64(42), l.MemberCount)
	assert.Equal(t, "https://pbs.twimg.com/default.png", l.BannerURL)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), l.CreatedAt)
	require.NotNil(t, l.Owner)
	assert.Equal(t, "jack", l.Owner.ScreenName)

	_, ok = NewList(decode(t, `{"name":"no id"}`))
	assert.False(t, ok)
}

func TestNotificationsFromGlobalObjects(t *testing.T) {
	doc := decode(t, `{"globalObjects": {"notifications": {
	  "a": {"id": "a", "timestampMs": "1700000000000", "icon": {"id": "heart_icon"},
	        "message": {"text": "jack liked your post"},
	        "template": {"aggregateUserActionsV1": {
	          "targetObjects": [{"tweet": {"id": "111"}}],
	          "fromUsers": [{"user": {"id": "12"}}, {"user": {"id": "13"}}],
	          "additionalContext": {"contextText": {"text": "and 1 other"}}}}},
	  "b": {"id": "b", "timestampMs": "1700000005000", "message": {"text": "newer"}},
	  "c": {"id": "c", "timestampMs": "1700000000000", "message": {"text": "same time as a"}},
	  "broken": "not an object"
	}, "tweets": {
	  "111": {"id_str": "111", "full_text": "old", "user_id_str": "1", "created_at": "Wed Apr 17 10:00:00 +0000 2024"},
	  "112": {"id_str": "112", "full_text": "new", "created_at": "Thu Apr 18 10:00:00 +0000 2024"}
	}}}`)

	ns := NotificationsFromGlobalObjects(doc)
	require.Len(t, ns, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{ns[0].ID, ns[1].ID, ns[2].ID})

	a := ns[2]
	assert.Equal(t, "heart_icon", a.Icon)
	assert.Equal(t, []string{"111"}, a.TweetIDs)
	assert.Equal(t, []string{"12", "13"}, a.FromUserIDs)
	assert.Equal(t, "and 1 other", a.Context)

	tweets := TweetsFromGlobalObjects(doc)
	require.Len(t, tweets, 2)
	assert.Equal(t, "112", tweets[0].ID)
	assert.Equal(t, "1", tweets[1].Author.ID)

	assert.Empty(t, NotificationsFromGlobalObjects(map[string]any{}))
}

func TestNumHelpers(t *testing.T) {
	m := map[string]any{"n": json.Number("12"), "f": 3.0, "s": "44", "bad": "x", "big": json.Number("1.5e3")}
	assert.Equal(t, int64(12), num(m, "n"))
	assert.Equal(t, int64(3), num(m, "f"))
	assert.Equal(t, int64(44), num(m, "s"))
	assert.Zero(t, num(m, "bad"))
	assert.Zero(t, num(m, "missing"))
	assert.Equal(t, int64(1500), num(m, "big"))
}
