package models

import (
	"html"
	"strings"
	"time"
)

// Tweet is a post as returned under tweet_results.result
type Tweet struct {
	ID        string    `json:"id"`
	Author    *User     `json:"author,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Lang      string    `json:"lang,omitempty"`

	Views         int64 `json:"views"`
	FavoriteCount int64 `json:"favorite_count"`
	RetweetCount  int64 `json:"retweet_count"`
	ReplyCount    int64 `json:"reply_count"`
	QuoteCount    int64 `json:"quote_count"`
	BookmarkCount int64 `json:"bookmark_count"`

	Favorited         bool `json:"favorited"`
	Retweeted         bool `json:"retweeted"`
	Bookmarked        bool `json:"bookmarked"`
	PossiblySensitive bool `json:"possibly_sensitive"`

	Hashtags []string `json:"hashtags,omitempty"`
	Mentions []string `json:"mentions,omitempty"`
	URLs     []string `json:"urls,omitempty"`
	Media    []Media  `json:"media,omitempty"`

	InReplyToTweetID    string `json:"in_reply_to_tweet_id,omitempty"`
	InReplyToUserID     string `json:"in_reply_to_user_id,omitempty"`
	InReplyToScreenName string `json:"in_reply_to_screen_name,omitempty"`

	QuotedTweetID  string `json:"quoted_tweet_id,omitempty"`
	QuotedTweet    *Tweet `json:"quoted_tweet,omitempty"`
	RetweetedTweet *Tweet `json:"retweeted_tweet,omitempty"`

	EditTweetIDs []string `json:"edit_tweet_ids,omitempty"`
}

// Media is one attachment. URL is the image URL, or the best video variant
// for videos and animated gifs.
type Media struct {
	Type          string `json:"type"`
	URL           string `json:"url"`
	AllowDownload bool   `json:"allow_download"`
}

func (t *Tweet) IsReply() bool { return t.InReplyToTweetID != "" }
func (t *Tweet) IsQuote() bool { return t.QuotedTweetID != "" }

// NewTweet builds a Tweet from a tweet_results.result object. Tombstones and
// objects without a rest_id yield false.
func NewTweet(result map[string]any) (*Tweet, bool) {
	if result == nil {
		return nil, false
	}
	if str(result, "__typename") == "TweetWithVisibilityResults" {
		result = dig(result, "tweet")
		if result == nil {
			return nil, false
		}
	}
	id := str(result, "rest_id")
	if id == "" {
		return nil, false
	}

	t := &Tweet{ID: id, Views: num(dig(result, "views"), "count")}
	if author, ok := NewUser(dig(result, "core", "user_results", "result")); ok {
		t.Author = author
	}
	if edit := dig(result, "edit_control"); edit != nil {
		t.EditTweetIDs = stringList(edit, "edit_tweet_ids")
	}
	if quoted, ok := NewTweet(dig(result, "quoted_status_result", "result")); ok {
		t.QuotedTweet = quoted
	}

	legacy := dig(result, "legacy")
	if legacy == nil {
		return t, true
	}
	t.applyLegacy(legacy)
	if retweeted, ok := NewTweet(dig(legacy, "retweeted_status_result", "result")); ok {
		t.RetweetedTweet = retweeted
	}

	// Long posts carry their full text outside legacy.
	if note := dig(result, "note_tweet", "note_tweet_results", "result"); note != nil {
		if text := str(note, "text"); text != "" {
			t.Text = html.UnescapeString(text)
		}
	}
	return t, true
}

// NewLegacyTweet builds a Tweet from a flat v1.1 style object, as found in
// globalObjects.tweets of the notification timelines.
func NewLegacyTweet(obj map[string]any) (*Tweet, bool) {
	id := str(obj, "id_str")
	if id == "" {
		return nil, false
	}
	t := &Tweet{ID: id}
	t.applyLegacy(obj)
	if uid := str(obj, "user_id_str"); uid != "" {
		t.Author = &User{ID: uid}
	}
	return t, true
}

func (t *Tweet) applyLegacy(legacy map[string]any) {
	t.CreatedAt = parseTime(str(legacy, "created_at"))
	t.Lang = str(legacy, "lang")

	t.FavoriteCount = num(legacy, "favorite_count")
	t.RetweetCount = num(legacy, "retweet_count")
	t.ReplyCount = num(legacy, "reply_count")
	t.QuoteCount = num(legacy, "quote_count")
	t.BookmarkCount = num(legacy, "bookmark_count")

	t.Favorited = boolean(legacy, "favorited")
	t.Retweeted = boolean(legacy, "retweeted")
	t.Bookmarked = boolean(legacy, "bookmarked")
	t.PossiblySensitive = boolean(legacy, "possibly_sensitive")

	t.InReplyToTweetID = str(legacy, "in_reply_to_status_id_str")
	t.InReplyToUserID = str(legacy, "in_reply_to_user_id_str")
	t.InReplyToScreenName = str(legacy, "in_reply_to_screen_name")
	t.QuotedTweetID = str(legacy, "quoted_status_id_str")

	entities := dig(legacy, "entities")
	text := str(legacy, "full_text")
	if text == "" {
		text = str(legacy, "text")
	}
	for _, h := range objects(entities, "hashtags") {
		t.Hashtags = append(t.Hashtags, str(h, "text"))
	}
	for _, m := range objects(entities, "user_mentions") {
		t.Mentions = append(t.Mentions, str(m, "screen_name"))
	}
	for _, u := range objects(entities, "urls") {
		expanded := str(u, "expanded_url")
		t.URLs = append(t.URLs, expanded)
		if short := str(u, "url"); short != "" {
			text = strings.ReplaceAll(text, short, expanded)
		}
	}
	for _, m := range objects(entities, "media") {
		if short := str(m, "url"); short != "" {
			text = strings.ReplaceAll(text, short, "")
		}
	}
	t.Text = strings.TrimSpace(html.UnescapeString(text))

	for _, m := range objects(dig(legacy, "extended_entities"), "media") {
		t.Media = append(t.Media, newMedia(m))
	}
}

func newMedia(m map[string]any) Media {
	media := Media{
		Type:          str(m, "type"),
		URL:           str(m, "media_url_https"),
		AllowDownload: boolean(dig(m, "allow_download_status"), "allow_download"),
	}
	if media.Type == "video" || media.Type == "animated_gif" {
		if url := bestVariant(objects(dig(m, "video_info"), "variants")); url != "" {
			media.URL = url
		}
	}
	return media
}

// bestVariant picks the highest bitrate mp4, falling back to the last
// variant listed.
func bestVariant(variants []map[string]any) string {
	best, bestRate := "", int64(-1)
	for _, v := range variants {
		if str(v, "content_type") != "video/mp4" {
			continue
		}
		if rate := num(v, "bitrate"); rate > bestRate {
			best, bestRate = str(v, "url"), rate
		}
	}
	if best == "" && len(variants) > 0 {
		best = str(variants[len(variants)-1], "url")
	}
	return best
}
