package models

import (
	"html"
	"strings"
	"time"
)

// User is an account as returned under user_results.result
type User struct {
	ID         string    `json:"id"`
	GraphID    string    `json:"graph_id,omitempty"`
	ScreenName string    `json:"screen_name"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`

	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Websites    []string `json:"websites,omitempty"`

	FollowersCount  int64 `json:"followers_count"`
	FriendsCount    int64 `json:"friends_count"`
	StatusesCount   int64 `json:"statuses_count"`
	FavouritesCount int64 `json:"favourites_count"`
	MediaCount      int64 `json:"media_count"`
	ListedCount     int64 `json:"listed_count"`

	Verified     bool `json:"verified"`
	BlueVerified bool `json:"blue_verified"`
	Protected    bool `json:"protected"`
	CanDM        bool `json:"can_dm"`

	ProfileImageURL  string   `json:"profile_image_url,omitempty"`
	ProfileBannerURL string   `json:"profile_banner_url,omitempty"`
	PinnedTweetIDs   []string `json:"pinned_tweet_ids,omitempty"`
}

// NewUser builds a User from a user_results.result object
func NewUser(result map[string]any) (*User, bool) {
	id := str(result, "rest_id")
	if id == "" {
		return nil, false
	}
	u := &User{
		ID:           id,
		GraphID:      str(result, "id"),
		BlueVerified: boolean(result, "is_blue_verified"),
	}

	legacy := dig(result, "legacy")
	if legacy != nil {
		u.ScreenName = str(legacy, "screen_name")
		u.Name = str(legacy, "name")
		u.CreatedAt = parseTime(str(legacy, "created_at"))
		u.Location = str(legacy, "location")
		u.FollowersCount = num(legacy, "followers_count")
		u.FriendsCount = num(legacy, "friends_count")
		u.StatusesCount = num(legacy, "statuses_count")
		u.FavouritesCount = num(legacy, "favourites_count")
		u.MediaCount = num(legacy, "media_count")
		u.ListedCount = num(legacy, "listed_count")
		u.Verified = boolean(legacy, "verified")
		u.Protected = boolean(legacy, "protected")
		u.CanDM = boolean(legacy, "can_dm")
		u.ProfileImageURL = str(legacy, "profile_image_url_https")
		u.ProfileBannerURL = str(legacy, "profile_banner_url")
		u.PinnedTweetIDs = stringList(legacy, "pinned_tweet_ids_str")

		description := str(legacy, "description")
		for _, url := range objects(dig(legacy, "entities", "description"), "urls") {
			if short := str(url, "url"); short != "" {
				description = strings.ReplaceAll(description, short, str(url, "expanded_url"))
			}
		}
		u.Description = strings.TrimSpace(html.UnescapeString(description))

		for _, url := range objects(dig(legacy, "entities", "url"), "urls") {
			u.Websites = append(u.Websites, str(url, "expanded_url"))
		}
	}

	// Newer responses moved the names under core.
	if core := dig(result, "core"); core != nil {
		if u.ScreenName == "" {
			u.ScreenName = str(core, "screen_name")
		}
		if u.Name == "" {
			u.Name = str(core, "name")
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = parseTime(str(core, "created_at"))
		}
	}
	return u, true
}
