package twitter

import (
	"sort"

	errs "tweetkit/pkg/errors"
	"tweetkit/pkg/timeline"
)

// Listing names a paginated listing endpoint
type Listing string

const (
	ListingUserTweets   Listing = "user-tweets"
	ListingUserMedia    Listing = "media"
	ListingLikes        Listing = "likes"
	ListingFollowers    Listing = "followers"
	ListingFollowing    Listing = "following"
	ListingBookmarks    Listing = "bookmarks"
	ListingList         Listing = "list"
	ListingHome         Listing = "home"
	ListingLatest       Listing = "latest"
	ListingBlocked      Listing = "blocked"
	ListingMuted        Listing = "muted"
	ListingSearchTop    Listing = "search-top"
	ListingSearchLatest Listing = "search-latest"
	ListingSearchPeople Listing = "search-people"
	ListingSearchMedia  Listing = "search-media"
	ListingSearchLists  Listing = "search-lists"
)

// Search products accepted by Search
const (
	ProductTop    = "Top"
	ProductLatest = "Latest"
	ProductPeople = "People"
	ProductMedia  = "Media"
	ProductLists  = "Lists"
)

// GraphQL operations that are not listings
const (
	queryUserByScreenName = "k5XapwcSikNsEsILW5FvgA"
	queryTweetDetail      = "ZkD-1KkxjcrLKp60DPY_dQ"
	queryCreateTweet      = "sgqau0P5BUJPMU_lgjpd_w"
	queryDeleteTweet      = "VaenaVgh5q5ih7kvyVjgtg"
)

// endpoint describes one listing: the GraphQL operation to call, how the
// caller's argument enters the variables, and where the entries live.
type endpoint struct {
	operation string
	queryID   string
	// post sends variables and features as a JSON body instead of the query
	post bool
	// argKey is the variable that receives the caller's argument, empty when
	// the listing takes none.
	argKey    string
	count     int
	variables map[string]any
	timeline  timeline.Config
}

func userTimeline(branch string) timeline.Path {
	return timeline.Keys("data", "user", "result", branch, "timeline", "instructions").Then(timeline.Find("entries"))
}

func searchEndpoint(product string) endpoint {
	return endpoint{
		operation: "SearchTimeline",
		queryID:   "flaR-PUMshxFWZWPNpq4zA",
		argKey:    "rawQuery",
		count:     40,
		variables: map[string]any{"querySource": "typed_query", "product": product},
		timeline: timeline.Config{
			Path:        timeline.Keys("data", "search_by_raw_query", "search_timeline", "timeline", "instructions").Then(timeline.Find("entries")),
			CursorOrder: timeline.LastIsNext,
			Classify:    timeline.SearchClassifier,
		},
	}
}

var endpoints = map[Listing]endpoint{
	ListingUserTweets: {
		operation: "UserTweets",
		queryID:   "eS7LO5Jy3xgmd3dbL044EA",
		argKey:    "userId",
		count:     20,
		variables: map[string]any{
			"includePromotedContent":                 true,
			"withQuickPromoteEligibilityTweetFields": true,
			"withVoice":                              true,
			"withV2Timeline":                         true,
		},
		timeline: timeline.Config{Path: userTimeline("timeline_v2"), CursorOrder: timeline.LastIsNext, Classify: timeline.TweetClassifier},
	},
	ListingUserMedia: {
		operation: "UserMedia",
		queryID:   "TOU4gQw8wXIqpSzA4TYKgg",
		argKey:    "userId",
		count:     20,
		variables: map[string]any{
			"includePromotedContent": false,
			"withClientEventToken":   false,
			"withBirdwatchNotes":     false,
			"withVoice":              true,
			"withV2Timeline":         true,
		},
		timeline: timeline.Config{Path: userTimeline("timeline_v2"), CursorOrder: timeline.LastIsNext, Classify: timeline.TweetClassifier},
	},
	ListingLikes: {
		operation: "Likes",
		queryID:   "B8I_QCljDBVfin21TTWMqA",
		argKey:    "userId",
		count:     100,
		variables: map[string]any{
			"includePromotedContent": false,
			"withClientEventToken":   false,
			"withBirdwatchNotes":     false,
			"withVoice":              true,
			"withV2Timeline":         true,
		},
		timeline: timeline.Config{Path: userTimeline("timeline_v2"), CursorOrder: timeline.LastIsNext, Classify: timeline.TweetClassifier},
	},
	ListingFollowers: {
		operation: "Followers",
		queryID:   "Uc7ZOJrxsJAzMVCcaxis8Q",
		argKey:    "userId",
		count:     50,
		variables: map[string]any{"includePromotedContent": false},
		timeline:  timeline.Config{Path: userTimeline("timeline"), CursorOrder: timeline.LastIsPrevious, Classify: timeline.UserClassifier},
	},
	ListingFollowing: {
		operation: "Following",
		queryID:   "PiHWpObvX9tbClrUl6rL9g",
		argKey:    "userId",
		count:     50,
		variables: map[string]any{"includePromotedContent": false},
		timeline:  timeline.Config{Path: userTimeline("timeline"), CursorOrder: timeline.LastIsPrevious, Classify: timeline.UserClassifier},
	},
	ListingBookmarks: {
		operation: "Bookmarks",
		queryID:   "uNowfj04D8HFVFMbjm6xrQ",
		count:     20,
		variables: map[string]any{"includePromotedContent": true},
		timeline: timeline.Config{
			Path:        timeline.Keys("data", "bookmark_timeline_v2", "timeline", "instructions").Then(timeline.Find("entries")),
			CursorOrder: timeline.LastIsNext,
			Classify:    timeline.TweetClassifier,
		},
	},
	ListingList: {
		operation: "ListLatestTweetsTimeline",
		queryID:   "TOTgqavWmxywKv5IbMMK1w",
		argKey:    "listId",
		count:     40,
		timeline: timeline.Config{
			Path:        timeline.Keys("data", "list", "tweets_timeline", "timeline", "instructions").Then(timeline.Find("entries")),
			CursorOrder: timeline.LastIsNext,
			Classify:    timeline.TweetClassifier,
		},
	},
	ListingHome: {
		operation: "HomeTimeline",
		queryID:   "k3YiLNE_MAy5J-NANLERdg",
		post:      true,
		count:     50,
		variables: map[string]any{
			"includePromotedContent": true,
			"latestControlAvailable": true,
			"withCommunity":          true,
			"seenTweetIds":           []string{},
		},
		timeline: timeline.Config{
			Path:        timeline.Keys("data", "home", "home_timeline_urt", "instructions").Then(timeline.Find("entries")),
			CursorOrder: timeline.LastIsNext,
			Classify:    timeline.TweetClassifier,
		},
	},
	ListingLatest: {
		operation: "HomeLatestTimeline",
		queryID:   "U0cdisy7QFIoTfu3-Okw0A",
		post:      true,
		count:     100,
		variables: map[string]any{
			"includePromotedContent": true,
			"latestControlAvailable": true,
			"seenTweetIds":           []string{},
		},
		timeline: timeline.Config{
			Path:        timeline.Keys("data", "home", "home_timeline_urt", "instructions").Then(timeline.Find("entries")),
			CursorOrder: timeline.LastIsNext,
			Classify:    timeline.TweetClassifier,
		},
	},
	ListingBlocked: {
		operation: "BlockedAccountsAll",
		queryID:   "EDuJJnhTxj5gMtDd6iifiA",
		count:     20,
		variables: map[string]any{"includePromotedContent": false, "withSafetyModeUserFields": false},
		timeline: timeline.Config{
			Path:        timeline.Keys("data", "viewer", "timeline", "timeline", "instructions").Then(timeline.Find("entries")),
			CursorOrder: timeline.LastIsPrevious,
			Classify:    timeline.UserClassifier,
		},
	},
	ListingMuted: {
		operation: "MutedAccounts",
		queryID:   "7gmS7e2n-S0uFC1TqweqGA",
		count:     20,
		variables: map[string]any{"includePromotedContent": false},
		timeline: timeline.Config{
			Path:        timeline.Keys("data", "viewer", "muting_timeline", "timeline", "instructions").Then(timeline.Find("entries")),
			CursorOrder: timeline.LastIsPrevious,
			Classify:    timeline.UserClassifier,
		},
	},
	ListingSearchTop:    searchEndpoint(ProductTop),
	ListingSearchLatest: searchEndpoint(ProductLatest),
	ListingSearchPeople: searchEndpoint(ProductPeople),
	ListingSearchMedia:  searchEndpoint(ProductMedia),
	ListingSearchLists:  searchEndpoint(ProductLists),
}

var searchListings = map[string]Listing{
	ProductTop:    ListingSearchTop,
	ProductLatest: ListingSearchLatest,
	ProductPeople: ListingSearchPeople,
	ProductMedia:  ListingSearchMedia,
	ProductLists:  ListingSearchLists,
}

// Listings returns every known listing name, sorted
func Listings() []Listing {
	out := make([]Listing, 0, len(endpoints))
	for l := range endpoints {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseListing validates a listing name
func ParseListing(name string) (Listing, error) {
	l := Listing(name)
	if _, ok := endpoints[l]; !ok {
		return "", errs.Validation("listing", "unknown listing %q", name)
	}
	return l, nil
}

// NeedsArgument reports whether the listing requires a user, list or query.
func (l Listing) NeedsArgument() bool {
	return endpoints[l].argKey != ""
}

// TakesUser reports whether the argument is a user id
func (l Listing) TakesUser() bool {
	return endpoints[l].argKey == "userId"
}

// Config returns the extraction config of the listing
func (l Listing) Config() timeline.Config {
	return endpoints[l].timeline
}

func features() map[string]bool {
	return map[string]bool{
		"responsive_web_graphql_exclude_directive_enabled":                        true,
		"verified_phone_label_enabled":                                            true,
		"creator_subscriptions_tweet_preview_api_enabled":                         true,
		"responsive_web_graphql_timeline_navigation_enabled":                      true,
		"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
		"c9s_tweet_anatomy_moderator_badge_enabled":                               true,
		"tweetypie_unmention_optimization_enabled":                                true,
		"responsive_web_edit_tweet_api_enabled":                                   true,
		"graphql_is_translatable_rweb_tweet_is_translatable_enabled":              true,
		"view_counts_everywhere_api_enabled":                                      true,
		"longform_notetweets_consumption_enabled":                                 true,
		"responsive_web_twitter_article_tweet_consumption_enabled":                true,
		"tweet_awards_web_tipping_enabled":                                        false,
		"freedom_of_speech_not_reach_fetch_enabled":                               true,
		"standardized_nudges_misinfo":                                             true,
		"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
		"rweb_video_timestamps_enabled":                                           true,
		"longform_notetweets_rich_text_read_enabled":                              true,
		"longform_notetweets_inline_media_enabled":                                true,
		"responsive_web_enhance_cards_enabled":                                    false,
	}
}

func userFeatures() map[string]bool {
	return map[string]bool{
		"hidden_profile_likes_enabled":                                      true,
		"hidden_profile_subscriptions_enabled":                              true,
		"responsive_web_graphql_exclude_directive_enabled":                  true,
		"verified_phone_label_enabled":                                      true,
		"subscriptions_verification_info_is_identity_verified_enabled":      true,
		"subscriptions_verification_info_verified_since_enabled":            true,
		"highlights_tweets_tab_ui_enabled":                                  true,
		"responsive_web_twitter_article_notes_tab_enabled":                  true,
		"creator_subscriptions_tweet_preview_api_enabled":                   true,
		"responsive_web_graphql_skip_user_profile_image_extensions_enabled": false,
		"responsive_web_graphql_timeline_navigation_enabled":                true,
	}
}

// notificationParams are the v2 notification query parameters of the web client.
func notificationParams() map[string]string {
	return map[string]string{
		"include_profile_interstitial_type":    "1",
		"include_blocking":                     "1",
		"include_blocked_by":                   "1",
		"include_followed_by":                  "1",
		"include_want_retweets":                "1",
		"include_mute_edge":                    "1",
		"include_can_dm":                       "1",
		"include_can_media_tag":                "1",
		"include_ext_is_blue_verified":         "1",
		"include_ext_verified_type":            "1",
		"include_ext_profile_image_shape":      "1",
		"skip_status":                          "1",
		"cards_platform":                       "Web-12",
		"include_cards":                        "1",
		"include_ext_alt_text":                 "true",
		"include_ext_limited_action_results":   "true",
		"include_quote_count":                  "true",
		"include_reply_count":                  "1",
		"tweet_mode":                           "extended",
		"include_ext_views":                    "true",
		"include_entities":                     "true",
		"include_user_entities":                "true",
		"include_ext_media_color":              "true",
		"include_ext_media_availability":       "true",
		"include_ext_sensitive_media_warning":  "true",
		"include_ext_trusted_friends_metadata": "true",
		"send_error_codes":                     "true",
		"simple_quoted_tweet":                  "true",
		"count":                                "20",
		"ext":                                  "mediaStats,highlightedLabel,voiceInfo,birdwatchPivot,superFollowMetadata,unmentionInfo,editControl",
	}
}
