package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"tweetkit/pkg/config"
	errs "tweetkit/pkg/errors"
	"tweetkit/pkg/logger"
	"tweetkit/pkg/models"
	"tweetkit/pkg/retry"
	"tweetkit/pkg/timeline"
	"tweetkit/pkg/transport"
	"tweetkit/pkg/upload"
)

const (
	// DefaultAPIBase is the root of the web client API
	DefaultAPIBase = "https://x.com/i/api"
	// DefaultWebBase is used to build status links
	DefaultWebBase = "https://x.com"

	// MaxMediaPerTweet is the number of media a post can carry
	MaxMediaPerTweet = 4
)

// Client calls the listing and post endpoints of the web API
type Client struct {
	sender   transport.Sender
	apiBase  string
	webBase  string
	retry    *retry.Config
	uploader *upload.Pipeline
	logger   logger.Logger
}

// Option configures a Client
type Option func(*Client)

func WithAPIBase(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.apiBase = strings.TrimRight(base, "/")
		}
	}
}

func WithWebBase(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.webBase = strings.TrimRight(base, "/")
		}
	}
}

// WithRetry retries read-only requests. Writes are never retried.
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

func WithUploader(p *upload.Pipeline) Option {
	return func(c *Client) { c.uploader = p }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client sending through sender
func New(sender transport.Sender, opts ...Option) *Client {
	c := &Client{
		sender:  sender,
		apiBase: DefaultAPIBase,
		webBase: DefaultWebBase,
		logger:  logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.uploader == nil {
		c.uploader = upload.New(sender, upload.WithLogger(c.logger))
	}
	return c
}

// NewFromConfig wires transport, upload pipeline and retry from the loaded
// configuration.
func NewFromConfig(cfg *config.Config, log logger.Logger, uploadOpts ...upload.Option) *Client {
	log = logger.OrGlobal(log)
	sender := transport.NewFromConfig(cfg, log)

	opts := append([]upload.Option{
		upload.WithEndpoint(cfg.Upload.Endpoint),
		upload.WithChunkSize(cfg.Upload.ChunkSize),
		upload.WithPollDeadline(cfg.Upload.PollDeadline),
		upload.WithLogger(log),
	}, uploadOpts...)

	return New(sender,
		WithAPIBase(cfg.Transport.APIBase),
		WithWebBase(cfg.Transport.WebBase),
		WithRetry(retry.FromConfig(cfg.Retry, log)),
		WithUploader(upload.New(sender, opts...)),
		WithLogger(log),
	)
}

// Uploader returns the pipeline used by UploadMedia
func (c *Client) Uploader() *upload.Pipeline {
	return c.uploader
}

// get runs a read-only request, retrying it when configured.
func (c *Client) get(ctx context.Context, req transport.Request) (map[string]any, error) {
	send := func(ctx context.Context) (map[string]any, error) {
		resp, err := c.sender.Send(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp.Object()
	}
	if c.retry == nil {
		return send(ctx)
	}
	return retry.DoWithResult(ctx, c.retry, send)
}

func (c *Client) post(ctx context.Context, req transport.Request) (map[string]any, error) {
	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Object()
}

func encode(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// graphql calls one operation. GETs carry variables and features in the
// query string, POSTs in a JSON body alongside the queryId.
func (c *Client) graphql(ctx context.Context, operation, queryID string, post bool, variables map[string]any, feats map[string]bool) (map[string]any, error) {
	endpoint := c.apiBase + "/graphql/" + queryID + "/" + operation
	if post {
		body := map[string]any{
			"variables": variables,
			"queryId":   queryID,
		}
		if feats != nil {
			body["features"] = feats
		}
		return c.post(ctx, transport.Request{
			Op:     operation,
			Method: http.MethodPost,
			URL:    endpoint,
			JSON:   body,
		})
	}

	q := url.Values{}
	q.Set("variables", encode(variables))
	if feats != nil {
		q.Set("features", encode(feats))
	}
	return c.get(ctx, transport.Request{
		Op:     operation,
		Method: http.MethodGet,
		URL:    endpoint,
		Query:  q,
	})
}

// Fetch requests one page of a listing. arg is the user id, list id or
// search query the listing needs; cursor is empty for the first page.
func (c *Client) Fetch(ctx context.Context, listing Listing, arg, cursor string) (timeline.Page, error) {
	ep, ok := endpoints[listing]
	if !ok {
		return timeline.Page{}, errs.Validation("fetch", "unknown listing %q", listing)
	}
	if ep.argKey != "" && strings.TrimSpace(arg) == "" {
		return timeline.Page{}, errs.Validation(ep.operation, "%s is required", ep.argKey)
	}

	variables := make(map[string]any, len(ep.variables)+3)
	for k, v := range ep.variables {
		variables[k] = v
	}
	variables["count"] = ep.count
	if ep.argKey != "" {
		variables[ep.argKey] = arg
	}
	if cursor != "" {
		variables["cursor"] = cursor
	}

	doc, err := c.graphql(ctx, ep.operation, ep.queryID, ep.post, variables, features())
	if err != nil {
		return timeline.Page{}, err
	}
	page, err := timeline.Extract(doc, ep.timeline)
	if err != nil {
		return timeline.Page{}, err
	}
	c.logger.DebugWithFields("listing page extracted", map[string]interface{}{
		"listing":  string(listing),
		"tweets":   len(page.Tweets),
		"users":    len(page.Users),
		"lists":    len(page.Lists),
		"has_next": page.HasNext(),
	})
	return page, nil
}

// Walker returns a walker over every page of a listing
func (c *Client) Walker(listing Listing, arg string) *timeline.Walker {
	return &timeline.Walker{
		Listing: string(listing),
		Fetch: func(ctx context.Context, cursor string) (timeline.Page, error) {
			return c.Fetch(ctx, listing, arg, cursor)
		},
		Logger: c.logger,
	}
}

func (c *Client) UserTweets(ctx context.Context, userID, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingUserTweets, userID, cursor)
}

func (c *Client) UserMedia(ctx context.Context, userID, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingUserMedia, userID, cursor)
}

func (c *Client) UserLikes(ctx context.Context, userID, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingLikes, userID, cursor)
}

func (c *Client) Followers(ctx context.Context, userID, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingFollowers, userID, cursor)
}

func (c *Client) Following(ctx context.Context, userID, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingFollowing, userID, cursor)
}

func (c *Client) Bookmarks(ctx context.Context, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingBookmarks, "", cursor)
}

func (c *Client) ListTweets(ctx context.Context, listID, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingList, listID, cursor)
}

// HomeTimeline is the recommended ("For you") timeline
func (c *Client) HomeTimeline(ctx context.Context, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingHome, "", cursor)
}

// HomeLatestTimeline is the chronological ("Following") timeline
func (c *Client) HomeLatestTimeline(ctx context.Context, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingLatest, "", cursor)
}

func (c *Client) BlockedUsers(ctx context.Context, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingBlocked, "", cursor)
}

func (c *Client) MutedUsers(ctx context.Context, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingMuted, "", cursor)
}

// SearchListing maps a search product to its listing
func SearchListing(product string) (Listing, error) {
	for name, l := range searchListings {
		if strings.EqualFold(name, product) {
			return l, nil
		}
	}
	return "", errs.Validation("search", "unknown search product %q", product)
}

// Search runs a query against one product tab. Top and the multi-kind tabs
// may return posts, accounts and lists on the same page.
func (c *Client) Search(ctx context.Context, query, product, cursor string) (timeline.Page, error) {
	l, err := SearchListing(product)
	if err != nil {
		return timeline.Page{}, err
	}
	return c.Fetch(ctx, l, query, cursor)
}

func (c *Client) SearchTop(ctx context.Context, query, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingSearchTop, query, cursor)
}

func (c *Client) SearchLatest(ctx context.Context, query, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingSearchLatest, query, cursor)
}

func (c *Client) SearchPeople(ctx context.Context, query, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingSearchPeople, query, cursor)
}

func (c *Client) SearchMedia(ctx context.Context, query, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingSearchMedia, query, cursor)
}

func (c *Client) SearchLists(ctx context.Context, query, cursor string) (timeline.Page, error) {
	return c.Fetch(ctx, ListingSearchLists, query, cursor)
}

// UserByScreenName looks up an account by its handle
func (c *Client) UserByScreenName(ctx context.Context, screenName string) (*models.User, error) {
	screenName = strings.TrimPrefix(strings.TrimSpace(screenName), "@")
	if screenName == "" {
		return nil, errs.Validation("UserByScreenName", "screen name is required")
	}
	doc, err := c.graphql(ctx, "UserByScreenName", queryUserByScreenName, false,
		map[string]any{"screen_name": screenName, "withSafetyModeUserFields": true},
		userFeatures())
	if err != nil {
		return nil, err
	}
	result, _ := timeline.Keys("data", "user", "result").Lookup(doc)
	obj, _ := result.(map[string]any)
	user, ok := models.NewUser(obj)
	if !ok {
		return nil, errs.Protocol("UserByScreenName", "no account in response for @%s", screenName)
	}
	return user, nil
}

var conversation = timeline.Config{
	Path:        timeline.Keys("data", "threaded_conversation_with_injections_v2", "instructions").Then(timeline.Find("entries")),
	CursorOrder: timeline.Unpaged,
	Classify:    timeline.TweetClassifier,
}

// TweetConversation returns the thread around a post in response order
func (c *Client) TweetConversation(ctx context.Context, tweetID string) ([]models.Tweet, error) {
	if strings.TrimSpace(tweetID) == "" {
		return nil, errs.Validation("TweetDetail", "tweet id is required")
	}
	doc, err := c.graphql(ctx, "TweetDetail", queryTweetDetail, false, map[string]any{
		"focalTweetId":                           tweetID,
		"with_rux_injections":                    false,
		"includePromotedContent":                 true,
		"withCommunity":                          true,
		"withQuickPromoteEligibilityTweetFields": true,
		"withBirdwatchNotes":                     true,
		"withVoice":                              true,
		"withV2Timeline":                         true,
	}, features())
	if err != nil {
		return nil, err
	}
	page, err := timeline.Extract(doc, conversation)
	if err != nil {
		return nil, err
	}
	return page.Tweets, nil
}

// TweetDetail returns a single post
func (c *Client) TweetDetail(ctx context.Context, tweetID string) (*models.Tweet, error) {
	thread, err := c.TweetConversation(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	for i := range thread {
		if thread[i].ID == tweetID {
			return &thread[i], nil
		}
	}
	return nil, errs.Protocol("TweetDetail", "post %s not in response", tweetID)
}

// Post is the content of a new post
type Post struct {
	Text     string
	MediaIDs []string
	// ReplyTo and Quote are post ids; at most one may be set.
	ReplyTo string
	Quote   string
}

func (p Post) validate() error {
	if strings.TrimSpace(p.Text) == "" && len(p.MediaIDs) == 0 {
		return errs.Validation("CreateTweet", "text or media is required")
	}
	if len(p.MediaIDs) > MaxMediaPerTweet {
		return errs.Validation("CreateTweet", "at most %d media per post, got %d", MaxMediaPerTweet, len(p.MediaIDs))
	}
	if p.ReplyTo != "" && p.Quote != "" {
		return errs.Validation("CreateTweet", "a post cannot both reply and quote")
	}
	return nil
}

// CreateTweet publishes a post and returns it as stored by the server
func (c *Client) CreateTweet(ctx context.Context, p Post) (*models.Tweet, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	entities := make([]map[string]any, 0, len(p.MediaIDs))
	for _, id := range p.MediaIDs {
		entities = append(entities, map[string]any{"media_id": id, "tagged_users": []string{}})
	}
	variables := map[string]any{
		"tweet_text":   p.Text,
		"dark_request": false,
		"media": map[string]any{
			"media_entities":     entities,
			"possibly_sensitive": false,
		},
		"semantic_annotation_ids": []string{},
	}
	switch {
	case p.ReplyTo != "":
		variables["reply"] = map[string]any{
			"in_reply_to_tweet_id":   p.ReplyTo,
			"exclude_reply_user_ids": []string{},
		}
		variables["batch_compose"] = "BatchSubsequent"
	case p.Quote != "":
		variables["attachment_url"] = c.webBase + "/i/status/" + p.Quote
	}

	doc, err := c.graphql(ctx, "CreateTweet", queryCreateTweet, true, variables, features())
	if err != nil {
		return nil, err
	}
	result, _ := timeline.Keys("data", "create_tweet", "tweet_results", "result").Lookup(doc)
	obj, _ := result.(map[string]any)
	tweet, ok := models.NewTweet(obj)
	if !ok {
		return nil, errs.Protocol("CreateTweet", "response carries no post")
	}
	c.logger.InfoWithFields("post created", map[string]interface{}{
		"tweet_id": tweet.ID,
		"media":    len(p.MediaIDs),
	})
	return tweet, nil
}

// DeleteTweet removes one of the account's posts
func (c *Client) DeleteTweet(ctx context.Context, tweetID string) error {
	if strings.TrimSpace(tweetID) == "" {
		return errs.Validation("DeleteTweet", "tweet id is required")
	}
	_, err := c.graphql(ctx, "DeleteTweet", queryDeleteTweet, true,
		map[string]any{"tweet_id": tweetID, "dark_request": false}, nil)
	return err
}

// UploadMedia uploads a local file or remote gif and returns its media id
func (c *Client) UploadMedia(ctx context.Context, source, category string) (string, error) {
	return c.uploader.Upload(ctx, source, category)
}
