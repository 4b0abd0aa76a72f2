package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"tweetkit/pkg/config"
	errs "tweetkit/pkg/errors"
	"tweetkit/pkg/logger"
	"tweetkit/pkg/ratelimit"
)

// Session holds the cookie session of a logged-in web client.
type Session struct {
	AuthToken   string
	CSRFToken   string
	BearerToken string
	UserAgent   string
	Language    string
}

// Options configures a Client
type Options struct {
	Session Session
	// OAuth1 signs every request instead of sending the cookie session
	OAuth1  config.OAuth1Config
	Timeout time.Duration
	Limiter ratelimit.Limiter
	// Tracing wraps the HTTP transport with otelhttp spans
	Tracing bool
	// HTTPClient replaces the client built from the options above
	HTTPClient *http.Client
}

// Client sends requests to the web API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	session    Session
	signed     bool
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// New creates a new Client
func New(opts Options, log logger.Logger) *Client {
	log = logger.OrGlobal(log)

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited()
	}
	if opts.Session.UserAgent == "" {
		opts.Session.UserAgent = config.DefaultUserAgent
	}
	if opts.Session.Language == "" {
		opts.Session.Language = "en"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		var rt http.RoundTripper = http.DefaultTransport
		if opts.Tracing {
			rt = otelhttp.NewTransport(rt)
		}
		httpClient = &http.Client{Transport: rt, Timeout: opts.Timeout}
	}

	signed := opts.OAuth1.Enabled()
	if signed {
		oc := oauth1.NewConfig(opts.OAuth1.ConsumerKey, opts.OAuth1.ConsumerSecret)
		token := oauth1.NewToken(opts.OAuth1.AccessToken, opts.OAuth1.AccessSecret)
		// oauth1 wraps the transport of the client found in the context.
		ctx := context.WithValue(context.Background(), oauth1.HTTPClient, httpClient)
		signedClient := oc.Client(ctx, token)
		signedClient.Timeout = httpClient.Timeout
		httpClient = signedClient
	}

	return &Client{
		httpClient: httpClient,
		session:    opts.Session,
		signed:     signed,
		limiter:    opts.Limiter,
		logger:     log,
	}
}

// NewFromConfig builds a Client from the loaded configuration
func NewFromConfig(cfg *config.Config, log logger.Logger) *Client {
	return New(Options{
		Session: Session{
			AuthToken:   cfg.Account.AuthToken,
			CSRFToken:   cfg.Account.CSRFToken,
			BearerToken: cfg.Account.BearerToken,
			UserAgent:   cfg.Account.UserAgent,
			Language:    cfg.Transport.Language,
		},
		OAuth1:  cfg.OAuth1,
		Timeout: cfg.Transport.Timeout,
		Limiter: ratelimit.NewPacer(cfg.Transport.RequestsPerMinute, cfg.Transport.BurstSize),
		Tracing: cfg.Transport.Tracing,
	}, log)
}

// Signed reports whether requests are OAuth1 signed
func (c *Client) Signed() bool {
	return c.signed
}

// applySession sets the default headers and cookies of the web client.
func (c *Client) applySession(req *http.Request) {
	req.Header.Set("User-Agent", c.session.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("x-client-transaction-id", uuid.NewString())
	req.Header.Set("x-twitter-client-language", c.session.Language)
	req.Header.Set("x-twitter-active-user", "yes")

	if c.signed {
		return
	}
	if c.session.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.BearerToken)
	}
	if c.session.AuthToken != "" {
		req.Header.Set("x-twitter-auth-type", "OAuth2Session")
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: c.session.AuthToken})
	}
	if c.session.CSRFToken != "" {
		req.Header.Set("x-csrf-token", c.session.CSRFToken)
		req.AddCookie(&http.Cookie{Name: "ct0", Value: c.session.CSRFToken})
	}
}

// Send performs req and returns the fully read response. Non-2xx statuses
// become categorized errors; failures to get any response are network errors.
func (c *Client) Send(ctx context.Context, r Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: waiting for request slot: %w", r.Op, err)
	}

	req, err := r.build(ctx)
	if err != nil {
		return nil, err
	}
	c.applySession(req)
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"op":     r.Op,
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"op":       r.Op,
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", r.Op, ctx.Err())
		}
		return nil, errs.Network(r.Op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Network(r.Op, fmt.Errorf("failed to read response body: %w", err))
	}
	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.FromStatus(r.Op, resp.StatusCode, body, resp.Header)
	}

	return &Response{
		Status:  resp.StatusCode,
		Body:    body,
		Headers: resp.Header,
	}, nil
}
