package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"tweetkit/pkg/config"
	"tweetkit/pkg/logger"
)

// PublicBearerToken is the bearer the x.com web client ships with. It is
// used when discovery fails.
const PublicBearerToken = "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"

var (
	bearerPattern   = regexp.MustCompile(`Bearer ([A-Za-z0-9%-_]+)`)
	mainScriptMatch = regexp.MustCompile(`/main\.[0-9a-zA-Z]+\.js$`)
)

// BearerFetcher discovers the bearer token of the web client by loading the
// home page, locating the main.*.js bundle and scanning it.
type BearerFetcher struct {
	HTTPClient *http.Client
	WebBase    string
	UserAgent  string
	Logger     logger.Logger
}

// NewBearerFetcher creates a fetcher for the given web base URL
func NewBearerFetcher(webBase string, log logger.Logger) *BearerFetcher {
	return &BearerFetcher{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		WebBase:    webBase,
		UserAgent:  config.DefaultUserAgent,
		Logger:     logger.OrGlobal(log),
	}
}

// Fetch returns the discovered bearer token without the "Bearer " prefix
func (f *BearerFetcher) Fetch(ctx context.Context) (string, error) {
	page, err := f.get(ctx, f.WebBase)
	if err != nil {
		return "", fmt.Errorf("loading web client: %w", err)
	}
	defer page.Close()

	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", fmt.Errorf("parsing web client: %w", err)
	}

	var scriptURL string
	doc.Find("script[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if mainScriptMatch.MatchString(strings.SplitN(src, "?", 2)[0]) {
			scriptURL = src
			return false
		}
		return true
	})
	if scriptURL == "" {
		return "", fmt.Errorf("main script not found on %s", f.WebBase)
	}

	scriptURL, err = resolveURL(f.WebBase, scriptURL)
	if err != nil {
		return "", err
	}

	script, err := f.get(ctx, scriptURL)
	if err != nil {
		return "", fmt.Errorf("loading main script: %w", err)
	}
	defer script.Close()

	body, err := io.ReadAll(script)
	if err != nil {
		return "", fmt.Errorf("reading main script: %w", err)
	}

	m := bearerPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("bearer token not found in %s", scriptURL)
	}
	return string(m[1]), nil
}

// FetchOrDefault returns the discovered token, or PublicBearerToken
func (f *BearerFetcher) FetchOrDefault(ctx context.Context) string {
	token, err := f.Fetch(ctx)
	if err != nil {
		logger.OrGlobal(f.Logger).WithError(err).Warn("bearer discovery failed, using public web bearer")
		return PublicBearerToken
	}
	return token
}

func (f *BearerFetcher) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}

func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid web base: %w", err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid script url: %w", err)
	}
	return b.ResolveReference(r).String(), nil
}
