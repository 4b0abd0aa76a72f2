// Package twitter is a client for the listing, post and upload endpoints of
// the X web API.
//
// Every listing is an entry in a table pairing a GraphQL operation with the
// timeline.Config that extracts its entities, so adding a listing is a data
// change:
//
//	client := twitter.NewFromConfig(cfg, log)
//	page, err := client.UserTweets(ctx, "44196397", "")
//	res, err := client.Walker(twitter.ListingFollowers, "44196397").Walk(ctx)
//
// Read-only requests are retried through pkg/retry when the client is built
// with WithRetry. Posts, deletions and uploads are never retried.
package twitter
