// Package transport is the single outbound HTTP primitive of tweetkit.
//
// A Client carries either a cookie session (auth_token and ct0 cookies plus a
// bearer token) or OAuth1 user-context keys. Every request is paced through a
// ratelimit.Limiter, tagged with a fresh x-client-transaction-id and read in
// full; statuses outside 2xx are mapped onto the errors package taxonomy with
// the message taken from the body's errors[0].message.
package transport
