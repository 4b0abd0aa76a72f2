// Package ratelimit smooths bursts of outbound requests.
//
// It does not enforce the server's limits: a 429 still surfaces as a
// rate_limit error from the transport. The pacer only keeps a walk over many
// pages from hammering the API.
//
//	pacer := ratelimit.NewPacer(cfg.Transport.RequestsPerMinute, cfg.Transport.BurstSize)
//	if err := pacer.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit
