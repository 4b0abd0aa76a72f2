// Package retry retries read-only API calls that failed with a network,
// rate limit or server error.
//
//	err := retry.Do(ctx, retry.FromConfig(cfg.Retry, log), func(ctx context.Context) error {
//		page, err = client.Followers(ctx, userID, cursor)
//		return err
//	})
//
// Rate limit errors carrying a reset time wait until that time (ServerHinted);
// other errors use the fallback strategy. Auth, validation and processing
// errors are returned immediately.
//
// Wait is also the default sleeper of the upload STATUS loop.
package retry
