// Package storage archives extracted timeline entities in a local SQLite
// database.
//
// Tweets, users and lists are stored as their JSON projection keyed by rest
// id, and linked to every listing they were seen in. Saving is an upsert, so
// walking the same listing twice does not duplicate rows. Uploaded media ids
// are recorded per source so callers can tell what was already sent.
//
// Usage:
//
//	archive, err := storage.Open(ctx, cfg.Archive.Path, log)
//	if err != nil {
//	    return err
//	}
//	defer archive.Close()
//
//	added, err := archive.SavePage(ctx, "user-tweets", page)
package storage
