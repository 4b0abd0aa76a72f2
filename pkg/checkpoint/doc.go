// Package checkpoint saves the position of a listing walk so it can resume.
//
// A checkpoint holds the last next cursor, the number of pages and entities
// fetched so far, and whether the listing was exhausted. Files are written
// atomically (temporary file, sync, rename) under the user data directory:
//   - Linux: $XDG_DATA_HOME/tweetkit/checkpoints/ or ~/.local/share/tweetkit/checkpoints/
//   - macOS: ~/Library/Application Support/tweetkit/checkpoints/
//   - Windows: %APPDATA%/tweetkit/checkpoints/
package checkpoint
