package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tweetkit/pkg/logger"
	"tweetkit/pkg/models"
	"tweetkit/pkg/timeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS tweets (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	first_seen TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	first_seen TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS lists (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	first_seen TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS listing_items (
	listing TEXT NOT NULL,
	kind    TEXT NOT NULL,
	id      TEXT NOT NULL,
	PRIMARY KEY (listing, kind, id)
);
CREATE TABLE IF NOT EXISTS uploads (
	source      TEXT PRIMARY KEY,
	media_id    TEXT NOT NULL,
	uploaded_at TIMESTAMP NOT NULL
);
`

// Manager is the local SQLite archive of extracted entities and uploads.
// It is safe for concurrent use.
type Manager struct {
	db     *sql.DB
	logger logger.Logger
}

// Upload is a recorded media upload
type Upload struct {
	Source     string
	MediaID    string
	UploadedAt time.Time
}

// ErrNotFound is returned when an archived row does not exist
var ErrNotFound = errors.New("not found in archive")

// Open opens or creates the archive at path
func Open(ctx context.Context, path string, log logger.Logger) (*Manager, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	log = logger.OrGlobal(log)
	log.WithField("path", path).Debug("archive opened")
	return &Manager{db: db, logger: log}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

func table(kind timeline.Kind) (string, error) {
	switch kind {
	case timeline.KindTweet:
		return "tweets", nil
	case timeline.KindUser:
		return "users", nil
	case timeline.KindList:
		return "lists", nil
	}
	return "", fmt.Errorf("unknown entity kind %d", kind)
}

type row struct {
	kind timeline.Kind
	id   string
	data any
}

func pageRows(page timeline.Page) []row {
	rows := make([]row, 0, page.Len())
	for i := range page.Tweets {
		rows = append(rows, row{timeline.KindTweet, page.Tweets[i].ID, &page.Tweets[i]})
	}
	for i := range page.Users {
		rows = append(rows, row{timeline.KindUser, page.Users[i].ID, &page.Users[i]})
	}
	for i := range page.Lists {
		rows = append(rows, row{timeline.KindList, page.Lists[i].ID, &page.Lists[i]})
	}
	return rows
}

// SavePage upserts every entity of the page and links it to the listing.
// Saving the same page twice leaves the archive unchanged apart from
// updated_at. It returns how many entities were new to the archive.
func (m *Manager) SavePage(ctx context.Context, listing string, page timeline.Page) (int, error) {
	rows := pageRows(page)
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	added := 0
	for _, r := range rows {
		if r.id == "" {
			continue
		}
		name, err := table(r.kind)
		if err != nil {
			return 0, err
		}
		data, err := json.Marshal(r.data)
		if err != nil {
			return 0, fmt.Errorf("failed to encode %s %s: %w", r.kind, r.id, err)
		}

		var exists int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+name+` WHERE id = ?`, r.id).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("failed to look up %s %s: %w", r.kind, r.id, err)
		}
		if exists == 0 {
			added++
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO `+name+` (id, data, first_seen, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			r.id, string(data), now, now)
		if err != nil {
			return 0, fmt.Errorf("failed to save %s %s: %w", r.kind, r.id, err)
		}

		_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO listing_items (listing, kind, id) VALUES (?, ?, ?)`,
			listing, r.kind.String(), r.id)
		if err != nil {
			return 0, fmt.Errorf("failed to link %s %s: %w", r.kind, r.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit page: %w", err)
	}

	m.logger.DebugWithFields("Page archived", map[string]interface{}{
		"listing":  listing,
		"entities": len(rows),
		"new":      added,
	})
	return added, nil
}

// Has reports whether an entity is archived
func (m *Manager) Has(ctx context.Context, kind timeline.Kind, id string) (bool, error) {
	name, err := table(kind)
	if err != nil {
		return false, err
	}
	var n int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+name+` WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to query %s: %w", name, err)
	}
	return n > 0, nil
}

// Count returns the number of archived entities of a kind
func (m *Manager) Count(ctx context.Context, kind timeline.Kind) (int, error) {
	name, err := table(kind)
	if err != nil {
		return 0, err
	}
	var n int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", name, err)
	}
	return n, nil
}

// CountListing returns the number of entities linked to a listing
func (m *Manager) CountListing(ctx context.Context, listing string) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listing_items WHERE listing = ?`, listing).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count listing %s: %w", listing, err)
	}
	return n, nil
}

// Tweet loads an archived tweet
func (m *Manager) Tweet(ctx context.Context, id string) (*models.Tweet, error) {
	var data string
	err := m.db.QueryRowContext(ctx, `SELECT data FROM tweets WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tweet %s: %w", id, err)
	}

	var t models.Tweet
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("failed to decode tweet %s: %w", id, err)
	}
	return &t, nil
}

// RecordUpload remembers the media id a source was uploaded as
func (m *Manager) RecordUpload(ctx context.Context, source, mediaID string) error {
	_, err := m.db.ExecContext(ctx, `INSERT INTO uploads (source, media_id, uploaded_at) VALUES (?, ?, ?)
ON CONFLICT(source) DO UPDATE SET media_id = excluded.media_id, uploaded_at = excluded.uploaded_at`,
		source, mediaID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record upload of %s: %w", source, err)
	}
	return nil
}

// LookupUpload returns the last recorded upload of a source
func (m *Manager) LookupUpload(ctx context.Context, source string) (*Upload, error) {
	u := &Upload{Source: source}
	err := m.db.QueryRowContext(ctx, `SELECT media_id, uploaded_at FROM uploads WHERE source = ?`, source).
		Scan(&u.MediaID, &u.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up upload of %s: %w", source, err)
	}
	return u, nil
}
