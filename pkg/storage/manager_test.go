package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetkit/pkg/logger"
	"tweetkit/pkg/models"
	"tweetkit/pkg/timeline"
)

func openTestArchive(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "archive.db"), logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func samplePage() timeline.Page {
	return timeline.Page{
		Tweets: []models.Tweet{
			{ID: "1", Text: "first", Author: &models.User{ID: "10", ScreenName: "alice"}},
			{ID: "2", Text: "second", FavoriteCount: 7},
		},
		Users:      []models.User{{ID: "10", ScreenName: "alice"}},
		Lists:      []models.List{{ID: "500", Name: "gophers"}},
		NextCursor: "next",
	}
}

func TestSavePageIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := openTestArchive(t)

	added, err := m.SavePage(ctx, "user-tweets", samplePage())
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	added, err = m.SavePage(ctx, "user-tweets", samplePage())
	require.NoError(t, err)
	assert.Zero(t, added)

	tweets, err := m.Count(ctx, timeline.KindTweet)
	require.NoError(t, err)
	assert.Equal(t, 2, tweets)

	users, err := m.Count(ctx, timeline.KindUser)
	require.NoError(t, err)
	assert.Equal(t, 1, users)

	lists, err := m.Count(ctx, timeline.KindList)
	require.NoError(t, err)
	assert.Equal(t, 1, lists)

	linked, err := m.CountListing(ctx, "user-tweets")
	require.NoError(t, err)
	assert.Equal(t, 4, linked)
}

func TestSavePageUpdatesData(t *testing.T) {
	ctx := context.Background()
	m := openTestArchive(t)

	_, err := m.SavePage(ctx, "home", samplePage())
	require.NoError(t, err)

	updated := timeline.Page{Tweets: []models.Tweet{{ID: "2", Text: "second", FavoriteCount: 9}}}
	added, err := m.SavePage(ctx, "likes", updated)
	require.NoError(t, err)
	assert.Zero(t, added)

	tweet, err := m.Tweet(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, int64(9), tweet.FavoriteCount)

	home, err := m.CountListing(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, 4, home)
	likes, err := m.CountListing(ctx, "likes")
	require.NoError(t, err)
	assert.Equal(t, 1, likes)
}

func TestSavePageSkipsEmptyIDs(t *testing.T) {
	ctx := context.Background()
	m := openTestArchive(t)

	added, err := m.SavePage(ctx, "home", timeline.Page{Tweets: []models.Tweet{{Text: "no id"}}})
	require.NoError(t, err)
	assert.Zero(t, added)

	added, err = m.SavePage(ctx, "home", timeline.Page{})
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestHasAndTweet(t *testing.T) {
	ctx := context.Background()
	m := openTestArchive(t)
	_, err := m.SavePage(ctx, "home", samplePage())
	require.NoError(t, err)

	ok, err := m.Has(ctx, timeline.KindTweet, "1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Has(ctx, timeline.KindUser, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Has(ctx, timeline.Kind(42), "1")
	assert.Error(t, err)

	tweet, err := m.Tweet(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "first", tweet.Text)
	require.NotNil(t, tweet.Author)
	assert.Equal(t, "alice", tweet.Author.ScreenName)

	_, err = m.Tweet(ctx, "404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordUpload(t *testing.T) {
	ctx := context.Background()
	m := openTestArchive(t)

	_, err := m.LookupUpload(ctx, "cat.gif")
	assert.ErrorIs(t, err, ErrNotFound)

	before := time.Now().Add(-time.Second)
	require.NoError(t, m.RecordUpload(ctx, "cat.gif", "111"))
	require.NoError(t, m.RecordUpload(ctx, "cat.gif", "222"))

	u, err := m.LookupUpload(ctx, "cat.gif")
	require.NoError(t, err)
	assert.Equal(t, "222", u.MediaID)
	assert.True(t, u.UploadedAt.After(before))
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.db")

	m, err := Open(ctx, path, logger.NewNopLogger())
	require.NoError(t, err)
	_, err = m.SavePage(ctx, "home", samplePage())
	require.NoError(t, err)
	require.NoError(t, m.Close())

	m, err = Open(ctx, path, logger.NewNopLogger())
	require.NoError(t, err)
	defer m.Close()

	n, err := m.Count(ctx, timeline.KindTweet)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestConcurrentSavePage(t *testing.T) {
	ctx := context.Background()
	m := openTestArchive(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.SavePage(ctx, "home", samplePage())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	n, err := m.Count(ctx, timeline.KindTweet)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
