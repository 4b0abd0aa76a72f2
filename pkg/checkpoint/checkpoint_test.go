package checkpoint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetkit/pkg/logger"
	"tweetkit/pkg/models"
	"tweetkit/pkg/timeline"
)

func newTestManager(t *testing.T, key string) *Manager {
	t.Helper()
	mgr, err := NewManagerInDir(t.TempDir(), key, logger.NewTestLogger())
	require.NoError(t, err)
	return mgr
}

func pageOf(n int, next string) timeline.Page {
	p := timeline.Page{NextCursor: next}
	for i := 0; i < n; i++ {
		p.Tweets = append(p.Tweets, models.Tweet{ID: next + "-" + string(rune('a'+i))})
	}
	return p
}

func TestKey(t *testing.T) {
	assert.Equal(t, "home", Key("home", ""))
	assert.Equal(t, "user-tweets-44196397", Key("user-tweets", "44196397"))
	assert.Equal(t, "search-latest-golang_lang_en", Key("search-latest", "golang lang:en"))
	assert.Equal(t, "list-_.._etc", Key("list", "/../etc"))
}

func TestNewManagerUsesDataHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	mgr, err := NewManager("home", logger.NewNopLogger())
	require.NoError(t, err)
	if runtime.GOOS == "linux" {
		assert.Equal(t, filepath.Join(dir, "tweetkit", "checkpoints", "home.checkpoint.json"), mgr.Path())
	}

	_, err = NewManagerInDir(dir, "", nil)
	assert.Error(t, err)
}

func TestCreateAndLoad(t *testing.T) {
	mgr := newTestManager(t, "followers-12")

	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.False(t, mgr.Exists())

	cp, err := mgr.Create("followers", "12")
	require.NoError(t, err)
	assert.True(t, mgr.Exists())
	assert.Equal(t, currentVersion, cp.Version)

	loaded, err = mgr.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "followers", loaded.Listing)
	assert.Equal(t, "12", loaded.Argument)
	assert.Empty(t, loaded.NextCursor)
	assert.False(t, loaded.CreatedAt.IsZero())

	_, err = os.Stat(mgr.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestAdvance(t *testing.T) {
	mgr := newTestManager(t, "likes-1")
	cp, err := mgr.Create("likes", "1")
	require.NoError(t, err)

	require.NoError(t, mgr.Advance(cp, pageOf(3, "c1")))
	require.NoError(t, mgr.Advance(cp, pageOf(2, "c2")))
	require.NoError(t, mgr.Advance(cp, pageOf(0, "")))

	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Pages)
	assert.Equal(t, 5, loaded.Entities)
	assert.Equal(t, "c2", loaded.NextCursor)
	assert.False(t, loaded.Exhausted)
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	mgr := newTestManager(t, "home")
	require.NoError(t, os.WriteFile(mgr.Path(), []byte(`{"listing":"home","version":99}`), 0644))

	_, err := mgr.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer")
}

func TestLoadCorrupt(t *testing.T) {
	mgr := newTestManager(t, "home")
	require.NoError(t, os.WriteFile(mgr.Path(), []byte(`{not json`), 0644))

	_, err := mgr.Load()
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	mgr := newTestManager(t, "home")
	_, err := mgr.Create("home", "")
	require.NoError(t, err)

	require.NoError(t, mgr.Delete())
	assert.False(t, mgr.Exists())
	require.NoError(t, mgr.Delete())
}

func TestTrackResumesWalk(t *testing.T) {
	pages := map[string]timeline.Page{
		"":   pageOf(2, "c1"),
		"c1": pageOf(2, "c2"),
		"c2": pageOf(2, "c3"),
		"c3": pageOf(0, "c3"),
	}
	var requested []string
	fetch := func(ctx context.Context, cursor string) (timeline.Page, error) {
		requested = append(requested, cursor)
		return pages[cursor], nil
	}

	mgr := newTestManager(t, "bookmarks")
	cp, err := mgr.Create("bookmarks", "")
	require.NoError(t, err)

	w := &timeline.Walker{Listing: "bookmarks", Fetch: fetch, MaxPages: 2, Logger: logger.NewNopLogger()}
	mgr.Track(cp, w)
	res, err := w.Walk(context.Background())
	require.NoError(t, err)
	require.NoError(t, mgr.Finish(cp, res))
	assert.False(t, cp.Exhausted)
	assert.Equal(t, "c2", cp.NextCursor)

	resumed, err := mgr.Load()
	require.NoError(t, err)
	requested = nil

	var seen int
	w = &timeline.Walker{
		Listing: "bookmarks",
		Fetch:   fetch,
		Logger:  logger.NewNopLogger(),
		OnPage: func(n int, p timeline.Page) error {
			seen++
			return nil
		},
	}
	mgr.Track(resumed, w)
	res, err = w.Walk(context.Background())
	require.NoError(t, err)
	require.NoError(t, mgr.Finish(resumed, res))

	assert.Equal(t, []string{"c2", "c3"}, requested)
	assert.Equal(t, 2, seen)
	assert.True(t, resumed.Exhausted)
	assert.Equal(t, 4, resumed.Pages)
	assert.Equal(t, 6, resumed.Entities)
}

func TestTrackPropagatesOnPageError(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManagerInDir(dir, "home", logger.NewNopLogger())
	require.NoError(t, err)
	cp, err := mgr.Create("home", "")
	require.NoError(t, err)

	stop := errors.New("stop")
	w := &timeline.Walker{
		Listing: "home",
		Fetch: func(ctx context.Context, cursor string) (timeline.Page, error) {
			return pageOf(1, cursor+"x"), nil
		},
		Logger: logger.NewNopLogger(),
		OnPage: func(n int, p timeline.Page) error { return stop },
	}
	mgr.Track(cp, w)
	_, err = w.Walk(context.Background())
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, cp.Pages)
}
