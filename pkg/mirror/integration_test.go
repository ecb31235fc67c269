package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"wpmirror/internal/testutil"
	"wpmirror/pkg/logger"
	"wpmirror/pkg/storage"
	"wpmirror/pkg/wordpress"
)

// recordingSink counts calls before delegating to the real sink
type recordingSink struct {
	next Sink

	mu    sync.Mutex
	calls []Reference
}

func (r *recordingSink) Store(ctx context.Context, locator, dateHint string) (storage.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Reference{Locator: locator, DateHint: dateHint})
	r.mu.Unlock()
	return r.next.Store(ctx, locator, dateHint)
}

func newSiteFixture(t *testing.T, mock *testutil.MockWordPress) (*wordpress.Client, *storage.Manager, *recordingSink, string) {
	t.Helper()

	site, err := wordpress.NewSite(mock.URL())
	require.NoError(t, err)

	log := logger.NewNopLogger()
	client := wordpress.NewClient(site, wordpress.ClientConfig{
		APITimeout:      5 * time.Second,
		DownloadTimeout: 5 * time.Second,
		UserAgent:       "wpmirror-test",
	}, log)

	base := filepath.Join(t.TempDir(), site.BaseFolder("downloaded_"))
	manager, err := storage.NewManager(base, client, log)
	require.NoError(t, err)

	return client, manager, &recordingSink{next: manager}, base
}

func TestEndToEndMediaLibrary(t *testing.T) {
	mock := testutil.NewMockWordPress()
	defer mock.Close()

	var items []wordpress.MediaItem
	for i := 1; i <= 200; i++ {
		path := fmt.Sprintf("/wp-content/uploads/img-%03d.jpg", i)
		mock.AddFile(path, fmt.Sprintf("image %d", i))
		items = append(items, wordpress.MediaItem{
			ID:        int64(i),
			SourceURL: mock.URL() + path,
			Date:      fmt.Sprintf("2024-01-%02dT10:12:30", i%28+1),
		})
	}
	mock.SetMedia(items)

	client, _, sink, base := newSiteFixture(t, mock)
	summary, err := New(client, sink, Options{BaseURL: client.Site().BaseURL(), Logger: logger.NewNopLogger()}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PhaseMedia, summary.Phase)
	assert.Equal(t, 200, summary.Media.Items)
	assert.Equal(t, 2, summary.Media.Pages)
	assert.Equal(t, [][2]int{{1, 100}, {2, 100}, {3, 100}}, mock.PageQueries("/wp-json/wp/v2/media"))
	assert.Zero(t, mock.Requests("/wp-json/wp/v2/posts"))

	require.Len(t, sink.calls, 200)
	for i, call := range sink.calls {
		assert.Equal(t, items[i].SourceURL, call.Locator)
		assert.Equal(t, items[i].Date, call.DateHint)
	}
	assert.Equal(t, 200, summary.Stored)

	data, err := os.ReadFile(filepath.Join(base, "2024-01-02", "img-001.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image 1", string(data))
}

func TestEndToEndShrinksPageSize(t *testing.T) {
	mock := testutil.NewMockWordPress()
	defer mock.Close()
	mock.SetMaxPerPage(30)

	var items []wordpress.MediaItem
	for i := 1; i <= 40; i++ {
		path := fmt.Sprintf("/u/%d.png", i)
		mock.AddFile(path, "png")
		items = append(items, wordpress.MediaItem{ID: int64(i), SourceURL: mock.URL() + path})
	}
	mock.SetMedia(items)

	client, _, sink, base := newSiteFixture(t, mock)
	summary, err := New(client, sink, Options{BaseURL: client.Site().BaseURL(), Logger: logger.NewNopLogger()}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1, 100}, {1, 50}, {1, 25}, {2, 25}, {3, 25}}, mock.PageQueries("/wp-json/wp/v2/media"))
	assert.Equal(t, 40, summary.Stored)
	assert.DirExists(t, filepath.Join(base, storage.UnknownDateBucket))
}

func TestEndToEndFallbackToPosts(t *testing.T) {
	mock := testutil.NewMockWordPress()
	defer mock.Close()

	mock.AddFile("/wp-content/uploads/hero.jpg", "hero")
	mock.AddFile("/wp-content/uploads/inline.png", "inline")
	mock.SetPosts([]wordpress.Post{
		{ID: 1, Date: "2023-05-02T08:00:00", Content: wordpress.Rendered{Rendered: `<img src="/wp-content/uploads/hero.jpg"><img src="/wp-content/uploads/hero.jpg">`}},
		{ID: 2, Date: "garbage", Content: wordpress.Rendered{Rendered: `<figure><img src="/wp-content/uploads/inline.png"></figure>`}},
		{ID: 3, Date: "2023-05-04T08:00:00", Content: wordpress.Rendered{Rendered: `<img src="/wp-content/uploads/missing.gif">`}},
	})

	client, _, sink, base := newSiteFixture(t, mock)
	summary, err := New(client, sink, Options{BaseURL: client.Site().BaseURL(), Logger: logger.NewNopLogger()}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PhasePosts, summary.Phase)
	assert.Equal(t, 1, mock.Requests("/wp-json/wp/v2/media"))
	assert.Equal(t, [][2]int{{1, 20}, {2, 20}}, mock.PageQueries("/wp-json/wp/v2/posts"))

	require.Len(t, sink.calls, 4)
	for _, call := range sink.calls {
		assert.Contains(t, call.Locator, mock.URL()+"/wp-content/uploads/")
	}
	assert.Equal(t, 2, summary.Stored)
	assert.Equal(t, 1, summary.AlreadyExists, "the repeated image is skipped by the sink")
	assert.Equal(t, 1, summary.Failed)

	assert.FileExists(t, filepath.Join(base, "2023-05-02", "hero.jpg"))
	assert.FileExists(t, filepath.Join(base, storage.UnknownDateBucket, "inline.png"))
	assert.NoFileExists(t, filepath.Join(base, "2023-05-04", "missing.gif"))
}
