// Package mirror drives a full mirror run: enumerate the media library, fall
// back to scraping post bodies when the library yields nothing, and hand every
// resulting reference to the sink.
package mirror

import (
	"context"
	"fmt"
	"time"

	"wpmirror/internal/downloader"
	"wpmirror/pkg/extract"
	"wpmirror/pkg/logger"
	"wpmirror/pkg/metadata"
	"wpmirror/pkg/metrics"
	"wpmirror/pkg/paginate"
	"wpmirror/pkg/storage"
	"wpmirror/pkg/wordpress"
)

// Phase is the collection a run took its references from
type Phase string

const (
	PhaseMedia Phase = "media"
	PhasePosts Phase = "posts"
)

// Reference is a resource to mirror together with its date hint
type Reference struct {
	Locator  string
	DateHint string
}

// Options configures a Mirror
type Options struct {
	// BaseURL resolves site-relative image references found in posts
	BaseURL string

	MediaPerPage int
	MinPerPage   int
	PostsPerPage int
	// ShrinkPosts applies page size negotiation to the posts collection too
	ShrinkPosts bool

	// Workers is the number of concurrent sink calls; 0 or 1 is sequential
	Workers int

	// Manifest, when set, receives one entry per sink call
	Manifest *metadata.Manifest
	// OnPlan is called once the phase and number of references are known
	OnPlan func(phase Phase, references int)
	// OnResult is called for every sink outcome from a single goroutine
	OnResult func(downloader.Result)

	Logger logger.Logger
}

// CollectionStats summarizes one pagination run
type CollectionStats struct {
	Name     string
	Items    int
	Pages    int
	Requests int
	Stop     paginate.StopReason
	Err      error
}

// Summary is what a run did
type Summary struct {
	Phase         Phase
	Media         CollectionStats
	Posts         *CollectionStats
	References    int
	Stored        int
	AlreadyExists int
	Failed        int
	Bytes         int64
	Duration      time.Duration
}

// Mirror runs the media-then-posts discovery pipeline against one site
type Mirror struct {
	client Client
	sink   Sink
	opts   Options
	logger logger.Logger
}

// New creates a Mirror
func New(client Client, sink Sink, opts Options) *Mirror {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.MediaPerPage <= 0 {
		opts.MediaPerPage = 100
	}
	if opts.MinPerPage <= 0 {
		opts.MinPerPage = 1
	}
	if opts.PostsPerPage <= 0 {
		opts.PostsPerPage = 20
	}

	return &Mirror{
		client: client,
		sink:   sink,
		opts:   opts,
		logger: opts.Logger.WithField("component", "mirror"),
	}
}

// Run enumerates the site and stores every reference it finds. Page and
// download failures are logged and counted in the Summary; the returned error
// is non-nil only when ctx was cancelled.
func (m *Mirror) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{Phase: PhaseMedia}

	refs, media := m.collectMedia(ctx)
	summary.Media = media
	m.recordCollection(media)

	if media.Items == 0 {
		if ctx.Err() != nil {
			summary.Duration = time.Since(start)
			return summary, ctx.Err()
		}
		m.logger.Info("[INFO] Media endpoint returned zero items. Falling back to /posts scraping.")
		metrics.FallbackActivations.Inc()
		summary.Phase = PhasePosts

		var posts CollectionStats
		refs, posts = m.collectPosts(ctx)
		summary.Posts = &posts
		m.recordCollection(posts)
		m.logger.Info(fmt.Sprintf("[INFO] Found %d images in post content.", len(refs)))
	} else {
		m.logger.Info(fmt.Sprintf("[INFO] Found %d media items via media endpoint. Downloading...", media.Items))
	}

	if m.opts.Manifest != nil {
		m.opts.Manifest.SetPhase(string(summary.Phase))
	}

	summary.References = len(refs)
	if m.opts.OnPlan != nil {
		m.opts.OnPlan(summary.Phase, len(refs))
	}
	m.store(ctx, refs, summary)

	summary.Duration = time.Since(start)
	m.logger.InfoWithFields("Mirror run finished", map[string]interface{}{
		"phase":          string(summary.Phase),
		"references":     summary.References,
		"stored":         summary.Stored,
		"already_exists": summary.AlreadyExists,
		"failed":         summary.Failed,
		"duration":       summary.Duration,
	})

	return summary, ctx.Err()
}

// collectMedia pages through the media library. Items without a source URL
// produce no reference.
func (m *Mirror) collectMedia(ctx context.Context) ([]Reference, CollectionStats) {
	res := paginate.Collect(ctx, m.client.MediaPage, wordpress.MediaID, paginate.Options{
		Name:            string(PhaseMedia),
		InitialPageSize: m.opts.MediaPerPage,
		MinPageSize:     m.opts.MinPerPage,
		Shrink:          true,
		Logger:          m.opts.Logger,
	})

	refs := make([]Reference, 0, len(res.Items))
	for _, item := range res.Items {
		if item.SourceURL == "" {
			m.logger.DebugWithFields("Skipping media item without source_url", map[string]interface{}{
				"id": item.ID,
			})
			continue
		}
		refs = append(refs, Reference{Locator: item.SourceURL, DateHint: item.Date})
	}
	return refs, statsOf(string(PhaseMedia), res)
}

// collectPosts pages through posts and extracts every <img> in their bodies,
// hinted with the post's own date.
func (m *Mirror) collectPosts(ctx context.Context) ([]Reference, CollectionStats) {
	res := paginate.Collect(ctx, m.client.PostsPage, wordpress.PostID, paginate.Options{
		Name:            string(PhasePosts),
		InitialPageSize: m.opts.PostsPerPage,
		MinPageSize:     m.opts.MinPerPage,
		Shrink:          m.opts.ShrinkPosts,
		Logger:          m.opts.Logger,
	})

	var refs []Reference
	for _, post := range res.Items {
		for _, locator := range extract.Images(post.Content.Rendered, m.opts.BaseURL) {
			refs = append(refs, Reference{Locator: locator, DateHint: post.Date})
		}
	}
	return refs, statsOf(string(PhasePosts), res)
}

// store hands every reference to the sink through the worker pool
func (m *Mirror) store(ctx context.Context, refs []Reference, summary *Summary) {
	if len(refs) == 0 {
		return
	}

	jobs := make([]downloader.Job, len(refs))
	for i, ref := range refs {
		jobs[i] = downloader.Job{Locator: ref.Locator, DateHint: ref.DateHint}
	}

	pool := downloader.NewWorkerPool(m.opts.Workers, m.sink, m.opts.Logger)
	done := 0
	pool.ProcessAll(ctx, jobs, func(res downloader.Result) {
		switch {
		case res.Error != nil || res.Store.Status == storage.StatusFailed:
			summary.Failed++
		case res.Store.Status == storage.StatusAlreadyExists:
			summary.AlreadyExists++
		default:
			summary.Stored++
			summary.Bytes += res.Store.Size
		}

		if m.opts.Manifest != nil {
			entry := metadata.Entry{
				Locator:  res.Job.Locator,
				DateHint: res.Job.DateHint,
				Bucket:   res.Store.Bucket,
				Path:     res.Store.Path,
				Status:   string(res.Store.Status),
				Size:     res.Store.Size,
				Digest:   res.Store.Digest,
			}
			if res.Error != nil {
				entry.Status = string(storage.StatusFailed)
				entry.Error = res.Error.Error()
			}
			m.opts.Manifest.Add(entry)
		}

		if m.opts.OnResult != nil {
			m.opts.OnResult(res)
		}

		done++
		if done%100 == 0 {
			logger.LogPhaseProgress(m.logger, string(summary.Phase), done, len(jobs))
		}
	})
}

func (m *Mirror) recordCollection(stats CollectionStats) {
	if m.opts.Manifest == nil {
		return
	}
	c := metadata.Collection{
		Name:     stats.Name,
		Items:    stats.Items,
		Pages:    stats.Pages,
		Requests: stats.Requests,
		Stop:     string(stats.Stop),
	}
	if stats.Err != nil {
		c.Error = stats.Err.Error()
	}
	m.opts.Manifest.AddCollection(c)
}

func statsOf[T any](name string, res paginate.Result[T]) CollectionStats {
	return CollectionStats{
		Name:     name,
		Items:    len(res.Items),
		Pages:    res.Pages,
		Requests: res.Requests,
		Stop:     res.Stop,
		Err:      res.Err,
	}
}
