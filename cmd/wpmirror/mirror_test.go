package main

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"wpmirror/internal/testutil"
	"wpmirror/pkg/config"
	"wpmirror/pkg/logger"
	"wpmirror/pkg/metadata"
	"wpmirror/pkg/mirror"
	"wpmirror/pkg/wordpress"
)

func quietLogs(t *testing.T) {
	t.Helper()
	require.NoError(t, logger.Initialize(&config.LoggingConfig{Level: "disabled", Format: "json"}))
}

func testConfig(t *testing.T, siteURL string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Site.URL = siteURL
	cfg.Output.BaseDirectory = t.TempDir()
	cfg.Download.ConcurrentDownloads = 2
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestMirrorSiteMediaLibrary(t *testing.T) {
	quietLogs(t)

	mock := testutil.NewMockWordPress()
	defer mock.Close()

	var items []wordpress.MediaItem
	for i := 1; i <= 5; i++ {
		path := fmt.Sprintf("/wp-content/uploads/2023/07/photo-%d.jpg", i)
		mock.AddFile(path, fmt.Sprintf("photo %d", i))
		items = append(items, wordpress.MediaItem{
			ID:        int64(i),
			SourceURL: mock.URL() + path,
			Date:      "2023-07-14T08:00:00",
		})
	}
	mock.SetMedia(items)

	cfg := testConfig(t, mock.URL())
	res, err := mirrorSite(context.Background(), cfg, runHooks{})
	require.NoError(t, err)
	require.NotNil(t, res.summary)

	assert.Equal(t, mirror.PhaseMedia, res.summary.Phase)
	assert.Equal(t, 5, res.summary.Stored)
	assert.Zero(t, res.summary.Failed)

	manifest, err := metadata.Load(res.manifestPath)
	require.NoError(t, err)
	assert.Equal(t, string(mirror.PhaseMedia), manifest.Phase)
	assert.Len(t, manifest.Entries, 5)
	assert.Equal(t, filepath.Join(res.outputDir, metadata.ManifestFile), res.manifestPath)

	// a second pass finds everything on disk
	res, err = mirrorSite(context.Background(), cfg, runHooks{})
	require.NoError(t, err)
	assert.Zero(t, res.summary.Stored)
	assert.Equal(t, 5, res.summary.AlreadyExists)
}

func TestMirrorSiteFallsBackToPosts(t *testing.T) {
	quietLogs(t)

	mock := testutil.NewMockWordPress()
	defer mock.Close()

	mock.AddFile("/wp-content/uploads/hero.png", "hero")
	mock.SetPosts([]wordpress.Post{
		{
			ID:      7,
			Date:    "2022-02-02T12:00:00",
			Content: wordpress.Rendered{Rendered: `<p><img src="/wp-content/uploads/hero.png"></p>`},
		},
	})

	cfg := testConfig(t, mock.URL())
	cfg.Output.WriteManifest = false

	res, err := mirrorSite(context.Background(), cfg, runHooks{})
	require.NoError(t, err)

	assert.Equal(t, mirror.PhasePosts, res.summary.Phase)
	assert.Equal(t, 1, res.summary.Stored)
	assert.Empty(t, res.manifestPath)
	assert.NoFileExists(t, filepath.Join(res.outputDir, metadata.ManifestFile))
}

func TestMirrorSiteCancelled(t *testing.T) {
	quietLogs(t)

	mock := testutil.NewMockWordPress()
	defer mock.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := mirrorSite(ctx, testConfig(t, mock.URL()), runHooks{})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	// the manifest still records what was attempted
	assert.FileExists(t, res.manifestPath)
}

func TestMirrorSiteRejectsBadSite(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Site.URL = "ftp://files.example.com"

	_, err := mirrorSite(context.Background(), cfg, runHooks{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid site")
}

func TestCommandLineFlags(t *testing.T) {
	t.Cleanup(func() {
		outputDir, concurrent, metricsAddr, noManifest = "", 0, "", false
		logLevel, logFormat = "info", ""
		progressMode = false
	})

	outputDir = "/srv/mirrors"
	concurrent = 4
	metricsAddr = "127.0.0.1:9090"
	logLevel = "error"
	logFormat = "json"
	progressMode = true

	require.NoError(t, rootCmd.Flags().Set("no-manifest", "true"))

	flags := commandLineFlags(rootCmd, "https://blog.example.com")
	assert.Equal(t, "https://blog.example.com", flags["site-url"])
	assert.Equal(t, "/srv/mirrors", flags["output"])
	assert.Equal(t, 4, flags["concurrent"])
	assert.Equal(t, "127.0.0.1:9090", flags["metrics-addr"])
	assert.Equal(t, "error", flags["log-level"])
	assert.Equal(t, "json", flags["log-format"])
	assert.Equal(t, false, flags["write-manifest"])
}

func TestExampleConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "wpmirror.yaml")
	require.NoError(t, writeExampleConfig(path))

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	assert.Equal(t, config.DefaultConfig(), cfg)

	warnings, problems := checkConfig(cfg)
	assert.Empty(t, problems)
	assert.Len(t, warnings, 1)
}

func TestCheckConfigReportsProblems(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Site.URL = "gopher://example.com"
	cfg.Pagination.MediaPerPage = 0

	_, problems := checkConfig(cfg)
	assert.Len(t, problems, 2)
}
