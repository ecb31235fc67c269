package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"wpmirror/internal/downloader"
	"wpmirror/pkg/config"
	"wpmirror/pkg/logger"
	"wpmirror/pkg/metadata"
	"wpmirror/pkg/metrics"
	"wpmirror/pkg/mirror"
	"wpmirror/pkg/storage"
	"wpmirror/pkg/ui"
	"wpmirror/pkg/wordpress"
)

var (
	// Mirror flags
	outputDir   string
	concurrent  int
	metricsAddr string
	noManifest  bool
)

func registerMirrorFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory the site folder is created in (default: current directory)")
	cmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads (default 1)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while mirroring")
	cmd.Flags().BoolVar(&noManifest, "no-manifest", false, "do not write manifest.json into the site folder")
}

// commandLineFlags collects the flags that override file and env configuration
func commandLineFlags(cmd *cobra.Command, siteURL string) map[string]interface{} {
	flags := map[string]interface{}{
		"site-url": siteURL,
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if concurrent > 0 {
		flags["concurrent"] = concurrent
	}
	if cmd.Flags().Changed("log-level") || progressMode {
		flags["log-level"] = logLevel
	}
	if logFormat != "" {
		flags["log-format"] = logFormat
	}
	if metricsAddr != "" {
		flags["metrics-addr"] = metricsAddr
	}
	if cmd.Flags().Changed("no-manifest") {
		flags["write-manifest"] = !noManifest
	}
	return flags
}

func runMirror(cmd *cobra.Command, args []string) error {
	siteURL := strings.TrimSpace(args[0])
	if !strings.Contains(siteURL, "://") {
		siteURL = "https://" + siteURL
	}

	cfg, err := config.Load(configFile, commandLineFlags(cmd, siteURL))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		return err
	}

	if !quiet {
		ui.PrintInfo("Target Site", cfg.Site.URL)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.ListenAddress != "" {
		server := metrics.NewServer(cfg.Metrics.ListenAddress)
		errCh := server.Start()
		go func() {
			if err := <-errCh; err != nil {
				logger.WithError(err).Error("Metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
		logger.WithField("addr", cfg.Metrics.ListenAddress).Info("Serving metrics")
	}

	res, err := mirrorSite(ctx, cfg, runHooks{showProgress: progressMode})
	if res != nil && res.summary != nil && !quiet {
		ui.PrintSummary(res.summary, res.outputDir, res.manifestPath)
	}
	if err != nil {
		ui.PrintError("MIRROR INTERRUPTED", err.Error())
		return err
	}

	if !quiet {
		ui.PrintSuccess("[MIRROR COMPLETED]")
	}
	return nil
}

type runHooks struct {
	showProgress bool
}

type runResult struct {
	summary      *mirror.Summary
	outputDir    string
	manifestPath string
}

// mirrorSite wires client, sink and manifest for cfg and runs one mirror pass.
// The manifest is saved even when the run was interrupted.
func mirrorSite(ctx context.Context, cfg *config.Config, hooks runHooks) (*runResult, error) {
	log := logger.GetLogger()

	site, err := wordpress.NewSite(cfg.Site.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid site: %w", err)
	}

	client := wordpress.NewClient(site, wordpress.ClientConfig{
		APITimeout:      cfg.Pagination.RequestTimeout,
		DownloadTimeout: cfg.Download.Timeout,
		UserAgent:       cfg.Site.UserAgent,
	}, log)

	res := &runResult{
		outputDir: filepath.Join(cfg.Output.BaseDirectory, site.BaseFolder(cfg.Output.FolderPrefix)),
	}

	sink, err := storage.NewManager(res.outputDir, client, log)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	var manifest *metadata.Manifest
	if cfg.Output.WriteManifest {
		manifest = metadata.NewManifest(site.URL, "")
	}

	var tracker *ui.StatusTracker
	m := mirror.New(client, sink, mirror.Options{
		BaseURL:      site.BaseURL(),
		MediaPerPage: cfg.Pagination.MediaPerPage,
		MinPerPage:   cfg.Pagination.MinPerPage,
		PostsPerPage: cfg.Pagination.PostsPerPage,
		ShrinkPosts:  cfg.Pagination.ShrinkPosts,
		Workers:      cfg.Download.ConcurrentDownloads,
		Manifest:     manifest,
		Logger:       log,
		OnPlan: func(phase mirror.Phase, references int) {
			if hooks.showProgress {
				tracker = ui.NewStatusTracker(references)
				tracker.PrintProgress()
			}
		},
		OnResult: func(r downloader.Result) {
			if tracker == nil {
				return
			}
			tracker.Record(string(r.Store.Status), r.Store.Size)
			tracker.PrintProgress()
		},
	})

	summary, runErr := m.Run(ctx)
	res.summary = summary
	if tracker != nil {
		fmt.Fprintln(ui.Out)
	}

	if manifest != nil {
		path, err := manifest.Save(res.outputDir)
		if err != nil {
			log.WithError(err).Error("Failed to write manifest")
		} else {
			res.manifestPath = path
		}
	}

	return res, runErr
}
