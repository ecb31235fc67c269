package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"wpmirror/pkg/ui"
)

var (
	// Version information, set with -ldflags at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFormat  string
	quiet      bool
	verbose    bool

	// progressMode draws a progress bar and keeps the log at error level
	progressMode bool
)

// rootCmd mirrors a site when given a URL and hosts the config subcommands
var rootCmd = &cobra.Command{
	Use:   "wpmirror [flags] <site-url>",
	Short: "Mirror the media library of a WordPress site",
	Long: `wpmirror downloads every media file a WordPress site exposes through its
REST API and stores it under a folder named after the site, bucketed by
upload month.

The media collection (/wp-json/wp/v2/media) is paged with an adaptive page
size: a 400 response halves per_page and retries the same page. When the
media collection yields nothing, images referenced from post content
(/wp-json/wp/v2/posts) are mirrored instead.

Files already present on disk are never downloaded again, so a run can be
repeated to pick up new uploads.`,
	Example: `  # Mirror a site into ./downloaded_blog.example.com
  wpmirror https://blog.example.com

  # Write elsewhere with four download workers
  wpmirror blog.example.com --output /srv/mirrors --concurrent 4

  # Expose Prometheus metrics while mirroring
  wpmirror https://blog.example.com --metrics-addr 127.0.0.1:9090`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.ExactArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		progressMode = !verbose && !quiet
		if progressMode && !cmd.Flags().Changed("log-level") {
			logLevel = "error"
		}
		if cmd == cmd.Root() && !quiet {
			ui.PrintBanner()
		}
	},
	SilenceUsage: true,
	RunE:         runMirror,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.wpmirror.yaml or $HOME/.config/wpmirror/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (auto, console, json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress banner, progress and summary")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show log output instead of the progress bar")

	registerMirrorFlags(rootCmd)

	rootCmd.SetVersionTemplate(`wpmirror {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
