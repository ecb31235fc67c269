package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"wpmirror/pkg/config"
	"wpmirror/pkg/ui"
	"wpmirror/pkg/wordpress"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage wpmirror configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (WPMIRROR_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created in the current directory as '.wpmirror.yaml'
unless a different path is given with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the configuration that a mirror run would use, merged from
environment variables, the configuration file and defaults.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value ranges
  - Site URL form
  - Output and log directories are writable`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# wpmirror configuration file
# Values here are overridden by WPMIRROR_* environment variables and flags.

# Target site
site:
  # Site URL; usually given on the command line instead
  url: ""

  # User-Agent sent with every request
  user_agent: "wpmirror/1.0 (+https://wordpress.org/)"

# Collection paging
pagination:
  # Initial per_page for /wp-json/wp/v2/media; halved on every 400
  media_per_page: 100

  # Smallest per_page tried before giving up on a page
  min_per_page: 1

  # Fixed per_page for the /wp-json/wp/v2/posts fallback
  posts_per_page: 20

  # Apply the halving rule to the posts fallback as well
  shrink_posts: false

  # Timeout for one collection page request
  request_timeout: 10s

# Downloads
download:
  # Timeout for one file download, body included
  timeout: 15s

  # Number of files downloaded at once (1-10)
  concurrent_downloads: 1

# Output
output:
  # Directory the site folder is created in
  base_directory: "."

  # Site folder name is this prefix followed by the site domain
  folder_prefix: "downloaded_"

  # Write manifest.json into the site folder after each run
  write_manifest: true

# Logging
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log format: auto, console, json
  format: "auto"

  # Log file path (optional), always written as JSON lines
  file: ""

# Prometheus metrics
metrics:
  # Address to serve /metrics on while mirroring, e.g. "127.0.0.1:9090"
  listen_address: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".wpmirror.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintWarning("Configuration file already exists", configPath)
		return fmt.Errorf("refusing to overwrite %s", configPath)
	}

	if err := writeExampleConfig(configPath); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(ui.Out, "\nNext steps:")
	fmt.Fprintln(ui.Out, "1. Edit the configuration file")
	fmt.Fprintln(ui.Out, "2. Run 'wpmirror config validate' to check the configuration")
	fmt.Fprintln(ui.Out, "3. Start mirroring with 'wpmirror <site-url>'")
	return nil
}

func writeExampleConfig(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(exampleConfig), 0644)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		return err
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, string(data))

	fmt.Fprintln(ui.Out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(ui.Out, "1. Command line flags")
	fmt.Fprintln(ui.Out, "2. Environment variables (WPMIRROR_*)")
	if configFile != "" {
		fmt.Fprintf(ui.Out, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(ui.Out, "3. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(ui.Out, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		ui.PrintError("No configuration file given", "Specify a file with --config flag")
		return fmt.Errorf("no configuration file given")
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		return err
	}

	warnings, problems := checkConfig(cfg)
	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Fprintf(ui.Out, "  - %s\n", p)
		}
		return fmt.Errorf("configuration has %d error(s)", len(problems))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Fprintf(ui.Out, "  - %s\n", w)
		}
		fmt.Fprintln(ui.Out)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(ui.Out, "\nConfiguration summary:")
	fmt.Fprintf(ui.Out, "  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Fprintf(ui.Out, "  Media per_page: %d (floor %d)\n", cfg.Pagination.MediaPerPage, cfg.Pagination.MinPerPage)
	fmt.Fprintf(ui.Out, "  Posts per_page: %d (shrink: %t)\n", cfg.Pagination.PostsPerPage, cfg.Pagination.ShrinkPosts)
	fmt.Fprintf(ui.Out, "  Concurrent downloads: %d\n", cfg.Download.ConcurrentDownloads)
	fmt.Fprintf(ui.Out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// checkConfig runs Validate plus the checks that need the filesystem
func checkConfig(cfg *config.Config) (warnings, problems []string) {
	if err := cfg.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if cfg.Site.URL == "" {
		warnings = append(warnings, "site.url is empty; pass the site URL on the command line")
	} else if _, err := wordpress.NewSite(cfg.Site.URL); err != nil {
		problems = append(problems, err.Error())
	}

	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create output directory: %v", err))
		}
	}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if cfg.Download.ConcurrentDownloads > 1 && cfg.Logging.Level == "debug" {
		warnings = append(warnings, "debug logs from concurrent downloads interleave")
	}

	return warnings, problems
}
