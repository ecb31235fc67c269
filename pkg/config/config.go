package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the media mirror
type Config struct {
	// Target site
	Site SiteConfig `yaml:"site" json:"site"`

	// REST collection paging
	Pagination PaginationConfig `yaml:"pagination" json:"pagination"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// SiteConfig identifies the site being mirrored
type SiteConfig struct {
	URL       string `yaml:"url" json:"url" validate:"omitempty,url"`
	UserAgent string `yaml:"user_agent" json:"user_agent" validate:"required"`
}

// PaginationConfig controls how collection endpoints are paged
type PaginationConfig struct {
	MediaPerPage   int           `yaml:"media_per_page" json:"media_per_page" validate:"min=1"`
	MinPerPage     int           `yaml:"min_per_page" json:"min_per_page" validate:"min=1"`
	PostsPerPage   int           `yaml:"posts_per_page" json:"posts_per_page" validate:"min=1"`
	ShrinkPosts    bool          `yaml:"shrink_posts" json:"shrink_posts"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" validate:"gt=0"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Timeout             time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads" validate:"min=1,max=10"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory" validate:"required"`
	FolderPrefix  string `yaml:"folder_prefix" json:"folder_prefix"`
	WriteManifest bool   `yaml:"write_manifest" json:"write_manifest"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	File   string `yaml:"file" json:"file"`
	Format string `yaml:"format" json:"format" validate:"oneof=auto console json"`
}

// MetricsConfig configures the optional Prometheus listener
type MetricsConfig struct {
	ListenAddress string `yaml:"listen_address" json:"listen_address" validate:"omitempty,hostname_port"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			UserAgent: "wpmirror/1.0 (+https://wordpress.org/)",
		},
		Pagination: PaginationConfig{
			MediaPerPage:   100,
			MinPerPage:     1,
			PostsPerPage:   20,
			ShrinkPosts:    false,
			RequestTimeout: 10 * time.Second,
		},
		Download: DownloadConfig{
			Timeout:             15 * time.Second,
			ConcurrentDownloads: 1,
		},
		Output: OutputConfig{
			BaseDirectory: ".",
			FolderPrefix:  "downloaded_",
			WriteManifest: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Format: "auto",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if siteURL := os.Getenv("WPMIRROR_SITE_URL"); siteURL != "" {
		c.Site.URL = siteURL
	}
	if userAgent := os.Getenv("WPMIRROR_USER_AGENT"); userAgent != "" {
		c.Site.UserAgent = userAgent
	}

	if perPage := os.Getenv("WPMIRROR_MEDIA_PER_PAGE"); perPage != "" {
		var val int
		fmt.Sscanf(perPage, "%d", &val)
		if val > 0 {
			c.Pagination.MediaPerPage = val
		}
	}
	if perPage := os.Getenv("WPMIRROR_POSTS_PER_PAGE"); perPage != "" {
		var val int
		fmt.Sscanf(perPage, "%d", &val)
		if val > 0 {
			c.Pagination.PostsPerPage = val
		}
	}
	if timeout := os.Getenv("WPMIRROR_REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid WPMIRROR_REQUEST_TIMEOUT: %w", err)
		}
		c.Pagination.RequestTimeout = d
	}

	if timeout := os.Getenv("WPMIRROR_DOWNLOAD_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid WPMIRROR_DOWNLOAD_TIMEOUT: %w", err)
		}
		c.Download.Timeout = d
	}
	if concurrent := os.Getenv("WPMIRROR_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	if outputDir := os.Getenv("WPMIRROR_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if manifest := os.Getenv("WPMIRROR_WRITE_MANIFEST"); manifest != "" {
		c.Output.WriteManifest = strings.ToLower(manifest) == "true"
	}

	if logLevel := os.Getenv("WPMIRROR_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat := os.Getenv("WPMIRROR_LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if addr := os.Getenv("WPMIRROR_METRICS_ADDR"); addr != "" {
		c.Metrics.ListenAddress = addr
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".wpmirror.yaml",
		".wpmirror.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "wpmirror", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "wpmirror", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".wpmirror.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Errorf("%s: failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	if c.Pagination.MinPerPage > c.Pagination.MediaPerPage {
		errs = append(errs, errors.New("min per page cannot exceed media per page"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if siteURL, ok := flags["site-url"].(string); ok && siteURL != "" {
		c.Site.URL = siteURL
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat, ok := flags["log-format"].(string); ok && logFormat != "" {
		c.Logging.Format = logFormat
	}
	if addr, ok := flags["metrics-addr"].(string); ok && addr != "" {
		c.Metrics.ListenAddress = addr
	}
	if manifest, ok := flags["write-manifest"].(bool); ok {
		c.Output.WriteManifest = manifest
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".wpmirror.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
