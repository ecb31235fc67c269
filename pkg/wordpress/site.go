package wordpress

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	mediaPath = "/wp-json/wp/v2/media"
	postsPath = "/wp-json/wp/v2/posts"
)

var schemePrefix = regexp.MustCompile(`^https?://`)

// Site describes the WordPress installation being mirrored
type Site struct {
	// URL is the site URL as given, without trailing slashes
	URL string
	// Domain names the output folder, e.g. "blog.example.com"
	Domain string

	root *url.URL
}

// NewSite parses a site URL. A URL without a scheme is assumed to be https.
func NewSite(raw string) (*Site, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("site URL is empty")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", raw, err)
	}

	domain := u.Host
	if domain == "" {
		if u.Scheme == "http" || u.Scheme == "https" {
			return nil, fmt.Errorf("site URL %q has no host", raw)
		}
		domain = schemePrefix.ReplaceAllString(trimmed, "")
		u, err = url.Parse("https://" + domain)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid site URL %q", raw)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in site URL %q", u.Scheme, raw)
	}

	return &Site{
		URL:    trimmed,
		Domain: domain,
		root:   &url.URL{Scheme: u.Scheme, Host: u.Host},
	}, nil
}

// BaseURL is the scheme and host that relative references resolve against
func (s *Site) BaseURL() string {
	return s.root.String()
}

// MediaURL is the media collection endpoint
func (s *Site) MediaURL() string {
	return s.endpoint(mediaPath)
}

// PostsURL is the posts collection endpoint
func (s *Site) PostsURL() string {
	return s.endpoint(postsPath)
}

// BaseFolder is the name of the directory the mirror is written to
func (s *Site) BaseFolder(prefix string) string {
	return prefix + strings.ReplaceAll(s.Domain, "/", "_")
}

func (s *Site) endpoint(path string) string {
	return s.root.ResolveReference(&url.URL{Path: path}).String()
}
