package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	wperrors "wpmirror/pkg/errors"
	"wpmirror/pkg/logger"
	"wpmirror/pkg/paginate"
)

// ClientConfig holds the HTTP settings of a Client
type ClientConfig struct {
	// APITimeout bounds each collection page request
	APITimeout time.Duration
	// DownloadTimeout bounds each resource download, body included
	DownloadTimeout time.Duration
	UserAgent       string
}

// Client talks to the WordPress REST API of one site
type Client struct {
	site       *Site
	apiClient  *http.Client
	fileClient *http.Client
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates a new REST client for site
func NewClient(site *Site, cfg ClientConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		site:       site,
		apiClient:  &http.Client{Timeout: cfg.APITimeout},
		fileClient: &http.Client{Timeout: cfg.DownloadTimeout},
		headers: map[string]string{
			"User-Agent": cfg.UserAgent,
			"Accept":     "application/json",
		},
		logger: log,
	}
}

// Site returns the site this client talks to
func (c *Client) Site() *Site {
	return c.site
}

// MediaPage fetches one page of the media collection
func (c *Client) MediaPage(ctx context.Context, req paginate.PageRequest) ([]MediaItem, error) {
	var items []MediaItem
	if err := c.getPage(ctx, c.site.MediaURL(), req, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// PostsPage fetches one page of the posts collection
func (c *Client) PostsPage(ctx context.Context, req paginate.PageRequest) ([]Post, error) {
	var posts []Post
	if err := c.getPage(ctx, c.site.PostsURL(), req, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// getPage requests endpoint?page=N&per_page=M and decodes a JSON array into v
func (c *Client) getPage(ctx context.Context, endpoint string, req paginate.PageRequest, v interface{}) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return wperrors.Wrap(wperrors.ErrorTypeUnknown, 0, "invalid endpoint", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("per_page", strconv.Itoa(req.PerPage))
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return wperrors.Wrap(wperrors.ErrorTypeUnknown, 0, "failed to create request", err)
	}

	resp, err := c.doRequest(c.apiClient, httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponseStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return wperrors.Wrap(wperrors.ErrorTypeParsing, resp.StatusCode, "failed to decode collection page", err)
	}
	return nil
}

// Download starts fetching a resource. The caller must close the returned body.
func (c *Client) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, wperrors.Wrap(wperrors.ErrorTypeUnknown, 0, "failed to create request", err)
	}

	resp, err := c.doRequest(c.fileClient, httpReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, wperrors.New(
			wperrors.TypeForStatus(resp.StatusCode),
			resp.StatusCode,
			fmt.Sprintf("status %d for URL: %s", resp.StatusCode, rawURL),
		)
	}
	return resp.Body, nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(client *http.Client, req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL.String(),
			"error":       err.Error(),
			"duration_ms": elapsed,
		})
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, wperrors.Wrap(wperrors.ErrorTypeNetwork, 0, "request failed", err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, elapsed)
	return resp, nil
}

// checkResponseStatus maps a non-200 collection response to a typed error
func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	message := fmt.Sprintf("unexpected status %d", resp.StatusCode)
	var body apiError
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
		if json.Unmarshal(data, &body) == nil && body.Code != "" {
			message = fmt.Sprintf("%s: %s", body.Code, body.Message)
		}
	}

	return wperrors.New(wperrors.TypeForStatus(resp.StatusCode), resp.StatusCode, message)
}
