// Package testutil provides a fake WordPress REST API for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"wpmirror/pkg/wordpress"
)

// MockWordPress serves /wp-json/wp/v2/media, /wp-json/wp/v2/posts and any
// registered file path from memory.
type MockWordPress struct {
	server *httptest.Server

	mu    sync.Mutex
	media []wordpress.MediaItem
	posts []wordpress.Post
	files map[string]string
	// MaxPerPage makes larger per_page values answer 400, like WordPress
	// does above 100. Zero disables the check.
	maxPerPage int
	// pastEndStatus is sent for pages beyond the last one
	pastEndStatus int
	override      map[string]http.HandlerFunc

	requests    map[string]int
	pageQueries map[string][][2]int
}

// NewMockWordPress starts a mock site
func NewMockWordPress() *MockWordPress {
	m := &MockWordPress{
		files:         make(map[string]string),
		override:      make(map[string]http.HandlerFunc),
		requests:      make(map[string]int),
		pageQueries:   make(map[string][][2]int),
		pastEndStatus: http.StatusOK,
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the site root
func (m *MockWordPress) URL() string {
	return m.server.URL
}

// Close shuts the server down
func (m *MockWordPress) Close() {
	m.server.Close()
}

// SetMedia replaces the media library
func (m *MockWordPress) SetMedia(items []wordpress.MediaItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media = items
}

// SetPosts replaces the posts collection
func (m *MockWordPress) SetPosts(posts []wordpress.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = posts
}

// AddFile serves body at path
func (m *MockWordPress) AddFile(path, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = body
}

// SetMaxPerPage rejects larger page sizes with 400
func (m *MockWordPress) SetMaxPerPage(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxPerPage = n
}

// SetPastEndStatus chooses the status for pages past the end; WordPress
// itself answers 400 there, many caches answer 200 with an empty list.
func (m *MockWordPress) SetPastEndStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pastEndStatus = status
}

// Handle overrides the handler for path
func (m *MockWordPress) Handle(path string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override[path] = h
}

// Requests returns how often path was requested
func (m *MockWordPress) Requests(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[path]
}

// PageQueries returns the (page, per_page) pairs requested on path in order
func (m *MockWordPress) PageQueries(path string) [][2]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][2]int, len(m.pageQueries[path]))
	copy(out, m.pageQueries[path])
	return out
}

func (m *MockWordPress) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests[r.URL.Path]++
	h, overridden := m.override[r.URL.Path]
	m.mu.Unlock()

	if overridden {
		h(w, r)
		return
	}

	switch r.URL.Path {
	case "/wp-json/wp/v2/media":
		m.mu.Lock()
		items := m.media
		m.mu.Unlock()
		servePage(m, w, r, items)
	case "/wp-json/wp/v2/posts":
		m.mu.Lock()
		posts := m.posts
		m.mu.Unlock()
		servePage(m, w, r, posts)
	default:
		m.mu.Lock()
		body, ok := m.files[r.URL.Path]
		m.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}
}

func servePage[T any](m *MockWordPress, w http.ResponseWriter, r *http.Request, items []T) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	m.mu.Lock()
	m.pageQueries[r.URL.Path] = append(m.pageQueries[r.URL.Path], [2]int{page, perPage})
	maxPerPage, pastEnd := m.maxPerPage, m.pastEndStatus
	m.mu.Unlock()

	if page < 1 || perPage < 1 || (maxPerPage > 0 && perPage > maxPerPage) {
		writeError(w, http.StatusBadRequest, "rest_invalid_param", "Invalid parameter(s): per_page")
		return
	}

	start := (page - 1) * perPage
	if start >= len(items) {
		if pastEnd != http.StatusOK && page > 1 {
			writeError(w, pastEnd, "rest_post_invalid_page_number", "The page number requested is larger than the number of pages available.")
			return
		}
		writeJSON(w, []T{})
		return
	}
	end := min(start+perPage, len(items))
	writeJSON(w, items[start:end])
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    code,
		"message": message,
		"data":    map[string]int{"status": status},
	})
}
