package wordpress

// MediaItem is one entry of /wp-json/wp/v2/media
type MediaItem struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	SourceURL string `json:"source_url"`
	MimeType  string `json:"mime_type,omitempty"`
}

// Post is one entry of /wp-json/wp/v2/posts
type Post struct {
	ID      int64    `json:"id"`
	Date    string   `json:"date"`
	Link    string   `json:"link,omitempty"`
	Content Rendered `json:"content"`
}

// Rendered wraps a field the REST API returns as rendered HTML
type Rendered struct {
	Rendered string `json:"rendered"`
}

// MediaID returns the identity used for duplicate detection
func MediaID(m MediaItem) int64 { return m.ID }

// PostID returns the identity used for duplicate detection
func PostID(p Post) int64 { return p.ID }

// apiError is the body WordPress sends with non-200 responses
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
