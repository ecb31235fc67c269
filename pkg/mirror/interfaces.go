package mirror

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"wpmirror/pkg/paginate"
	"wpmirror/pkg/storage"
	"wpmirror/pkg/wordpress"
)

// Client fetches pages of the two REST collections
type Client interface {
	MediaPage(ctx context.Context, req paginate.PageRequest) ([]wordpress.MediaItem, error)
	PostsPage(ctx context.Context, req paginate.PageRequest) ([]wordpress.Post, error)
}

// Sink persists one resource into the mirror tree
type Sink interface {
	Store(ctx context.Context, locator, dateHint string) (storage.Result, error)
}
