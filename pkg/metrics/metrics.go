// Package metrics holds the Prometheus collectors for a mirror run and the
// optional HTTP listener that exposes them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PageRequests counts collection page requests by collection and outcome
	PageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpmirror_page_requests_total",
			Help: "Total number of REST collection page requests",
		},
		[]string{"collection", "outcome"}, // "ok", "bad_request", "network", "protocol", "parsing"
	)

	// PageSizeShrinks counts per_page halvings after a 400 response
	PageSizeShrinks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpmirror_page_size_shrinks_total",
			Help: "Total number of per_page reductions after a bad request",
		},
		[]string{"collection"},
	)

	// ItemsCollected counts unique items emitted by the paginator
	ItemsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpmirror_items_collected_total",
			Help: "Total number of unique collection items collected",
		},
		[]string{"collection"},
	)

	// DuplicateItems counts items dropped because their id was already seen
	DuplicateItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpmirror_duplicate_items_total",
			Help: "Total number of collection items dropped as duplicates",
		},
		[]string{"collection"},
	)

	// PaginationStops counts how pagination runs ended
	PaginationStops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpmirror_pagination_stops_total",
			Help: "Total number of finished pagination runs by stop reason",
		},
		[]string{"collection", "reason"},
	)

	// RequestDuration tracks REST request latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wpmirror_request_duration_seconds",
			Help:    "Duration of REST collection requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	// FallbackActivations counts switches from the media listing to post scraping
	FallbackActivations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wpmirror_fallback_activations_total",
			Help: "Total number of runs that fell back to scraping posts",
		},
	)

	// StoreResults counts sink outcomes
	StoreResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpmirror_store_results_total",
			Help: "Total number of resources handed to the sink by outcome",
		},
		[]string{"status"}, // "stored", "already_exists", "failed"
	)

	// BytesDownloaded counts bytes written to the mirror
	BytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wpmirror_bytes_downloaded_total",
			Help: "Total number of bytes written to the output tree",
		},
	)
)

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server exposes /metrics on a dedicated listener
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server bound to addr
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background. Listener errors are sent on the returned
// channel; it is closed when the server stops.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	return errc
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
