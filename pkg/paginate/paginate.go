// Package paginate walks a page-numbered REST collection until it is
// exhausted, negotiating the page size down when the server rejects it and
// stopping as soon as a page brings nothing new.
package paginate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wperrors "wpmirror/pkg/errors"
	"wpmirror/pkg/logger"
	"wpmirror/pkg/metrics"
)

// StopReason records why a pagination run ended
type StopReason string

const (
	// StopExhausted: the server returned an empty page
	StopExhausted StopReason = "exhausted"
	// StopStagnant: a non-empty page contained only ids already seen
	StopStagnant StopReason = "stagnant"
	// StopBadRequest: a 400 response at the page size floor (or with shrinking disabled)
	StopBadRequest StopReason = "bad_request"
	// StopTransport: connection failure or timeout
	StopTransport StopReason = "transport"
	// StopProtocol: any other unexpected status or an undecodable body
	StopProtocol StopReason = "protocol"
	// StopCancelled: the context was cancelled
	StopCancelled StopReason = "cancelled"
)

// Failed reports whether the run ended on an error rather than at the end of
// the collection.
func (r StopReason) Failed() bool {
	switch r {
	case StopExhausted, StopStagnant:
		return false
	default:
		return true
	}
}

// PageRequest identifies one page of a collection
type PageRequest struct {
	Page    int
	PerPage int
}

// Fetcher retrieves one page. A *errors.Error return value tells Collect how
// to react; untyped errors are treated as protocol failures.
type Fetcher[T any] func(ctx context.Context, req PageRequest) ([]T, error)

// Options configures one Collect call
type Options struct {
	// Name labels log lines and metrics, e.g. "media"
	Name string
	// InitialPageSize is the per_page of the first request
	InitialPageSize int
	// MinPageSize is the floor for page size negotiation; values below 1 mean 1
	MinPageSize int
	// Shrink enables halving per_page on a 400 response
	Shrink bool
	Logger logger.Logger
}

// Result is the outcome of a Collect call. Items is always usable, even when
// Stop reports a failure.
type Result[T any] struct {
	Items    []T
	Pages    int
	Requests int
	Stop     StopReason
	Err      error
}

// Collect requests pages 1, 2, ... through fetch and returns every item whose
// id has not been emitted before, in server order.
//
// A 400 response halves the page size (never below MinPageSize) and retries
// the same page when Shrink is set; at the floor, or without Shrink, it ends
// the run. An empty page ends the run, as does a page made up entirely of
// already-seen ids. Every other error ends the run without retry.
func Collect[T any](ctx context.Context, fetch Fetcher[T], id func(T) int64, opts Options) Result[T] {
	opts = opts.withDefaults()
	log := opts.Logger.WithField("collection", opts.Name)
	tag := "[" + strings.ToUpper(opts.Name) + "]"

	var res Result[T]
	seen := make(map[int64]struct{})
	page := 1
	perPage := opts.InitialPageSize

	finish := func(reason StopReason, err error) Result[T] {
		res.Stop = reason
		res.Err = err
		metrics.PaginationStops.WithLabelValues(opts.Name, string(reason)).Inc()
		log.InfoWithFields(fmt.Sprintf("%s Pagination finished", tag), map[string]interface{}{
			"reason":   string(reason),
			"items":    len(res.Items),
			"pages":    res.Pages,
			"requests": res.Requests,
		})
		return res
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(StopCancelled, err)
		}

		log.Info(fmt.Sprintf("%s Requesting page %d (per_page=%d)", tag, page, perPage))
		start := time.Now()
		batch, err := fetch(ctx, PageRequest{Page: page, PerPage: perPage})
		metrics.RequestDuration.WithLabelValues(opts.Name).Observe(time.Since(start).Seconds())
		res.Requests++

		if err != nil {
			errType := wperrors.TypeOf(err)
			if errType == wperrors.ErrorTypeUnknown {
				errType = wperrors.ErrorTypeProtocol
			}
			metrics.PageRequests.WithLabelValues(opts.Name, string(errType)).Inc()

			switch {
			case ctx.Err() != nil || errors.Is(err, context.Canceled):
				log.WithError(err).Warn(fmt.Sprintf("%s Cancelled while requesting page %d", tag, page))
				return finish(StopCancelled, err)

			case errType == wperrors.ErrorTypeNetwork:
				log.WithError(err).Error(fmt.Sprintf("%s Exception requesting page %d", tag, page))
				return finish(StopTransport, err)

			case errType == wperrors.ErrorTypeBadRequest:
				if !opts.Shrink {
					log.Warn(fmt.Sprintf("%s 400 error on page=%d, per_page=%d. Stopping.", tag, page, perPage))
					return finish(StopBadRequest, err)
				}
				if perPage <= opts.MinPageSize {
					log.Warn(fmt.Sprintf("%s Already at per_page=%d and still failing. Stopping.", tag, perPage))
					return finish(StopBadRequest, err)
				}
				log.Warn(fmt.Sprintf("%s 400 error on page=%d, per_page=%d. Reducing per_page.", tag, page, perPage))
				perPage = max(opts.MinPageSize, perPage/2)
				metrics.PageSizeShrinks.WithLabelValues(opts.Name).Inc()
				continue

			default:
				log.WithError(err).Warn(fmt.Sprintf("%s Unexpected response for page %d. Stopping.", tag, page))
				return finish(StopProtocol, err)
			}
		}

		metrics.PageRequests.WithLabelValues(opts.Name, "ok").Inc()
		if len(batch) == 0 {
			return finish(StopExhausted, nil)
		}
		res.Pages++

		fresh := 0
		for _, item := range batch {
			key := id(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			res.Items = append(res.Items, item)
			fresh++
		}
		metrics.ItemsCollected.WithLabelValues(opts.Name).Add(float64(fresh))
		if dups := len(batch) - fresh; dups > 0 {
			metrics.DuplicateItems.WithLabelValues(opts.Name).Add(float64(dups))
			log.DebugWithFields(fmt.Sprintf("%s Dropped duplicate items", tag), map[string]interface{}{
				"page":       page,
				"duplicates": dups,
			})
		}

		if fresh == 0 {
			log.Info(fmt.Sprintf("%s Page %d returned only duplicates. Stopping early.", tag, page))
			return finish(StopStagnant, nil)
		}

		page++
	}
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "collection"
	}
	if o.MinPageSize < 1 {
		o.MinPageSize = 1
	}
	if o.InitialPageSize < o.MinPageSize {
		o.InitialPageSize = o.MinPageSize
	}
	if o.Logger == nil {
		o.Logger = logger.NewNopLogger()
	}
	return o
}
