package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCollectors(t *testing.T) {
	PageRequests.WithLabelValues("media", "ok").Inc()
	FallbackActivations.Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, req)

	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "# HELP")
	assert.Contains(t, string(body), "wpmirror_page_requests_total")
	assert.Contains(t, string(body), "wpmirror_fallback_activations_total")
}

func TestServerShutdown(t *testing.T) {
	srv := NewServer("127.0.0.1:0")
	errc := srv.Start()
	// equivalent of t.Context() (go1.24+): canceled when the test finishes
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, srv.Shutdown(ctx))

	for err := range errc {
		assert.NoError(t, err)
	}
}
