package downloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"wpmirror/pkg/logger"
	"wpmirror/pkg/storage"
)

// mockSink records calls and reports failures for configured locators
type mockSink struct {
	delay    time.Duration
	failures map[string]error

	mu       sync.Mutex
	calls    []Job
	active   int32
	maxSeen  int32
}

func (m *mockSink) Store(ctx context.Context, locator, dateHint string) (storage.Result, error) {
	n := atomic.AddInt32(&m.active, 1)
	defer atomic.AddInt32(&m.active, -1)
	for {
		seen := atomic.LoadInt32(&m.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&m.maxSeen, seen, n) {
			break
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, Job{Locator: locator, DateHint: dateHint})
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if err := m.failures[locator]; err != nil {
		return storage.Result{Status: storage.StatusFailed}, err
	}
	return storage.Result{Status: storage.StatusStored, Bucket: storage.DateBucket(dateHint)}, nil
}

func jobs(n int) []Job {
	out := make([]Job, n)
	for i := range out {
		out[i] = Job{Locator: fmt.Sprintf("https://site.test/%d.jpg", i), DateHint: "2024-01-15T10:00:00"}
	}
	return out
}

func TestSingleWorkerPreservesOrder(t *testing.T) {
	sink := &mockSink{}
	pool := NewWorkerPool(1, sink, logger.NewNopLogger())

	var results []Result
	pool.ProcessAll(context.Background(), jobs(20), func(r Result) { results = append(results, r) })

	require.Len(t, results, 20)
	assert.Equal(t, jobs(20), sink.calls)
	for i, r := range results {
		assert.Equal(t, jobs(20)[i], r.Job)
		assert.Equal(t, storage.StatusStored, r.Store.Status)
		assert.Equal(t, "2024-01-15", r.Store.Bucket)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&sink.maxSeen))
}

func TestWorkerLimit(t *testing.T) {
	sink := &mockSink{delay: 20 * time.Millisecond}
	pool := NewWorkerPool(3, sink, logger.NewNopLogger())

	count := 0
	pool.ProcessAll(context.Background(), jobs(12), func(Result) { count++ })

	assert.Equal(t, 12, count)
	assert.LessOrEqual(t, atomic.LoadInt32(&sink.maxSeen), int32(3))
	assert.Greater(t, atomic.LoadInt32(&sink.maxSeen), int32(1))
}

func TestFailuresAreIndependent(t *testing.T) {
	all := jobs(5)
	sink := &mockSink{failures: map[string]error{all[2].Locator: errors.New("status 404")}}
	pool := NewWorkerPool(1, sink, logger.NewNopLogger())

	var failed, stored int
	pool.ProcessAll(context.Background(), all, func(r Result) {
		if r.Error != nil {
			failed++
			assert.Equal(t, all[2], r.Job)
			return
		}
		stored++
	})

	assert.Equal(t, 1, failed)
	assert.Equal(t, 4, stored)
}

func TestCancelledContextFailsPendingJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &mockSink{}
	pool := NewWorkerPool(1, sink, logger.NewNopLogger())

	var results []Result
	pool.ProcessAll(ctx, jobs(4), func(r Result) { results = append(results, r) })

	require.Len(t, results, 4)
	for _, r := range results {
		assert.Error(t, r.Error)
		assert.Equal(t, storage.StatusFailed, r.Store.Status)
	}
	assert.Empty(t, sink.calls)
}

func TestSubmitLifecycle(t *testing.T) {
	pool := NewWorkerPool(0, &mockSink{}, logger.NewNopLogger())
	assert.Error(t, pool.Submit(Job{Locator: "x"}), "submit before start")

	pool.Start(context.Background())
	done := make(chan int)
	go func() {
		n := 0
		for range pool.Results() {
			n++
		}
		done <- n
	}()

	require.NoError(t, pool.Submit(Job{Locator: "https://site.test/a.jpg"}))
	pool.Stop()
	assert.Equal(t, 1, <-done)

	assert.Error(t, pool.Submit(Job{Locator: "y"}), "submit after stop")
	assert.NotPanics(t, pool.Stop)
}
