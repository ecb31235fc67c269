package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"wpmirror/pkg/logger"
	"wpmirror/pkg/storage"
)

// Job is one resource reference waiting to be stored
type Job struct {
	Locator  string
	DateHint string
}

// Result is the outcome of a Job
type Result struct {
	Job      Job
	Store    storage.Result
	Error    error
	Duration time.Duration
}

// Sink persists a single resource
type Sink interface {
	Store(ctx context.Context, locator, dateHint string) (storage.Result, error)
}

// WorkerPool feeds jobs to a Sink with bounded parallelism. Jobs are
// independent: a failed job never affects another one. With one worker jobs
// are stored strictly in submission order.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	sink        Sink
	logger      logger.Logger

	group    errgroup.Group
	dispatch sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewWorkerPool creates a new worker pool; numWorkers below 1 means 1
func NewWorkerPool(numWorkers int, sink Sink, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		sink:        sink,
		logger:      log,
	}
}

// Start begins dispatching submitted jobs. Cancelling ctx makes pending jobs
// fail fast; it does not close the pool.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.started {
		return
	}
	wp.started = true
	wp.ctx, wp.cancel = context.WithCancel(ctx)
	wp.group.SetLimit(wp.numWorkers)

	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	wp.dispatch.Add(1)
	go func() {
		defer wp.dispatch.Done()
		for job := range wp.jobQueue {
			job := job // per-iteration copy; go.mod targets go1.21 (pre-1.22 loopvar semantics)
			// Go blocks while numWorkers jobs are in flight
			wp.group.Go(func() error {
				wp.resultQueue <- wp.process(job)
				return nil
			})
		}
	}()
}

// Submit queues a job; it blocks while the queue is full
func (wp *WorkerPool) Submit(job Job) error {
	wp.mu.Lock()
	closed, started := wp.closed, wp.started
	wp.mu.Unlock()

	if !started {
		return fmt.Errorf("worker pool is not started")
	}
	if closed {
		return fmt.Errorf("worker pool is shutting down")
	}

	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel. It must be drained while jobs are
// submitted and is closed by Stop.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// Stop waits for every submitted job to finish and closes Results
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.closed || !wp.started {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	wp.mu.Unlock()

	close(wp.jobQueue)
	wp.dispatch.Wait()
	_ = wp.group.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// ProcessAll stores every job and calls onResult for each outcome from a
// single goroutine.
func (wp *WorkerPool) ProcessAll(ctx context.Context, jobs []Job, onResult func(Result)) {
	wp.Start(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range wp.Results() {
			if onResult != nil {
				onResult(res)
			}
		}
	}()

	// the pool only refuses work once ctx is done
	var refused []Result
	for _, job := range jobs {
		if err := wp.Submit(job); err != nil {
			refused = append(refused, Result{Job: job, Error: err, Store: storage.Result{Status: storage.StatusFailed}})
		}
	}

	wp.Stop()
	<-done

	if onResult != nil {
		for _, res := range refused {
			onResult(res)
		}
	}
}

func (wp *WorkerPool) process(job Job) Result {
	start := time.Now()
	res := Result{Job: job}

	if err := wp.ctx.Err(); err != nil {
		res.Error = err
		res.Store.Status = storage.StatusFailed
		return res
	}

	res.Store, res.Error = wp.sink.Store(wp.ctx, job.Locator, job.DateHint)
	res.Duration = time.Since(start)
	return res
}
