package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps a running tally of sink outcomes for the progress line
type StatusTracker struct {
	mu            sync.Mutex
	Total         int
	Stored        int
	AlreadyExists int
	Failed        int
	Bytes         int64
	StartTime     time.Time
}

// NewStatusTracker creates a tracker expecting total items; total may be 0
// when it is not yet known.
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

// Record counts one sink outcome ("stored", "already_exists" or "failed")
func (st *StatusTracker) Record(status string, size int64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	switch status {
	case "stored":
		st.Stored++
		st.Bytes += size
	case "already_exists":
		st.AlreadyExists++
	default:
		st.Failed++
	}
}

// Done returns how many items have been handled
func (st *StatusTracker) Done() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.done()
}

func (st *StatusTracker) done() int {
	return st.Stored + st.AlreadyExists + st.Failed
}

// GetProgressBar returns a formatted progress bar
func (st *StatusTracker) GetProgressBar() string {
	st.mu.Lock()
	defer st.mu.Unlock()

	const width = 20
	done := st.done()
	if st.Total <= 0 {
		return fmt.Sprintf("[%s] %d", strings.Repeat(ProgressEmpty, width), done)
	}

	filled := min(width, done*width/st.Total)
	bar := strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, done, st.Total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetRate returns handled items per minute
func (st *StatusTracker) GetRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Done()) / elapsed
}

// PrintProgress redraws the progress line in place
func (st *StatusTracker) PrintProgress() {
	bar := st.GetProgressBar()
	st.mu.Lock()
	stored, skipped, failed := st.Stored, st.AlreadyExists, st.Failed
	st.mu.Unlock()

	fmt.Fprintf(Out, "\r%s %s %s %s %s",
		Green("[MIRRORING]"),
		bar,
		Green(fmt.Sprintf("ok:%d", stored)),
		Dim(fmt.Sprintf("skip:%d", skipped)),
		Red(fmt.Sprintf("fail:%d", failed)))
}
