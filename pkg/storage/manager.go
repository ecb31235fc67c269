package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/blake2b"
	wperrors "wpmirror/pkg/errors"
	"wpmirror/pkg/logger"
	"wpmirror/pkg/metrics"
)

// Status is the outcome of storing one resource
type Status string

const (
	StatusStored        Status = "stored"
	StatusAlreadyExists Status = "already_exists"
	StatusFailed        Status = "failed"
)

// Result describes what Store did with a locator
type Result struct {
	Status Status
	// Path is the destination file, set even when the download failed
	Path   string
	Bucket string
	Size   int64
	// Digest is the hex BLAKE2b-256 of the written file
	Digest string
}

// Downloader opens a resource for reading
type Downloader interface {
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Manager stores resources under a base directory, one subdirectory per date
type Manager struct {
	baseDir    string
	downloader Downloader
	logger     logger.Logger

	mu      sync.Mutex
	known   map[string]bool
	pending map[string]*sync.Mutex
}

// NewManager creates a new storage manager rooted at baseDir
func NewManager(baseDir string, downloader Downloader, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Manager{
		baseDir:    baseDir,
		downloader: downloader,
		logger:     log,
		known:      make(map[string]bool),
		pending:    make(map[string]*sync.Mutex),
	}, nil
}

// BaseDir returns the root of the mirror tree
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Store downloads locator into the bucket for dateHint unless the target file
// already exists. A failed download is reported both in the Result and as the
// returned error; nothing is left behind on disk in that case.
func (m *Manager) Store(ctx context.Context, locator, dateHint string) (Result, error) {
	bucket := DateBucket(dateHint)
	dir := filepath.Join(m.baseDir, bucket)
	path := filepath.Join(dir, FilenameFor(locator))
	res := Result{Path: path, Bucket: bucket}

	unlock := m.lockPath(path)
	defer unlock()

	if m.exists(path) {
		res.Status = StatusAlreadyExists
		m.record(locator, res, nil)
		return res, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return m.fail(locator, res, fmt.Errorf("failed to create date directory: %w", err))
	}

	body, err := m.downloader.Download(ctx, locator)
	if err != nil {
		return m.fail(locator, res, err)
	}
	defer body.Close()

	size, digest, err := writeAtomic(path, body)
	if err != nil {
		return m.fail(locator, res, err)
	}

	m.mu.Lock()
	m.known[path] = true
	m.mu.Unlock()

	res.Status = StatusStored
	res.Size = size
	res.Digest = digest
	metrics.BytesDownloaded.Add(float64(size))
	m.record(locator, res, nil)
	return res, nil
}

// exists checks the in-memory cache first, then the filesystem
func (m *Manager) exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.known[path] {
		return true
	}
	if _, err := os.Stat(path); err == nil {
		m.known[path] = true
		return true
	}
	return false
}

// lockPath serializes work on one destination file. References that differ
// but map to the same file name must not write the same temp file at once.
func (m *Manager) lockPath(path string) func() {
	m.mu.Lock()
	l, ok := m.pending[path]
	if !ok {
		l = &sync.Mutex{}
		m.pending[path] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (m *Manager) fail(locator string, res Result, err error) (Result, error) {
	res.Status = StatusFailed
	if wperrors.TypeOf(err) == wperrors.ErrorTypeUnknown {
		err = wperrors.Wrap(wperrors.ErrorTypeUnknown, 0, "failed to store resource", err)
	}
	m.record(locator, res, err)
	return res, err
}

func (m *Manager) record(locator string, res Result, err error) {
	metrics.StoreResults.WithLabelValues(string(res.Status)).Inc()
	logger.LogStore(m.logger, locator, res.Path, string(res.Status), err)
}

// writeAtomic streams r into path via a temporary file, returning the byte
// count and hex digest of what was written.
func writeAtomic(path string, r io.Reader) (int64, string, error) {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	hash, _ := blake2b.New256(nil)
	n, err := io.Copy(io.MultiWriter(out, hash), r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, "", wperrors.Wrap(wperrors.ErrorTypeNetwork, 0, "failed to read resource body", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return 0, "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return n, hex.EncodeToString(hash.Sum(nil)), nil
}
