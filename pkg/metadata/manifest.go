// Package metadata records what a mirror run did in a manifest.json file next
// to the mirrored tree.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ManifestFile is the name of the manifest inside the mirror directory
const ManifestFile = "manifest.json"

// Manifest describes a single mirror run
type Manifest struct {
	RunID      string    `json:"run_id"`
	Site       string    `json:"site"`
	Phase      string    `json:"phase"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	Collections []Collection `json:"collections"`
	Entries     []Entry      `json:"entries"`

	mu sync.Mutex
}

// Collection summarizes one pagination run
type Collection struct {
	Name     string `json:"name"`
	Items    int    `json:"items"`
	Pages    int    `json:"pages"`
	Requests int    `json:"requests"`
	Stop     string `json:"stop"`
	Error    string `json:"error,omitempty"`
}

// Entry is one resource handed to the sink
type Entry struct {
	Locator  string `json:"locator"`
	DateHint string `json:"date_hint,omitempty"`
	Bucket   string `json:"bucket"`
	Path     string `json:"path"`
	Status   string `json:"status"`
	Size     int64  `json:"size,omitempty"`
	Digest   string `json:"digest,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewManifest starts a manifest for site. An empty runID gets a random one.
func NewManifest(site, runID string) *Manifest {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Manifest{
		RunID:     runID,
		Site:      site,
		StartedAt: time.Now().UTC(),
	}
}

// SetPhase records which collection the run ended up using
func (m *Manifest) SetPhase(phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Phase = phase
}

// AddCollection appends a pagination summary
func (m *Manifest) AddCollection(c Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Collections = append(m.Collections, c)
}

// Add appends an entry. Safe for concurrent use.
func (m *Manifest) Add(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, e)
}

// Counts returns the number of entries per status
func (m *Manifest) Counts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int)
	for _, e := range m.Entries {
		counts[e.Status]++
	}
	return counts
}

// Save stamps FinishedAt and writes the manifest into dir. Entries are sorted
// by path so repeated runs produce comparable files.
func (m *Manifest) Save(dir string) (string, error) {
	m.mu.Lock()
	m.FinishedAt = time.Now().UTC()
	sort.SliceStable(m.Entries, func(i, j int) bool {
		return m.Entries[i].Path < m.Entries[j].Path
	})
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}

	path := filepath.Join(dir, ManifestFile)
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename manifest file: %w", err)
	}
	return path, nil
}

// Load reads a manifest written by Save
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}
