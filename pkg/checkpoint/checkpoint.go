// Package checkpoint persists the progress of long benchmark runs so an
// interrupted run can resume where it stopped.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/soundprediction/duocdien/pkg/benchmark"
)

// ErrInvalidRunKey is returned when a run key contains invalid characters
var ErrInvalidRunKey = errors.New("invalid run key: contains path traversal or invalid characters")

// RunCheckpoint is the state of a partially evaluated benchmark run.
type RunCheckpoint struct {
	// Key names the checkpoint file; one checkpoint exists per key.
	Key      string `json:"key"`
	RunID    string `json:"run_id"`
	Answerer string `json:"answerer"`

	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`

	// Entries holds the scored questions of each set, in question order.
	Entries map[string][]benchmark.LogEntry `json:"entries"`
	// Completed marks sets that were evaluated to the end.
	Completed map[string]bool `json:"completed,omitempty"`
}

// NewRunCheckpoint starts an empty checkpoint.
func NewRunCheckpoint(key, runID, answerer string) *RunCheckpoint {
	now := time.Now()
	return &RunCheckpoint{
		Key:           key,
		RunID:         runID,
		Answerer:      answerer,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Entries:       make(map[string][]benchmark.LogEntry),
		Completed:     make(map[string]bool),
	}
}

// Done returns how many questions of label are already scored.
func (c *RunCheckpoint) Done(label string) int {
	return len(c.Entries[label])
}

// Add appends a scored question to label.
func (c *RunCheckpoint) Add(label string, entry benchmark.LogEntry) {
	if c.Entries == nil {
		c.Entries = make(map[string][]benchmark.LogEntry)
	}
	c.Entries[label] = append(c.Entries[label], entry)
}

// Complete marks label as fully evaluated.
func (c *RunCheckpoint) Complete(label string) {
	if c.Completed == nil {
		c.Completed = make(map[string]bool)
	}
	c.Completed[label] = true
}

// Manager stores checkpoints as JSON files in one directory.
type Manager struct {
	dir string
}

// NewManager creates a new checkpoint manager
// If dir is empty, uses os.TempDir()/duocdien-checkpoints
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "duocdien-checkpoints")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &Manager{dir: dir}, nil
}

// Dir returns the checkpoint directory path
func (m *Manager) Dir() string {
	return m.dir
}

func validateRunKey(key string) error {
	if key == "" {
		return ErrInvalidRunKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidRunKey
	}
	if strings.ContainsAny(key, `/\:`) {
		return ErrInvalidRunKey
	}
	if strings.ContainsRune(key, '\x00') {
		return ErrInvalidRunKey
	}
	return nil
}

// isPathWithinDirectory checks that the resolved path is within the expected directory.
func isPathWithinDirectory(path, directory string) bool {
	cleanPath := filepath.Clean(path)
	cleanDir := filepath.Clean(directory)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(cleanPath, cleanDir)
}

// Path returns the file path of the checkpoint for key.
func (m *Manager) Path(key string) (string, error) {
	if err := validateRunKey(key); err != nil {
		return "", err
	}

	fullPath := filepath.Join(m.dir, fmt.Sprintf("eval_%s.json", key))
	if !isPathWithinDirectory(fullPath, m.dir) {
		return "", ErrInvalidRunKey
	}
	return fullPath, nil
}

// Save persists the checkpoint to disk
func (m *Manager) Save(ctx context.Context, checkpoint *RunCheckpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	checkpoint.LastUpdatedAt = time.Now()

	path, err := m.Path(checkpoint.Key)
	if err != nil {
		return fmt.Errorf("invalid run key: %w", err)
	}

	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	// Write to a temporary file first, then rename for atomic write
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename checkpoint file: %w", err)
	}
	return nil
}

// Load reads the checkpoint for key. It returns nil, nil when none exists.
func (m *Manager) Load(ctx context.Context, key string) (*RunCheckpoint, error) {
	path, err := m.Path(key)
	if err != nil {
		return nil, fmt.Errorf("invalid run key: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var checkpoint RunCheckpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// LoadOrCreate returns the stored checkpoint for key, or a new one. The
// boolean reports whether a stored checkpoint was found.
func (m *Manager) LoadOrCreate(ctx context.Context, key, runID, answerer string) (*RunCheckpoint, bool, error) {
	checkpoint, err := m.Load(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if checkpoint != nil {
		return checkpoint, true, nil
	}
	return NewRunCheckpoint(key, runID, answerer), false, nil
}

// Delete removes the checkpoint for key. A missing checkpoint is not an error.
func (m *Manager) Delete(ctx context.Context, key string) error {
	path, err := m.Path(key)
	if err != nil {
		return fmt.Errorf("invalid run key: %w", err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint file: %w", err)
	}
	return nil
}

// List returns every readable checkpoint in the directory.
func (m *Manager) List(ctx context.Context) ([]*RunCheckpoint, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}

	var checkpoints []*RunCheckpoint
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			continue
		}
		var checkpoint RunCheckpoint
		if err := json.Unmarshal(data, &checkpoint); err != nil {
			continue
		}
		checkpoints = append(checkpoints, &checkpoint)
	}
	return checkpoints, nil
}

// CleanOld removes checkpoints not updated within maxAge.
func (m *Manager) CleanOld(ctx context.Context, maxAge time.Duration) (int, error) {
	checkpoints, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, checkpoint := range checkpoints {
		if checkpoint.LastUpdatedAt.Before(cutoff) {
			if err := m.Delete(ctx, checkpoint.Key); err != nil {
				continue
			}
			removed++
		}
	}
	return removed, nil
}
