package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"reddar/internal/core"
	"reddar/internal/logger"
)

// ErrCorrupt marks a report file that exists but cannot be decoded. Callers
// must never treat a corrupt report as a missing one.
var ErrCorrupt = errors.New("corrupt report file")

// Store reads and writes cumulative reports, one JSON document per focus
// area. Merges for the same focus area are serialized; different focus areas
// proceed concurrently.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store rooted at dir. The directory is created lazily on
// first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}
}

// Path returns the canonical report path for a focus area.
func (s *Store) Path(focusArea string) string {
	return filepath.Join(s.dir, fmt.Sprintf("report_%s.json", focusArea))
}

// Load reads the report for a focus area. A missing file returns (nil, nil);
// a file that exists but does not decode returns an ErrCorrupt-wrapped error.
func (s *Store) Load(focusArea string) (*core.Report, error) {
	data, err := os.ReadFile(s.Path(focusArea))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report for %s: %w", focusArea, err)
	}

	var report core.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.Path(focusArea), err)
	}
	return &report, nil
}

// Save writes the report wholesale to its canonical path, creating the
// reports directory if needed.
func (s *Store) Save(report *core.Report) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report for %s: %w", report.FocusArea, err)
	}

	path := s.Path(report.FocusArea)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// SaveMerged folds a run into the stored report for its focus area (or
// creates the report on the first run) and persists the result. It returns
// the saved report and the new primary/secondary item counts.
func (s *Store) SaveMerged(run *core.RunReport) (*core.Report, int, int, error) {
	lock := s.lockFor(run.FocusArea)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.Load(run.FocusArea)
	if err != nil {
		return nil, 0, 0, err
	}

	var merged *core.Report
	var newItems, newSecondary int
	if existing != nil {
		merged, newItems, newSecondary = Merge(existing, run)
		logger.Info("merged into existing report",
			"focus_area", run.FocusArea, "new_items", newItems, "new_secondary", newSecondary)
	} else {
		merged, newItems, newSecondary = FirstRun(run)
		logger.Info("created first report", "focus_area", run.FocusArea)
	}

	if err := s.Save(merged); err != nil {
		return nil, 0, 0, err
	}
	return merged, newItems, newSecondary, nil
}

func (s *Store) lockFor(focusArea string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[focusArea]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[focusArea] = lock
	}
	return lock
}
