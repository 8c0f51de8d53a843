package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxRecords caps how many individual requests the log keeps. Totals keep
// accumulating after old requests are dropped.
const maxRecords = 100

// Message is one turn of the prompt sent to the model.
type Message struct {
	Role    string `json:"role"` // system or user
	Content string `json:"content"`
}

// Record is one logged LLM request.
type Record struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	LatencyMS        int64     `json:"latency_ms"`
	Messages         []Message `json:"messages"`
	Response         string    `json:"response"`
	Reasoning        string    `json:"reasoning,omitempty"`
}

// Totals are running counters across the whole lifetime of the log,
// including requests that have aged out of the Requests list.
type Totals struct {
	Requests         int `json:"requests"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Log is the persisted usage file: most recent requests first.
type Log struct {
	Requests []Record `json:"requests"`
	Totals   Totals   `json:"totals"`
}

// Recorder accepts usage records. Recording is best-effort; implementations
// return an error for the caller to log, never to fail a request on.
type Recorder interface {
	Record(rec Record) error
}

// FileRecorder persists usage to a single JSON file.
type FileRecorder struct {
	mu   sync.Mutex
	path string
}

// NewFileRecorder creates a recorder writing to path (e.g. data/usage.json).
func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{path: path}
}

// Record prepends rec to the log, trims to the cap, bumps totals, and
// rewrites the file.
func (r *FileRecorder) Record(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log, err := r.load()
	if err != nil {
		return err
	}

	if rec.ID == "" {
		rec.ID = "req_" + uuid.New().String()[:8]
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	log.Requests = append([]Record{rec}, log.Requests...)
	if len(log.Requests) > maxRecords {
		log.Requests = log.Requests[:maxRecords]
	}
	log.Totals.Requests++
	log.Totals.PromptTokens += rec.PromptTokens
	log.Totals.CompletionTokens += rec.CompletionTokens
	log.Totals.TotalTokens += rec.TotalTokens

	return r.save(log)
}

// Load returns the current log. A missing file yields an empty log.
func (r *FileRecorder) Load() (Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *FileRecorder) load() (Log, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return Log{}, nil
	}
	if err != nil {
		return Log{}, fmt.Errorf("failed to read usage log: %w", err)
	}
	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		return Log{}, fmt.Errorf("failed to parse usage log %s: %w", r.path, err)
	}
	return log, nil
}

func (r *FileRecorder) save(log Log) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create usage log directory: %w", err)
	}
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode usage log: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write usage log: %w", err)
	}
	return nil
}
