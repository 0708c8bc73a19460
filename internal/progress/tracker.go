// Package progress provides resumable run state: a JSON tracker of
// per-file outcomes and an append-only error log.
package progress

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Status is a file's recorded outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Entry is one tracked file.
type Entry struct {
	Status    Status `json:"status"`
	Hash      string `json:"hash"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

type trackerFile struct {
	Files   map[string]*Entry `json:"files"`
	Updated string            `json:"updated"`
}

// Tracker records per-file outcomes so interrupted runs can resume
// without re-processing files that already succeeded. State is flushed
// to the backing JSON file on every mark.
type Tracker struct {
	mu   sync.Mutex
	path string
	seen map[string]*Entry
}

// NewTracker loads existing state from path when present.
func NewTracker(path string) *Tracker {
	t := &Tracker{path: path, seen: make(map[string]*Entry)}
	if path != "" {
		t.load()
	}
	return t
}

func (t *Tracker) load() {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return // nothing to resume
	}

	var tf trackerFile
	if err := json.Unmarshal(data, &tf); err != nil {
		slog.Warn("could not load progress file, starting fresh",
			"path", t.path, "error", err)
		return
	}
	if tf.Files != nil {
		t.seen = tf.Files
	}
}

func (t *Tracker) flush() {
	if t.path == "" {
		return
	}

	data, err := json.MarshalIndent(trackerFile{
		Files:   t.seen,
		Updated: time.Now().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		slog.Warn("could not marshal progress", "error", err)
		return
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		slog.Warn("could not save progress", "path", t.path, "error", err)
	}
}

// fileHash fingerprints a file by size and mtime; enough to notice the
// input changed since the recorded run.
func fileHash(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%d_%d", info.Size(), info.ModTime().Unix())))
	return fmt.Sprintf("%x", sum[:4])
}

// Done reports whether the file already succeeded and is unchanged.
func (t *Tracker) Done(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.seen[path]
	if !ok || entry.Status != StatusSuccess {
		return false
	}
	return entry.Hash == fileHash(path)
}

// MarkSuccess records a completed file.
func (t *Tracker) MarkSuccess(path, output string) {
	t.mark(path, &Entry{
		Status:    StatusSuccess,
		Hash:      fileHash(path),
		Output:    output,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// MarkError records a failed file.
func (t *Tracker) MarkError(path, errMsg string) {
	t.mark(path, &Entry{
		Status:    StatusError,
		Hash:      fileHash(path),
		Error:     errMsg,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (t *Tracker) mark(path string, e *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[path] = e
	t.flush()
}

// ClearFailed drops error entries so a retry run picks them up again.
func (t *Tracker) ClearFailed() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cleared := 0
	for path, entry := range t.seen {
		if entry.Status == StatusError {
			delete(t.seen, path)
			cleared++
		}
	}
	if cleared > 0 {
		t.flush()
	}
	return cleared
}

// Counts returns recorded success and error totals.
func (t *Tracker) Counts() (success, errors int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.seen {
		switch e.Status {
		case StatusSuccess:
			success++
		case StatusError:
			errors++
		}
	}
	return success, errors
}
