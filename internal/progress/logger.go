package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrorLog appends per-file failures to a line-oriented log file and
// keeps a count for the run summary.
type ErrorLog struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	count int
}

// NewErrorLog opens (or creates) the log file for appending.
func NewErrorLog(path string) (*ErrorLog, error) {
	l := &ErrorLog{path: path}

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("could not create log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		l.file = file
	}
	return l, nil
}

// Record appends one failure line.
func (l *ErrorLog) Record(path, errMsg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.file != nil {
		fmt.Fprintf(l.file, "%s | %s | %s\n",
			time.Now().Format(time.RFC3339), filepath.Base(path), errMsg)
	}
}

// Count returns the number of recorded failures.
func (l *ErrorLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Summary describes the log for the end-of-run banner.
func (l *ErrorLog) Summary() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 {
		return "No errors"
	}
	return fmt.Sprintf("%d errors logged to %s", l.count, l.path)
}

// Close closes the backing file.
func (l *ErrorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
