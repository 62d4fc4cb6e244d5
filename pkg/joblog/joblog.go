// Package joblog maintains the append-only operator log.
//
// The on-disk format is the stable contract surfaced verbatim by the control
// surface: one "[YYYY-MM-DD HH:MM:SS] message" line per entry.
package joblog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// Log appends timestamped entries to a flat text file. Safe for concurrent use.
type Log struct {
	path string
	mu   sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// Open returns a Log writing to path. The file is created on first write.
func Open(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Printf appends one formatted entry.
func (l *Log) Printf(format string, args ...any) {
	entry := fmt.Sprintf("[%s] %s\n", l.now().Format(timestampLayout), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	_, _ = f.WriteString(entry)
}

// Tail returns the last n entries, oldest first. A missing file yields an
// empty slice.
func (l *Log) Tail(n int) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
