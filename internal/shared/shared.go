// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// LogSink is the writer behind a file logger. It appends to the log file and, until
// [LogSink.Quiet] is called, mirrors entries to the terminal.
type LogSink struct {
	mu   sync.Mutex
	file *os.File
	term io.Writer
}

func (s *LogSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.term != nil {
		_, _ = s.term.Write(p)
	}
	return s.file.Write(p)
}

// Quiet stops mirroring to the terminal. Loggers derived with [WithLogger] are affected too.
func (s *LogSink) Quiet() {
	s.mu.Lock()
	s.term = nil
	s.mu.Unlock()
}

// Close releases the log file.
func (s *LogSink) Close() error {
	return s.file.Close()
}

// NewFileLogger opens (or creates) the log file at path and returns a logger that writes to it.
//
// When tee is true, entries are also written to [os.Stderr].
func NewFileLogger(path string, tee bool) (*log.Logger, *LogSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	sink := &LogSink{file: f}
	if tee {
		sink.term = os.Stderr
	}
	return NewLogger(sink), sink, nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// ParseLogLevel converts a configured level name into a [log.Level], defaulting to info.
func ParseLogLevel(s string) log.Level {
	if strings.TrimSpace(s) == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}
