// Package logger provides leveled file logging for the dashboard.
//
// The TUI owns the terminal, so log output always goes to a file. An empty
// path disables logging entirely; all calls become no-ops.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogLevel controls which messages are written.
type LogLevel int

// Log levels, in increasing order of severity.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

// String returns the level name used in log lines.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu    sync.Mutex
	file  *os.File
	level LogLevel = LevelWarning
)

// Init opens the log file at path and sets the minimum level. An empty path
// disables logging. Parent directories are created as needed.
func Init(path string, minLevel LogLevel) error {
	mu.Lock()
	defer mu.Unlock()

	if err := closeLocked(); err != nil {
		return err
	}

	level = minLevel
	if path == "" {
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}
	file = f
	return nil
}

// Close flushes and closes the log file. Safe to call when logging is
// disabled.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	_ = closeLocked()
}

func closeLocked() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// Debug logs a debug-level message.
func Debug(format string, args ...interface{}) {
	write(LevelDebug, format, args...)
}

// Info logs an info-level message.
func Info(format string, args ...interface{}) {
	write(LevelInfo, format, args...)
}

// Warning logs a warning-level message.
func Warning(format string, args ...interface{}) {
	write(LevelWarning, format, args...)
}

// Error logs an error-level message.
func Error(format string, args ...interface{}) {
	write(LevelError, format, args...)
}

// ErrorWithErr logs an error-level message with the error appended.
func ErrorWithErr(err error, format string, args ...interface{}) {
	write(LevelError, format+" error=%v", append(args, err)...)
}

func write(l LogLevel, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if file == nil || l < level {
		return
	}

	ts := time.Now().Format(time.RFC3339)
	fmt.Fprintf(file, "%s [%s] %s\n", ts, l, fmt.Sprintf(format, args...))
}
