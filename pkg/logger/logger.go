package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultAppDir  = "dd2-manager"
	DefaultLogFile = "debug.log"
)

type Logger struct {
	zlog    zerolog.Logger
	level   zerolog.Level
	file    *os.File
	writers []io.Writer
	hasFile bool
	mu      sync.RWMutex
}

type Option func(*Logger) error

// WithConsole enables console logging
func WithConsole() Option {
	return func(l *Logger) error {
		l.writers = append(l.writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
		return nil
	}
}

// WithLevel sets the logging level
func WithLevel(level zerolog.Level) Option {
	return func(l *Logger) error {
		l.level = level
		return nil
	}
}

// WithFile sets up file logging with an explicit path
func WithFile(path string) Option {
	return func(l *Logger) error {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
		l.hasFile = true
		l.writers = append(l.writers, zerolog.ConsoleWriter{
			Out:        f,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
		return nil
	}
}

// WithoutFile disables the default log file. Used by tests and one-shot CLI
// commands that only need console output.
func WithoutFile() Option {
	return func(l *Logger) error {
		l.hasFile = true
		return nil
	}
}

// WithWriter adds a plain-text writer, e.g. the control panel log view.
func WithWriter(w io.Writer) Option {
	return func(l *Logger) error {
		l.writers = append(l.writers, zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
			NoColor:    true,
		})
		return nil
	}
}

// DefaultLogPath returns <UserConfigDir>/dd2-manager/logs/debug.log
func DefaultLogPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, DefaultAppDir, "logs", DefaultLogFile), nil
}

// NewLogger creates a new logger with the given options
func NewLogger(opts ...Option) (*Logger, error) {
	logger := &Logger{level: zerolog.InfoLevel}

	for _, opt := range opts {
		if err := opt(logger); err != nil {
			return nil, fmt.Errorf("failed to apply logger option: %w", err)
		}
	}

	// If no file option is provided, use the default log path
	if !logger.hasFile {
		defaultPath, err := DefaultLogPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get default log path: %w", err)
		}
		if err := WithFile(defaultPath)(logger); err != nil {
			return nil, err
		}
	}

	logger.rebuild()
	return logger, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

func (l *Logger) rebuild() {
	var out io.Writer = io.Discard
	switch len(l.writers) {
	case 0:
	case 1:
		out = l.writers[0]
	default:
		out = zerolog.MultiLevelWriter(l.writers...)
	}
	l.zlog = zerolog.New(out).Level(l.level).With().Timestamp().Logger()
}

// Close closes the logger and any open files
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// addSourceContext adds file and line information to the event
func addSourceContext(e *zerolog.Event) *zerolog.Event {
	_, file, line, ok := runtime.Caller(2)
	if ok {
		return e.Str("file", filepath.Base(file)).Int("line", line)
	}
	return e
}

func (l *Logger) current() zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.zlog
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...interface{}) {
	zl := l.current()
	event := addSourceContext(zl.Debug())
	logFields(event, fields...)
	event.Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...interface{}) {
	zl := l.current()
	event := addSourceContext(zl.Info())
	logFields(event, fields...)
	event.Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...interface{}) {
	zl := l.current()
	event := addSourceContext(zl.Warn())
	logFields(event, fields...)
	event.Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, fields ...interface{}) {
	zl := l.current()
	event := addSourceContext(zl.Error())
	if err != nil {
		event = event.Err(err)
	}
	logFields(event, fields...)
	event.Msg(msg)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, err error, fields ...interface{}) {
	zl := l.current()
	event := addSourceContext(zl.Fatal())
	if err != nil {
		event = event.Err(err)
	}
	logFields(event, fields...)
	event.Msg(msg)
}

// AddWriter attaches another output after construction.
func (l *Logger) AddWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = WithWriter(w)(l)
	l.rebuild()
}

// logFields adds fields to the log event
func logFields(event *zerolog.Event, fields ...interface{}) {
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			break
		}
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		value := fields[i+1]
		if err, isErr := value.(error); isErr {
			event.AnErr(key, err)
			continue
		}
		event.Interface(key, value)
	}
}
