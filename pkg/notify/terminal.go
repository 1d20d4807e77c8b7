package notify

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"

	"dd2-manager/pkg/logger"
)

// TerminalSink prints coloured status lines to w.
func TerminalSink(w io.Writer) Sink {
	info := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed, color.Bold)

	return SinkFunc(func(message string, nType NotificationType) {
		c := info
		switch nType {
		case Warning:
			c = warn
		case Error:
			c = fail
		}
		c.Fprintf(w, "[%s] ", nType)
		fmt.Fprintln(w, message)
	})
}

// LogSink forwards notifications to the structured logger.
func LogSink(log *logger.Logger) Sink {
	return SinkFunc(func(message string, nType NotificationType) {
		switch nType {
		case Warning, Error:
			log.Warn("Status", "message", message, "type", nType.String())
		default:
			log.Info("Status", "message", message)
		}
	})
}

// FileSink appends timestamped notifications to a file.
func FileSink(path string) (Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create notification log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open notification log: %w", err)
	}
	var mu sync.Mutex
	return SinkFunc(func(message string, nType NotificationType) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(f, "[%s] %s: %s\n",
			time.Now().Format("2006-01-02 15:04:05"),
			nType,
			message)
	}), nil
}

// IsRunningInTerminal reports whether stderr is attached to a terminal.
func IsRunningInTerminal() bool {
	fileInfo, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
