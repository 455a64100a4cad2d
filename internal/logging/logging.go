// Package logging wires the process-wide structured logger used by every
// other package in this module: charmbracelet/log for the human-readable
// sink, a daily-rotated file sink, and a LogEvent fan-out for event
// subscribers.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/hitomidl/hitomidl/internal/model"
)

var (
	mu        sync.Mutex
	logger    = log.New(os.Stderr)
	fileSink  *os.File
	listeners []chan<- model.LogEvent
)

// Logger returns the process-wide logger.
func Logger() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// EnableFileLogger opens (creating as needed) a daily-rotated log file under
// logsDir, named hitomi-downloader.YYYY-MM-DD.log, and tees logger output to
// it in addition to stderr.
func EnableFileLogger(logsDir string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory %s: %w", logsDir, err)
	}

	name := fmt.Sprintf("hitomi-downloader.%s.log", time.Now().Format("2006-01-02"))
	path := filepath.Join(logsDir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	if fileSink != nil {
		fileSink.Close()
	}
	fileSink = f

	logger = log.New(io.MultiWriter(os.Stderr, f))
	return nil
}

// DisableFileLogger reverts to stderr-only logging.
func DisableFileLogger() {
	mu.Lock()
	defer mu.Unlock()

	if fileSink != nil {
		fileSink.Close()
		fileSink = nil
	}
	logger = log.New(os.Stderr)
}

// LogsDirSize sums the size of every file directly inside logsDir
// (subdirectories are skipped, not descended into), backing the
// get_logs_dir_size command.
func LogsDirSize(logsDir string) (uint64, error) {
	var total uint64

	entries, err := os.ReadDir(logsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read logs directory %s: %w", logsDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += uint64(info.Size())
	}

	return total, nil
}

// Subscribe registers ch to receive a LogEvent for every subsequent log line
// emitted through Event. The UI command surface uses this to mirror logs
// into its event stream; ch is never closed by this package.
func Subscribe(ch chan<- model.LogEvent) {
	mu.Lock()
	defer mu.Unlock()
	listeners = append(listeners, ch)
}

// Event emits a structured LogEvent to every subscriber, in addition to
// writing the human-readable line through the normal logger. target is a
// short component name (e.g. "download", "gg", "index").
func Event(level, target, filename string, line int, msg string, fields map[string]string) {
	switch strings.ToLower(level) {
	case "debug":
		Logger().Debug(msg)
	case "warn":
		Logger().Warn(msg)
	case "error":
		Logger().Error(msg)
	default:
		Logger().Info(msg)
	}

	evt := model.LogEvent{
		Timestamp:  time.Now(),
		Level:      level,
		Fields:     fields,
		Target:     target,
		Filename:   filename,
		LineNumber: line,
	}

	mu.Lock()
	subs := append([]chan<- model.LogEvent(nil), listeners...)
	mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Debugf, Infof, Warnf and Errorf are the logging entry points every real
// call site in this module should use instead of reaching for Logger()
// directly: each formats msg, resolves its own call site, and routes
// through Event so the LogEvent stream and the text sink stay
// in lockstep. target is a short component name (e.g. "download", "app").
func Debugf(target, format string, args ...any) { logf("debug", target, format, args) }
func Infof(target, format string, args ...any)  { logf("info", target, format, args) }
func Warnf(target, format string, args ...any)  { logf("warn", target, format, args) }
func Errorf(target, format string, args ...any) { logf("error", target, format, args) }

func logf(level, target, format string, args []any) {
	msg := fmt.Sprintf(format, args...)

	filename := ""
	line := 0
	if _, file, l, ok := runtime.Caller(2); ok {
		filename = filepath.Base(file)
		line = l
	}

	Event(level, target, filename, line, msg, nil)
}

// Banner prints a bordered block of lines, used to announce the start of
// a comic download in the CLI front end. Width is measured in runes, not
// bytes, so titles in Japanese or mixed scripts keep the box edges
// aligned.
func Banner(msgs []string, paddingLen int) {
	maxWidth := 0
	for _, m := range msgs {
		if w := utf8.RuneCountInString(m); w > maxWidth {
			maxWidth = w
		}
	}

	padding := strings.Repeat(" ", paddingLen)
	stem := strings.Repeat("─", maxWidth+paddingLen*2)

	l := Logger()
	l.Info("╭" + stem + "╮")
	for _, m := range msgs {
		fill := strings.Repeat(" ", maxWidth-utf8.RuneCountInString(m))
		l.Info("│" + padding + m + fill + padding + "│")
	}
	l.Info("╰" + stem + "╯")
}
