package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var (
	logLevelNames = map[LogLevel]string{
		DEBUG: "DEBUG",
		INFO:  "INFO",
		WARN:  "WARN",
		ERROR: "ERROR",
		FATAL: "FATAL",
	}

	zerologLevels = map[LogLevel]zerolog.Level{
		DEBUG: zerolog.DebugLevel,
		INFO:  zerolog.InfoLevel,
		WARN:  zerolog.WarnLevel,
		ERROR: zerolog.ErrorLevel,
		FATAL: zerolog.FatalLevel,
	}

	currentLevel = INFO
	console      io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	file         *rotatingFile
	out          = build()
	mu           sync.RWMutex
)

// rotatingFile is an io.Writer that renames the active log once it would grow
// past maxSizeBytes and deletes rotated siblings older than maxAgeDays.
type rotatingFile struct {
	file         *os.File
	filePath     string
	maxSizeBytes int64
	maxAgeDays   int
	fileMu       sync.Mutex
}

func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// ParseLevel accepts the level names used in configuration (case-insensitive).
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "fatal":
		return FATAL, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", name)
	}
}

func (l LogLevel) String() string {
	if name, ok := logLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

func EnableFileLoggingWithRotation(filePath string, maxSizeMB, maxAgeDays int) error {
	mu.Lock()
	defer mu.Unlock()

	if maxSizeMB <= 0 {
		maxSizeMB = 20
	}
	if maxAgeDays <= 0 {
		maxAgeDays = 3
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if file != nil && file.file != nil {
		file.file.Close()
	}

	file = &rotatingFile{
		file:         f,
		filePath:     filePath,
		maxSizeBytes: int64(maxSizeMB) * 1024 * 1024,
		maxAgeDays:   maxAgeDays,
	}
	out = build()
	if err := file.cleanupOldLogFiles(); err != nil {
		out.Warn().Err(err).Msg("Failed to clean up old log files")
	}
	out.Info().Str("path", filePath).Msg("File logging enabled")
	return nil
}

func DisableFileLogging() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		if file.file != nil {
			file.file.Close()
		}
		file = nil
		out = build()
		out.Info().Msg("File logging disabled")
	}
}

// SetConsoleOutput replaces the human-readable sink. Passing nil silences it.
func SetConsoleOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	console = w
	out = build()
}

// build must be called with mu held (or during package init).
func build() zerolog.Logger {
	writers := []io.Writer{console}
	if file != nil {
		writers = append(writers, file)
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.TraceLevel).
		With().
		Timestamp().
		Logger()
}

func logMessage(level LogLevel, component string, message string, fields map[string]interface{}) {
	mu.RLock()
	if level < currentLevel {
		mu.RUnlock()
		return
	}
	l := out
	mu.RUnlock()

	event := l.WithLevel(zerologLevels[level])
	if component != "" {
		event = event.Str("component", component)
	}
	if len(fields) > 0 {
		event = event.Fields(fields)
	}
	if pc, path, line, ok := runtime.Caller(2); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			event = event.Str("caller", fmt.Sprintf("%s:%d (%s)", filepath.Base(path), line, fn.Name()))
		}
	}
	event.Msg(message)
}

func (l *rotatingFile) Write(p []byte) (int, error) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	if l.file == nil {
		return len(p), nil
	}

	if l.maxSizeBytes > 0 {
		if err := l.rotateIfNeeded(int64(len(p))); err != nil {
			return 0, err
		}
	}

	return l.file.Write(p)
}

func (l *rotatingFile) rotateIfNeeded(nextWrite int64) error {
	info, err := l.file.Stat()
	if err != nil {
		return err
	}

	if info.Size()+nextWrite <= l.maxSizeBytes {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return err
	}

	backupPath := fmt.Sprintf("%s.%s", l.filePath, time.Now().UTC().Format("20060102-150405.000000"))
	if err := os.Rename(l.filePath, backupPath); err != nil {
		return err
	}

	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	l.file = f

	return l.cleanupOldLogFiles()
}

func (l *rotatingFile) cleanupOldLogFiles() error {
	if l.maxAgeDays <= 0 || l.filePath == "" {
		return nil
	}

	dir := filepath.Dir(l.filePath)
	base := filepath.Base(l.filePath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -l.maxAgeDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		// Only rotated files like charitybot.log.20260213-120000.000000
		if !strings.HasPrefix(name, base+".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}

	return nil
}

func DebugCF(component string, message string, fields map[string]interface{}) {
	logMessage(DEBUG, component, message, fields)
}

func InfoC(component string, message string) {
	logMessage(INFO, component, message, nil)
}

func InfoCF(component string, message string, fields map[string]interface{}) {
	logMessage(INFO, component, message, fields)
}

func WarnC(component string, message string) {
	logMessage(WARN, component, message, nil)
}

func WarnCF(component string, message string, fields map[string]interface{}) {
	logMessage(WARN, component, message, fields)
}

func ErrorCF(component string, message string, fields map[string]interface{}) {
	logMessage(ERROR, component, message, fields)
}
