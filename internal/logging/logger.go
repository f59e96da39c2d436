package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"
)

// Logger defines a minimal, printf-style logging contract.
//
// Packages depend on this interface rather than a concrete logger so tests
// can inject a no-op or capture implementation.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string onto a Level. Unknown values fall
// back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	fileLoggerInstance *fileLogger
	fileLoggerOnce     sync.Once
)

// fileLogger writes component-tagged lines to otto-debug.log in the user's
// home directory, mirroring warnings and errors to stderr.
type fileLogger struct {
	mu        sync.Mutex
	file      *os.File
	logger    *log.Logger
	level     Level
	component string
}

func sharedFileLogger() *fileLogger {
	fileLoggerOnce.Do(func() {
		l := &fileLogger{level: LevelDebug}
		home, err := os.UserHomeDir()
		if err != nil {
			log.Printf("logging: failed to resolve home directory: %v", err)
			fileLoggerInstance = l
			return
		}
		path := filepath.Join(home, "otto-debug.log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Printf("logging: failed to open log file: %v", err)
			fileLoggerInstance = l
			return
		}
		l.file = file
		l.logger = log.New(file, "", 0)
		fileLoggerInstance = l
	})
	return fileLoggerInstance
}

// NewComponentLogger returns the default application logger scoped to a component.
func NewComponentLogger(component string) Logger {
	base := sharedFileLogger()
	return &fileLogger{
		file:      base.file,
		logger:    base.logger,
		level:     base.level,
		component: component,
	}
}

// SetLevel adjusts the minimum severity written by the shared file logger.
func SetLevel(level Level) {
	base := sharedFileLogger()
	base.mu.Lock()
	base.level = level
	base.mu.Unlock()
}

func (l *fileLogger) logf(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] [%s] %s",
		time.Now().Format("2006-01-02 15:04:05.000"), level, l.component, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logger != nil {
		l.logger.Println(line)
	}
	if level >= LevelWarn {
		fmt.Fprintln(os.Stderr, line)
	}
}

func (l *fileLogger) Debug(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *fileLogger) Info(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *fileLogger) Warn(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *fileLogger) Error(format string, args ...any) { l.logf(LevelError, format, args...) }

type multiLogger struct {
	loggers []Logger
}

// Multi returns a logger fan-out that calls every non-nil logger in order.
func Multi(loggers ...Logger) Logger {
	flattened := make([]Logger, 0, len(loggers))
	for _, logger := range loggers {
		if IsNil(logger) {
			continue
		}
		if ml, ok := logger.(*multiLogger); ok {
			flattened = append(flattened, ml.loggers...)
			continue
		}
		flattened = append(flattened, logger)
	}
	if len(flattened) == 0 {
		return Nop()
	}
	if len(flattened) == 1 {
		return flattened[0]
	}
	return &multiLogger{loggers: flattened}
}

func (l *multiLogger) Debug(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Debug(format, args...)
	}
}

func (l *multiLogger) Info(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Info(format, args...)
	}
}

func (l *multiLogger) Warn(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Warn(format, args...)
	}
}

func (l *multiLogger) Error(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Error(format, args...)
	}
}
