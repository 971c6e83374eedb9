// SPDX-License-Identifier: MIT
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO", "":
		return LevelInfo, levelStr != ""
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// --- Global Logger State ---

var currentLevel atomic.Uint32

// output holds the active *stdlog.Logger so tests can redirect it.
var output atomic.Pointer[stdlog.Logger]

func init() {
	SetOutput(os.Stderr)
	SetLevel(LevelInfo)
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	output.Store(stdlog.New(w, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds))
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

func shouldLog(level LogLevel) bool {
	return level >= GetLevel()
}

func emit(level LogLevel, msg string) {
	if !shouldLog(level) && level != LevelFatal {
		return
	}
	// Pad INFO/WARN so messages line up with DEBUG/ERROR.
	pad := ""
	if len(level.String()) == 4 {
		pad = " "
	}
	line := fmt.Sprintf("[%s]%s %s", level, pad, msg)
	if level == LevelFatal {
		output.Load().Fatal(line)
	}
	output.Load().Print(line)
}

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...any) { emit(LevelDebug, fmt.Sprintf(format, v...)) }

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...any) { emit(LevelInfo, fmt.Sprintf(format, v...)) }

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...any) { emit(LevelWarn, fmt.Sprintf(format, v...)) }

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...any) { emit(LevelError, fmt.Sprintf(format, v...)) }

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func Fatalf(format string, v ...any) { emit(LevelFatal, fmt.Sprintf(format, v...)) }

// Debug logs a debug message if the level is appropriate.
func Debug(v ...any) { emit(LevelDebug, fmt.Sprint(v...)) }

// Info logs an info message if the level is appropriate.
func Info(v ...any) { emit(LevelInfo, fmt.Sprint(v...)) }

// Warn logs a warning message if the level is appropriate.
func Warn(v ...any) { emit(LevelWarn, fmt.Sprint(v...)) }

// Error logs an error message if the level is appropriate.
func Error(v ...any) { emit(LevelError, fmt.Sprint(v...)) }

// Fatal logs a fatal message and exits the application.
func Fatal(v ...any) { emit(LevelFatal, fmt.Sprint(v...)) }

// Component prefixes every message with a component name, matching the
// "Name: message" convention used across the engine and transports.
type Component string

func (c Component) Debugf(format string, v ...any) {
	emit(LevelDebug, string(c)+": "+fmt.Sprintf(format, v...))
}

func (c Component) Infof(format string, v ...any) {
	emit(LevelInfo, string(c)+": "+fmt.Sprintf(format, v...))
}

func (c Component) Warnf(format string, v ...any) {
	emit(LevelWarn, string(c)+": "+fmt.Sprintf(format, v...))
}

func (c Component) Errorf(format string, v ...any) {
	emit(LevelError, string(c)+": "+fmt.Sprintf(format, v...))
}
