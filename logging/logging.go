// Package logging provides real-time log output for the desk core.
// The event stream is processed fail-safe: malformed envelopes and
// reconciliation failures are logged here and dropped, never raised.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging with component and tracking-id scoping.
type Logger struct {
	mu         sync.Mutex
	output     io.Writer
	minLevel   Level
	component  string
	trackingID string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:     l.output,
		minLevel:   l.minLevel,
		component:  component,
		trackingID: l.trackingID,
	}
}

// WithTrackingID returns a new logger scoped to the given tracking id.
func (l *Logger) WithTrackingID(trackingID string) *Logger {
	return &Logger{
		output:     l.output,
		minLevel:   l.minLevel,
		component:  l.component,
		trackingID: trackingID,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		if l.trackingID != "" {
			fields[0]["trackingId"] = l.trackingID
		}
		fieldStr = formatFields(fields[0])
	} else if l.trackingID != "" {
		fieldStr = " trackingId=" + l.trackingID
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Dispatch-derived logging methods ---
// Called by the registry and command surface; real-time output only.

// DroppedEnvelope logs an inbound envelope that could not be dispatched.
func (l *Logger) DroppedEnvelope(eventType, reason string) {
	l.Warn("envelope_dropped", map[string]interface{}{
		"event":  eventType,
		"reason": reason,
	})
}

// TaskCreated logs creation of a task in the registry.
func (l *Logger) TaskCreated(taskID, eventType string) {
	l.Info("task_created", map[string]interface{}{
		"task":  taskID,
		"event": eventType,
	})
}

// TaskRemoved logs removal of a task from the registry.
func (l *Logger) TaskRemoved(taskID, eventType string) {
	l.Info("task_removed", map[string]interface{}{
		"task":  taskID,
		"event": eventType,
	})
}

// CommandResult logs a command outcome.
func (l *Logger) CommandResult(taskID, op string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"task":     taskID,
		"op":       op,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("command_failed", fields)
	} else {
		l.Debug("command_ok", fields)
	}
}
