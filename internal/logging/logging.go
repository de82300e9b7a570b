// Package logging provides Argus's structured logger. Adapted from the
// teacher's internal/logging package: same Config/Format/Level shape and
// human/JSON dual rendering, generalized with a run-scoped correlation id
// (carried on every entry) and a WithFields helper for the pipeline glue's
// per-stage logging.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a log message.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

var priority = map[Level]int{
	DebugLevel:       0,
	InfoLevel:        1,
	WarnLevel:        2,
	ErrorLevel:       3,
	Level("__silent__"): 100,
}

// Format selects the rendering used for each log line.
type Format string

const (
	JSONFormat  Format = "json"
	HumanFormat Format = "human"
)

// Config configures a Logger.
type Config struct {
	Format Format
	Level  Level
	Output io.Writer // defaults to stderr so stdout stays clean for CLI output
}

// Logger is Argus's structured logger, carrying a per-run correlation id.
type Logger struct {
	config  Config
	writer  io.Writer
	runID   string
	fields  map[string]interface{}
}

// NewLogger creates a logger with a fresh run correlation id.
func NewLogger(cfg Config) *Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	return &Logger{config: cfg, writer: w, runID: uuid.NewString()}
}

// RunID returns the correlation id attached to every entry this logger (and
// its WithFields children) emits.
func (l *Logger) RunID() string { return l.runID }

// WithFields returns a child logger that merges fields into every entry it
// emits, in addition to the parent's fields. Used to scope a logger to one
// pipeline stage (e.g. {"stage": "sync"}).
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{config: l.config, writer: l.writer, runID: l.runID, fields: merged}
}

type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	RunID     string                 `json:"run_id"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *Logger) shouldLog(level Level) bool {
	return priority[level] >= priority[l.config.Level]
}

func (l *Logger) log(level Level, message string, fields map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		RunID:     l.runID,
		Fields:    merged,
	}
	if l.config.Format == JSONFormat {
		l.logJSON(entry)
	} else {
		l.logHuman(entry)
	}
}

func (l *Logger) logJSON(entry logEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: marshal failed: %v\n", err)
		return
	}
	fmt.Fprintln(l.writer, string(data))
}

func (l *Logger) logHuman(entry logEntry) {
	fmt.Fprintf(l.writer, "%s [%s] (%s) %s", entry.Timestamp, entry.Level, entry.RunID[:8], entry.Message)
	if len(entry.Fields) > 0 {
		fmt.Fprint(l.writer, " |")
		for k, v := range entry.Fields {
			fmt.Fprintf(l.writer, " %s=%v", k, v)
		}
	}
	fmt.Fprintln(l.writer)
}

func (l *Logger) Debug(message string, fields map[string]interface{}) { l.log(DebugLevel, message, fields) }
func (l *Logger) Info(message string, fields map[string]interface{})  { l.log(InfoLevel, message, fields) }
func (l *Logger) Warn(message string, fields map[string]interface{})  { l.log(WarnLevel, message, fields) }
func (l *Logger) Error(message string, fields map[string]interface{}) { l.log(ErrorLevel, message, fields) }

// LevelFromVerbosity mirrors CKB's CLI verbosity-to-level mapping.
func LevelFromVerbosity(verbosity int, quiet bool) Level {
	if quiet {
		return Level("__silent__")
	}
	switch {
	case verbosity <= 0:
		return WarnLevel
	case verbosity == 1:
		return InfoLevel
	default:
		return DebugLevel
	}
}
