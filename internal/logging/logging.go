// Package logging provides the leveled diagnostic log for the CLI.
//
// Answers go to stdout; everything here goes to stderr so piped output
// stays clean. The default logger prints human-readable text at Info
// level. Verbose mode lowers it to Debug, which also surfaces the HTTP
// exchange log from http.go.
//
//	logging.Warn("failed to persist cache entry", logging.Fields{
//	    "key":   key,
//	    "error": err.Error(),
//	})
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level orders log severities. Messages below the logger's level are
// discarded.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone // discards everything
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "NONE"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelNone {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a level name to its Level. Unrecognized names fall
// back to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "none", "off":
		return LevelNone
	}
	return LevelInfo
}

// Format selects how entries are rendered.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Fields carries structured key/value context for one entry.
type Fields map[string]interface{}

// LogEntry is the shape of one JSON-formatted entry.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Options configures a Logger. A nil Output falls back to stderr.
type Options struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger writes leveled entries to a single output. Safe for
// concurrent use.
type Logger struct {
	mu     sync.Mutex
	level  Level
	format Format
	out    io.Writer
}

// New creates a Logger from opts.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{level: opts.Level, format: opts.Format, out: out}
}

// SetLevel changes the threshold below which entries are dropped.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, fields ...Fields) { l.emit(LevelDebug, msg, nil, fields) }
func (l *Logger) Info(msg string, fields ...Fields)  { l.emit(LevelInfo, msg, nil, fields) }
func (l *Logger) Warn(msg string, fields ...Fields)  { l.emit(LevelWarn, msg, nil, fields) }

// Error logs msg with err attached. A nil err logs the message alone.
func (l *Logger) Error(msg string, err error, fields ...Fields) {
	l.emit(LevelError, msg, err, fields)
}

func (l *Logger) emit(level Level, msg string, err error, fields []Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
		Fields:    mergeFields(fields),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	var line string
	switch l.format {
	case FormatJSON:
		line = renderJSON(entry)
	default:
		line = renderText(entry)
	}
	fmt.Fprintln(l.out, line)
}

func mergeFields(fields []Fields) Fields {
	switch len(fields) {
	case 0:
		return nil
	case 1:
		return fields[0]
	}
	merged := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	return merged
}

func renderJSON(entry LogEntry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":"ERROR","message":"unloggable entry: %s"}`, err)
	}
	return string(data)
}

// renderText prints fields in sorted order so repeated runs produce
// identical lines.
func renderText(entry LogEntry) string {
	var b strings.Builder
	b.WriteString(entry.Timestamp.Format("2006-01-02 15:04:05.000"))
	b.WriteString(" ")
	b.WriteString(entry.Level)
	b.WriteString(": ")
	b.WriteString(entry.Message)

	if entry.Error != "" {
		fmt.Fprintf(&b, " error=%q", entry.Error)
	}

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}

	return b.String()
}

// std is the process-wide logger behind the package-level functions.
var std = New(Options{Level: LevelInfo, Format: FormatText, Output: os.Stderr})

func Debug(msg string, fields ...Fields) { std.Debug(msg, fields...) }
func Info(msg string, fields ...Fields)  { std.Info(msg, fields...) }
func Warn(msg string, fields ...Fields)  { std.Warn(msg, fields...) }

func Error(msg string, err error, fields ...Fields) { std.Error(msg, err, fields...) }

// SetLevel adjusts the process-wide logger.
func SetLevel(level Level) { std.SetLevel(level) }
