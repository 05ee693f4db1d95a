// Package log writes leveled, categorised entries for buddy.
//
// An entry is one line:
//
//	2026-03-01T10:45:00 [WARN] [fetch] backend failed backend=uniprot query="P1 P2"
//
// Nothing is written until a sink is attached with SetOutput or Init. The CLI
// attaches stderr for --debug or BUDDY_DEBUG and a file for --log-file; both
// may be active at once.
package log

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level is the severity of an entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel reads a level name as given in BUDDY_LOG_LEVEL. Anything it does
// not recognise is LevelInfo.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return LevelWarn
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i)
		}
	}
	return LevelInfo
}

// Category names the subsystem an entry comes from.
type Category string

const (
	CatFormat    Category = "format"
	CatSeqIO     Category = "seqio"
	CatRecords   Category = "records"
	CatQuery     Category = "query"
	CatContainer Category = "container"
	CatDbBuddy   Category = "dbbuddy"
	CatTool      Category = "tool"
	CatFetch     Category = "fetch"
	CatDB        Category = "db" // session database
	CatConfig    Category = "config"
	CatCache     Category = "cache"
)

const timeLayout = "2006-01-02T15:04:05"

// sink is the process-wide destination. A nil writer discards everything.
type sink struct {
	mu       sync.Mutex
	out      io.Writer
	disabled bool
	min      Level
	now      func() time.Time
}

var std = &sink{now: time.Now}

// SetOutput makes w the only destination and resets the level and enabled
// state. A nil w turns logging off.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.out = w
	std.disabled = false
	std.min = LevelDebug
}

// Init appends entries to the file at path in addition to any destination
// already set. The returned func closes the file.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: log path comes from the user
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	std.mu.Lock()
	if std.out == nil {
		std.out = f
	} else {
		std.out = io.MultiWriter(std.out, f)
	}
	std.mu.Unlock()

	return func() {
		std.mu.Lock()
		defer std.mu.Unlock()
		if std.out == io.Writer(f) {
			std.out = nil
		}
		_ = f.Close()
	}, nil
}

// SetEnabled switches logging on or off without dropping the destination.
func SetEnabled(enabled bool) {
	std.mu.Lock()
	std.disabled = !enabled
	std.mu.Unlock()
}

// SetMinLevel drops entries below level.
func SetMinLevel(level Level) {
	std.mu.Lock()
	std.min = level
	std.mu.Unlock()
}

// Debug logs at LevelDebug.
func Debug(cat Category, msg string, kv ...any) { std.write(LevelDebug, cat, msg, kv) }

// Info logs at LevelInfo.
func Info(cat Category, msg string, kv ...any) { std.write(LevelInfo, cat, msg, kv) }

// Warn logs at LevelWarn.
func Warn(cat Category, msg string, kv ...any) { std.write(LevelWarn, cat, msg, kv) }

// Error logs at LevelError.
func Error(cat Category, msg string, kv ...any) { std.write(LevelError, cat, msg, kv) }

// ErrorErr logs at LevelError with err appended as the "error" field.
func ErrorErr(cat Category, msg string, err error, kv ...any) {
	text := "<nil>"
	if err != nil {
		text = err.Error()
	}
	std.write(LevelError, cat, msg, append(kv, "error", text))
}

func (s *sink) write(level Level, cat Category, msg string, kv []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil || s.disabled || level < s.min {
		return
	}

	var b strings.Builder
	b.WriteString(s.now().Format(timeLayout))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] [")
	b.WriteString(string(cat))
	b.WriteString("] ")
	b.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteByte('=')
		if i+1 == len(kv) {
			b.WriteString("<missing>")
			break
		}
		b.WriteString(fieldValue(kv[i+1]))
	}
	b.WriteByte('\n')
	_, _ = io.WriteString(s.out, b.String())
}

// fieldValue quotes values that would otherwise split into several fields.
func fieldValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
