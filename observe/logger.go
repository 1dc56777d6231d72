package observe

import (
	"context"
	"encoding/json"
	"io"
	"maps"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// LogLevel orders log severities; entries below the logger's level are dropped.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// ParseLogLevel maps a level name to a LogLevel. Unknown names give LevelInfo.
func ParseLogLevel(s string) LogLevel {
	for lvl, name := range levelNames {
		if strings.EqualFold(s, name) {
			return LogLevel(lvl)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return levelNames[LevelInfo]
	}
	return levelNames[l]
}

// jsonLogger writes one JSON object per line. Loggers derived through With
// share the writer and its mutex.
type jsonLogger struct {
	min    LogLevel
	out    io.Writer
	mu     *sync.Mutex
	fields map[string]any
	now    func() time.Time
}

// NewLogger returns a JSON logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter returns a JSON logger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &jsonLogger{
		min:    ParseLogLevel(level),
		out:    w,
		mu:     new(sync.Mutex),
		fields: map[string]any{},
		now:    time.Now,
	}
}

func (l *jsonLogger) With(fields ...Field) Logger {
	child := *l
	child.fields = make(map[string]any, len(l.fields)+len(fields))
	maps.Copy(child.fields, l.fields)
	for _, f := range fields {
		child.fields[f.Key] = redact(f)
	}
	return &child
}

func (l *jsonLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, LevelDebug, msg, fields)
}

func (l *jsonLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, LevelInfo, msg, fields)
}

func (l *jsonLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, LevelWarn, msg, fields)
}

func (l *jsonLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, LevelError, msg, fields)
}

func (l *jsonLogger) write(ctx context.Context, level LogLevel, msg string, fields []Field) {
	if level < l.min {
		return
	}

	entry := make(map[string]any, len(l.fields)+len(fields)+5)
	maps.Copy(entry, l.fields)
	for _, f := range fields {
		entry[f.Key] = redact(f)
	}
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			entry["trace_id"] = sc.TraceID().String()
			entry["span_id"] = sc.SpanID().String()
		}
	}
	entry["timestamp"] = l.now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg

	line, err := json.Marshal(entry)
	if err != nil {
		// Unencodable field values drop the entry.
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(line, '\n'))
}

type nopLogger struct{}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(context.Context, string, ...Field) {}
func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (l nopLogger) With(...Field) Logger                  { return l }

var (
	_ Logger = (*jsonLogger)(nil)
	_ Logger = nopLogger{}
)
