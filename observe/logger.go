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

	"github.com/jonwraymond/agentops/faults"
)

// LogLevel represents a logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

// ParseLogLevel parses a level name. Unknown names map to info.
func ParseLogLevel(s string) LogLevel {
	for i, name := range levelNames {
		if s == name {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "info"
	}
	return levelNames[l]
}

// Survey text and prompts carry customer data, so they are redacted like
// credentials.
var redactedKeys = map[string]bool{
	"prompt":        true,
	"system_prompt": true,
	"completion":    true,
	"comment":       true,
	"comments":      true,
	"password":      true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apiKey":        true,
	"authorization": true,
	"credential":    true,
	"redis_url":     true,
}

func redactKey(key string) bool {
	if redactedKeys[key] {
		return true
	}
	k := strings.ToLower(key)
	return strings.HasSuffix(k, "_api_key") || strings.HasSuffix(k, "_token") || strings.HasSuffix(k, "_secret")
}

// Err returns an "error" field. The logger expands faults errors into
// error, error_id, category and severity.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// structuredLogger writes one JSON object per line. Entries logged with a
// context carrying a sampled span get trace_id and span_id.
type structuredLogger struct {
	level  LogLevel
	mu     *sync.Mutex
	writer io.Writer
	base   map[string]any
}

// NewLogger creates a structured logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a structured logger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &structuredLogger{
		level:  ParseLogLevel(level),
		mu:     &sync.Mutex{},
		writer: w,
		base:   map[string]any{},
	}
}

// WithOperation tags every entry with meta.
func (l *structuredLogger) WithOperation(meta OperationMeta) Logger {
	return l.child(meta.logAttrs())
}

// With tags every entry with fields.
func (l *structuredLogger) With(fields ...Field) Logger {
	attrs := make(map[string]any, len(fields))
	for _, f := range fields {
		put(attrs, f)
	}
	return l.child(attrs)
}

func (l *structuredLogger) child(extra map[string]any) Logger {
	base := maps.Clone(l.base)
	maps.Copy(base, extra)
	// the mutex is shared so parent and children never interleave lines
	return &structuredLogger{level: l.level, mu: l.mu, writer: l.writer, base: base}
}

func (l *structuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, LevelDebug, msg, fields)
}

func (l *structuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, LevelInfo, msg, fields)
}

func (l *structuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, LevelWarn, msg, fields)
}

func (l *structuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, LevelError, msg, fields)
}

func (l *structuredLogger) write(ctx context.Context, level LogLevel, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := make(map[string]any, len(l.base)+len(fields)+5)
	maps.Copy(entry, l.base)
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			entry["trace_id"] = sc.TraceID().String()
			entry["span_id"] = sc.SpanID().String()
		}
	}
	for _, f := range fields {
		put(entry, f)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	_, _ = l.writer.Write(data)
	l.mu.Unlock()
}

func put(entry map[string]any, f Field) {
	if redactKey(f.Key) {
		entry[f.Key] = "[REDACTED]"
		return
	}
	err, ok := f.Value.(error)
	if !ok {
		entry[f.Key] = f.Value
		return
	}
	entry[f.Key] = err.Error()
	if fe, ok := faults.As(err); ok {
		ec := fe.Context()
		entry["error_id"] = ec.ErrorID
		entry["category"] = string(ec.Category)
		entry["severity"] = string(ec.Severity)
	}
}

// Nop returns a logger that discards everything.
func Nop() Logger { return noopLogger{} }

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, ...Field)  {}
func (noopLogger) Warn(context.Context, string, ...Field)  {}
func (noopLogger) Error(context.Context, string, ...Field) {}
func (noopLogger) Debug(context.Context, string, ...Field) {}
func (l noopLogger) WithOperation(OperationMeta) Logger    { return l }
func (l noopLogger) With(...Field) Logger                  { return l }

var (
	_ Logger = (*structuredLogger)(nil)
	_ Logger = noopLogger{}
)
