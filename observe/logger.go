package observe

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.opentelemetry.io/otel/trace"
)

// Logger is a minimal structured logging interface.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)

	// With returns a logger that adds fields to every entry.
	With(fields ...Field) Logger
}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for Field{Key: key, Value: value}.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// kitLogger adapts a go-kit logger to Logger.
type kitLogger struct {
	base log.Logger
}

var _ Logger = (*kitLogger)(nil)

// NewLogger creates a JSON logger writing to stderr at the given level.
func NewLogger(lvl string) Logger {
	return NewLoggerWithWriter(lvl, os.Stderr)
}

// NewLoggerWithWriter creates a JSON logger writing to w.
// Unknown levels fall back to info.
func NewLoggerWithWriter(lvl string, w io.Writer) Logger {
	l := log.NewJSONLogger(log.NewSyncWriter(w))
	l = log.With(l, "ts", log.DefaultTimestampUTC)
	l = level.NewFilter(l, levelOption(lvl))
	return &kitLogger{base: l}
}

// FromKitLogger wraps an existing go-kit logger. Level filtering is left to
// the caller.
func FromKitLogger(l log.Logger) Logger {
	if l == nil {
		return NopLogger()
	}
	return &kitLogger{base: l}
}

func levelOption(lvl string) level.Option {
	switch lvl {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

func (l *kitLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &kitLogger{base: log.With(l.base, keyvals(nil, fields)...)}
}

func (l *kitLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, level.Info, msg, fields)
}

func (l *kitLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, level.Warn, msg, fields)
}

func (l *kitLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, level.Error, msg, fields)
}

func (l *kitLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, level.Debug, msg, fields)
}

func (l *kitLogger) log(ctx context.Context, lvl func(log.Logger) log.Logger, msg string, fields []Field) {
	kv := make([]any, 0, 6+2*len(fields))
	kv = append(kv, "msg", msg)

	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			kv = append(kv, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
		}
	}

	_ = lvl(l.base).Log(keyvals(kv, fields)...)
}

// keyvals appends fields to kv, replacing redacted values.
func keyvals(kv []any, fields []Field) []any {
	for _, f := range fields {
		if isRedactedField(f.Key) {
			kv = append(kv, f.Key, "[REDACTED]")
			continue
		}
		if err, ok := f.Value.(error); ok && err != nil {
			kv = append(kv, f.Key, err.Error())
			continue
		}
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

func isRedactedField(key string) bool {
	key = strings.ToLower(key)
	for _, k := range RedactedFields {
		if key == k {
			return true
		}
	}
	return false
}

type nopLogger struct{}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (nopLogger) Debug(context.Context, string, ...Field) {}
func (l nopLogger) With(...Field) Logger                  { return l }
