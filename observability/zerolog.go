package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerolog adapts a zerolog logger to Logger.
func NewZerolog(zl zerolog.Logger) Logger {
	return zerologLogger{zl: zl}
}

// NewConsoleLogger builds a zerolog-backed Logger writing to stderr.
// Format "json" emits one JSON object per line; anything else uses the
// human-readable console writer.
func NewConsoleLogger(level, format string) (Logger, error) {
	return newLogger(os.Stderr, level, format)
}

func newLogger(w io.Writer, level, format string) (Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		lvl = parsed
	}
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return NewZerolog(zl), nil
}

func (l zerologLogger) Debug(msg string, fields ...Field) { emit(l.zl.Debug(), msg, fields) }
func (l zerologLogger) Info(msg string, fields ...Field)  { emit(l.zl.Info(), msg, fields) }
func (l zerologLogger) Warn(msg string, fields ...Field)  { emit(l.zl.Warn(), msg, fields) }
func (l zerologLogger) Error(msg string, fields ...Field) { emit(l.zl.Error(), msg, fields) }

func (l zerologLogger) With(fields ...Field) Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key(), fieldValue(f))
	}
	return zerologLogger{zl: ctx.Logger()}
}

func emit(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value().(type) {
		case string:
			event = event.Str(f.Key(), v)
		case int:
			event = event.Int(f.Key(), v)
		case bool:
			event = event.Bool(f.Key(), v)
		case float64:
			event = event.Float64(f.Key(), v)
		case time.Duration:
			event = event.Dur(f.Key(), v)
		case error:
			event = event.AnErr(f.Key(), v)
		default:
			event = event.Interface(f.Key(), v)
		}
	}
	event.Msg(msg)
}

func fieldValue(f Field) interface{} {
	if err, ok := f.Value().(error); ok && err != nil {
		return err.Error()
	}
	return f.Value()
}
