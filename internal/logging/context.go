package logging

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the Logger stored in ctx, or fallback when there is none.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
			return l
		}
	}
	if fallback == nil {
		return Nop()
	}
	return fallback
}

// Tee fans every entry out to all loggers.
func Tee(loggers ...Logger) Logger {
	out := make(teeLogger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

type teeLogger []Logger

func (t teeLogger) Debug(msg string, fields ...Field) {
	for _, l := range t {
		l.Debug(msg, fields...)
	}
}

func (t teeLogger) Info(msg string, fields ...Field) {
	for _, l := range t {
		l.Info(msg, fields...)
	}
}

func (t teeLogger) Warn(msg string, fields ...Field) {
	for _, l := range t {
		l.Warn(msg, fields...)
	}
}

func (t teeLogger) Error(msg string, fields ...Field) {
	for _, l := range t {
		l.Error(msg, fields...)
	}
}

func (t teeLogger) With(fields ...Field) Logger {
	out := make(teeLogger, len(t))
	for i, l := range t {
		out[i] = l.With(fields...)
	}
	return out
}
