package log

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
)

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	l zerolog.Logger
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// addFields attaches variadic key/value pairs to an event. Errors are given
// the zerolog error treatment so attached stack traces are rendered; values
// implementing zerolog.LogObjectMarshaler are embedded as structured objects.
func addFields(e *zerolog.Event, fields ...any) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}

func (z *zerologLogger) Debug(msg string, fields ...any) {
	addFields(z.l.Debug(), fields...).Msg(msg)
}

func (z *zerologLogger) Info(msg string, fields ...any) {
	addFields(z.l.Info(), fields...).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields ...any) {
	addFields(z.l.Warn(), fields...).Msg(msg)
}

func (z *zerologLogger) Error(msg string, fields ...any) {
	addFields(z.l.Error(), fields...).Msg(msg)
}

func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ctx = ctx.AnErr(key, v)
		default:
			ctx = ctx.Interface(key, v)
		}
	}
	return &zerologLogger{l: ctx.Logger()}
}

func (z *zerologLogger) Enabled(ctx context.Context, level Level) bool {
	zl := toZerologLevel(level)
	return zl >= z.l.GetLevel() && zl >= zerolog.GlobalLevel()
}

// zerologProvider is the default LoggerProvider backed by zerolog.
type zerologProvider struct {
	base zerolog.Logger
}

func (p *zerologProvider) GetLogger() Logger {
	return &zerologLogger{l: p.base}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{l: p.base.With().Str("logger", name).Logger()}
}

func (p *zerologProvider) SetLevel(level Level) {
	zerolog.SetGlobalLevel(toZerologLevel(level))
}

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = &zerologProvider{
		base: zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
)

// SetProvider replaces the global logger provider. Intended for tests and for
// applications embedding the library into their own logging setup.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetLogger returns the default logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// SetLevel sets the minimum level emitted by the global provider.
func SetLevel(level Level) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider.SetLevel(level)
}

// Library warnings (convergence failures, undefined metrics) are routed
// through zerolog so they appear alongside the rest of the analysis log.
func init() {
	clinstatErrors.SetZerologWarnFunc(func(warning error) {
		logger := GetLoggerWithName("warnings")
		logger.Warn("statistical warning", "warning", warning)
	})
}
