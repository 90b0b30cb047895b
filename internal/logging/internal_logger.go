package logging

import "github.com/rs/zerolog"

// InternalLogger is used by tasks and rule fetchers so that their output can be
// captured per task run as well as written to the process log.
type InternalLogger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// LevelFunc adapts a single leveled print function to InternalLogger.
type LevelFunc func(level zerolog.Level, format string, args ...any)

func (fn LevelFunc) Debug(format string, args ...any) { fn(zerolog.DebugLevel, format, args...) }
func (fn LevelFunc) Info(format string, args ...any)  { fn(zerolog.InfoLevel, format, args...) }
func (fn LevelFunc) Warn(format string, args ...any)  { fn(zerolog.WarnLevel, format, args...) }
func (fn LevelFunc) Error(format string, args ...any) { fn(zerolog.ErrorLevel, format, args...) }

// Zerolog writes to zlog.
func Zerolog(zlog zerolog.Logger) InternalLogger {
	return LevelFunc(func(level zerolog.Level, format string, args ...any) {
		zlog.WithLevel(level).Msgf(format, args...)
	})
}

// Tee writes every message to all loggers in order.
func Tee(loggers ...InternalLogger) InternalLogger {
	return LevelFunc(func(level zerolog.Level, format string, args ...any) {
		for _, l := range loggers {
			switch level {
			case zerolog.DebugLevel:
				l.Debug(format, args...)
			case zerolog.InfoLevel:
				l.Info(format, args...)
			case zerolog.WarnLevel:
				l.Warn(format, args...)
			default:
				l.Error(format, args...)
			}
		}
	})
}

// Discard drops everything.
var Discard InternalLogger = LevelFunc(func(zerolog.Level, string, ...any) {})
