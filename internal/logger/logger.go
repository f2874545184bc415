package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop()

// Init installs the process logger. Level is one of debug, info, warn, error;
// anything else falls back to info.
func Init(level string) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewExample()
	}
	log = l

	log.Info("logger initialized", zap.String("level", lvl.String()))
}

// Replace swaps the process logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) func() {
	prev := log
	log = l
	return func() { log = prev }
}

// Sync flushes buffered entries.
func Sync() {
	_ = log.Sync()
}

func Debug(msg string, fields map[string]any) {
	log.Debug(msg, toZap(fields)...)
}

func Info(msg string, fields map[string]any) {
	log.Info(msg, toZap(fields)...)
}

func Warn(msg string, fields map[string]any) {
	log.Warn(msg, toZap(fields)...)
}

func Error(msg string, fields map[string]any) {
	log.Error(msg, toZap(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	log.Error(msg, toZap(fields)...)
	Sync()
	os.Exit(1)
}

func toZap(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
