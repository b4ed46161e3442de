package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log *zap.SugaredLogger
	mu  sync.RWMutex
)

// Init configures the process-wide logger. In production the output is JSON,
// in development it is a human-readable console encoder.
func Init(environment string, debug bool) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}

	mu.Lock()
	defer mu.Unlock()
	log = base.Sugar()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l == nil {
		Init("development", false)
		mu.RLock()
		l = log
		mu.RUnlock()
	}
	return l
}

func Debug(msg string, keysAndValues ...any) {
	get().Debugw(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	get().Infow(msg, keysAndValues...)
}

func Infof(template string, args ...any) {
	get().Infof(template, args...)
}

func Warn(msg string, keysAndValues ...any) {
	get().Warnw(msg, keysAndValues...)
}

// Error logs msg with the error attached as a structured field.
func Error(msg string, err error, keysAndValues ...any) {
	kvs := append([]any{"error", err}, keysAndValues...)
	get().Errorw(msg, kvs...)
}

// Fatal logs msg and aborts the process. Reserved for startup invariants
// that the node cannot run without, such as a missing identity key.
func Fatal(msg string, err error, keysAndValues ...any) {
	kvs := append([]any{"error", err}, keysAndValues...)
	get().Fatalw(msg, kvs...)
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	if l := get(); l != nil {
		_ = l.Sync()
	}
}
