// Package logger provides component-scoped logging for GoodSleep on top of zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level aliases keep call sites short.
const (
	DEBUG = zapcore.DebugLevel
	INFO  = zapcore.InfoLevel
	WARN  = zapcore.WarnLevel
	ERROR = zapcore.ErrorLevel
)

var (
	mu    sync.RWMutex
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	root  = mustBuild()
)

func mustBuild() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.DisableStacktrace = true
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Production config cannot fail to build with a valid level; fall
		// back to a no-op logger rather than panicking at import time.
		return zap.NewNop()
	}
	return l
}

// SetLevel adjusts the global log level at runtime.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// SetLogger replaces the root logger. Intended for tests and for the CLI,
// which switches to a console encoder in interactive mode.
func SetLogger(l *zap.Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	root = l
	mu.Unlock()
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	l := root
	mu.RUnlock()
	_ = l.Sync()
}

func log(lvl zapcore.Level, component, msg string, fields map[string]interface{}) {
	mu.RLock()
	l := root
	mu.RUnlock()

	zf := make([]zap.Field, 0, len(fields)+1)
	zf = append(zf, zap.String("component", component))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}

	if ce := l.Check(lvl, msg); ce != nil {
		ce.Write(zf...)
	}
}

func DebugC(component, msg string) { log(DEBUG, component, msg, nil) }
func InfoC(component, msg string)  { log(INFO, component, msg, nil) }
func WarnC(component, msg string)  { log(WARN, component, msg, nil) }
func ErrorC(component, msg string) { log(ERROR, component, msg, nil) }

func DebugCF(component, msg string, fields map[string]interface{}) {
	log(DEBUG, component, msg, fields)
}

func InfoCF(component, msg string, fields map[string]interface{}) {
	log(INFO, component, msg, fields)
}

func WarnCF(component, msg string, fields map[string]interface{}) {
	log(WARN, component, msg, fields)
}

func ErrorCF(component, msg string, fields map[string]interface{}) {
	log(ERROR, component, msg, fields)
}
