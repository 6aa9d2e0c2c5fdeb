/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package log

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	instMu sync.RWMutex
	inst   = zap.NewNop()
	sugar  = inst.Sugar()
)

// Initialize installs the process wide logger described by cfg.
// Until called every log function is a no-op.
func Initialize(cfg *Config) error {
	l, err := newLogger(cfg)
	if err != nil {
		return err
	}
	set(l)
	return nil
}

// Shutdown flushes pending entries and restores the no-op logger.
func Shutdown() {
	instMu.Lock()
	_ = inst.Sync()
	inst = zap.NewNop()
	sugar = inst.Sugar()
	instMu.Unlock()
}

// Logger returns the underlying zap logger.
func Logger() *zap.Logger {
	instMu.RLock()
	defer instMu.RUnlock()
	return inst
}

func newLogger(cfg *Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Console {
		zc.Encoding = "console"
	}
	zc.Level = zap.NewAtomicLevelAt(cfg.Level.zapLevel())
	zc.DisableStacktrace = true
	zc.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	outputPaths := []string{"stdout"}
	if len(cfg.LogPath) > 0 {
		// create log file intermediate directories.
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), os.ModePerm); err != nil {
			return nil, errors.Wrap(err, "log: create log directory")
		}
		outputPaths = append(outputPaths, cfg.LogPath)
	}
	zc.OutputPaths = outputPaths

	l, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, errors.Wrap(err, "log: build logger")
	}
	return l, nil
}

func set(l *zap.Logger) {
	instMu.Lock()
	inst = l
	sugar = l.Sugar()
	instMu.Unlock()
}

func logger() *zap.SugaredLogger {
	instMu.RLock()
	defer instMu.RUnlock()
	return sugar
}

// Debugf logs a 'debug' message.
func Debugf(format string, args ...interface{}) {
	logger().Debugf(format, args...)
}

// Infof logs an 'info' message.
func Infof(format string, args ...interface{}) {
	logger().Infof(format, args...)
}

// Infow logs an 'info' message with additional context.
func Infow(msg string, keysAndValues ...interface{}) {
	logger().Infow(msg, keysAndValues...)
}

// Warnf logs a 'warning' message.
func Warnf(format string, args ...interface{}) {
	logger().Warnf(format, args...)
}

// Warnw logs a 'warning' message with additional context.
func Warnw(msg string, keysAndValues ...interface{}) {
	logger().Warnw(msg, keysAndValues...)
}

// Errorf logs an 'error' message.
func Errorf(format string, args ...interface{}) {
	logger().Errorf(format, args...)
}

// Error logs an 'error' value.
func Error(err error) {
	logger().Error(err)
}

// Fatalf logs a 'fatal' message and terminates the process.
func Fatalf(format string, args ...interface{}) {
	l := logger()
	l.Fatalf(format, args...)
}
