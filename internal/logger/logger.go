// Package logger provides the process-wide logger. Log output is meant for
// operators; anything the chat user should see goes through the display
// callback instead.
package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log = newConsoleLogger(zapcore.InfoLevel, os.Stderr)
)

func newConsoleLogger(level zapcore.Level, sink *os.File) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		NameKey:      "logger",
		CallerKey:    "caller",
		MessageKey:   "msg",
		LineEnding:   zapcore.DefaultLineEnding,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(sink),
		level,
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// Configure replaces the global logger. An unknown level string falls back to
// info. The TUI passes a file sink here so log lines do not corrupt the
// terminal; nil keeps stderr.
func Configure(level string, sink *os.File) {
	var l zapcore.Level
	if err := l.Set(level); err != nil {
		l = zapcore.InfoLevel
	}
	if sink == nil {
		sink = os.Stderr
	}

	mu.Lock()
	defer mu.Unlock()
	log = newConsoleLogger(l, sink)
}

// Discard routes all log output to /dev/null. Used by tests and as the TUI
// default when no log file is configured.
func Discard() {
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	log = newConsoleLogger(zapcore.InfoLevel, devNull)
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debugf(format string, args ...interface{}) {
	current().Debug(fmt.Sprintf(format, args...))
}

func Infof(format string, args ...interface{}) {
	current().Info(fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...interface{}) {
	current().Warn(fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...interface{}) {
	current().Error(fmt.Sprintf(format, args...))
}

// Sync flushes buffered log entries, typically right before process exit.
func Sync() {
	_ = current().Sync()
}
