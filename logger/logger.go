// Package logger builds the zap logger used across the service and carries
// request-scoped loggers through context.Context.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level, encoding and output of the logger.
type Options struct {
	Level  string // debug|info|warn|error, default info
	Format string // json|console, default json
	File   string // when set, logs are also written to this file with rotation

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type ctxKey struct{}

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// New builds a logger from opts.
func New(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(defaultString(opts.Level, "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", opts.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var consoleEncoder zapcore.Encoder
	switch strings.ToLower(defaultString(opts.Format, "json")) {
	case "json":
		consoleEncoder = zapcore.NewJSONEncoder(encCfg)
	case "console", "text":
		devCfg := encCfg
		devCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder = zapcore.NewConsoleEncoder(devCfg)
	default:
		return nil, fmt.Errorf("invalid log format '%s'", opts.Format)
	}

	atomic := zap.NewAtomicLevelAt(level)
	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), atomic)}
	if opts.File != "" {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), fileWriter(opts), atomic))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).With(zap.String("app", "arkive")), nil
}

func fileWriter(opts Options) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    defaultInt(opts.MaxSizeMB, 100), // megabytes
		MaxBackups: defaultInt(opts.MaxBackups, 5),
		MaxAge:     defaultInt(opts.MaxAgeDays, 28), // days
		Compress:   true,
	})
}

// SetBase installs l as the logger returned when a context carries none.
func SetBase(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
}

// Base returns the process-wide logger.
func Base() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// FromContext retrieves the request-scoped logger or returns the base logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return Base()
	}
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return Base()
}

// WithContext returns a context carrying l.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With returns a context whose logger has the additional fields.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return WithContext(ctx, FromContext(ctx).With(fields...))
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
