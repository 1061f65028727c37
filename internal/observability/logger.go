// Package observability binds the service hooks to zap and Prometheus.
package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"labqms/internal/core"
)

// LogConfig selects the encoder and level of the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Format is "json" or "console". Empty means console.
	Format string
}

// NewLogger builds the process logger.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	switch strings.ToLower(cfg.Format) {
	case "json":
		zcfg = zap.NewProductionConfig()
	case "", "console":
		zcfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

// ZapLogger adapts a zap logger to the service Logger interface.
type ZapLogger struct {
	s *zap.SugaredLogger
}

var _ core.Logger = ZapLogger{}

// NewZapLogger wraps l. A nil logger discards everything.
func NewZapLogger(l *zap.Logger) ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return ZapLogger{s: l.Sugar()}
}

func (z ZapLogger) Debug(msg string, args ...any) { z.s.Debugw(msg, args...) }
func (z ZapLogger) Info(msg string, args ...any)  { z.s.Infow(msg, args...) }
func (z ZapLogger) Warn(msg string, args ...any)  { z.s.Warnw(msg, args...) }
func (z ZapLogger) Error(msg string, args ...any) { z.s.Errorw(msg, args...) }
