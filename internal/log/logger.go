package log

import (
	"fmt"

	"github.com/denchenko/gmm/internal/config"
	do "github.com/samber/do/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Package = do.Package(
	do.Lazy[*zap.Logger](NewLogger),
)

// NewLogger creates the application logger from the injected configuration (for DI).
func NewLogger(i do.Injector) (*zap.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return New(cfg.LogLevel, cfg.LogFormat)
}

// New creates a zap logger writing to stderr with the given level and encoding.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.Encoding = format
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.DisableStacktrace = true
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
