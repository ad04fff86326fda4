package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielpatrickdp/dexi-engine/internal/config"
)

// #region new
// New builds a zap logger from the logging section: JSON production output by
// default, console output when Development is set.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a config level name to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return 0, fmt.Errorf("logging level %q: %w", s, err)
	}
	return level, nil
}
// #endregion new

// #region fields
// Run returns the fields attached to every per-run log line.
func Run(modelName, mode string, inputs int) []zap.Field {
	return []zap.Field{
		zap.String("model", modelName),
		zap.String("mode", mode),
		zap.Int("inputs", inputs),
	}
}
// #endregion fields
