// Package logger builds the zap logger used by the goff commands.
package logger

import (
	"fmt"

	"github.com/rmera/goff/internal/config"
	"go.uber.org/zap"
)

// New returns a sugared logger writing to stderr. The console format uses
// zap's development settings, json the production ones. The logger also
// replaces zap's globals.
func New(cfg config.LogConfig) (*zap.SugaredLogger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	var z zap.Config
	switch cfg.Format {
	case "json":
		z = zap.NewProductionConfig()
	case "console", "":
		z = zap.NewDevelopmentConfig()
		z.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("failed to initialize logger: unknown format %q", cfg.Format)
	}
	z.Level = level
	z.OutputPaths = []string{"stderr"}
	z.ErrorOutputPaths = []string{"stderr"}
	l, err := z.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(l)
	return l.Sugar(), nil
}
