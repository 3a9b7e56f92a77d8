package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/brickapp/brick/internal/settings"
)

// Options selects the level and destination of the application logger.
type Options struct {
	Severity settings.LogSeverity
	// File is appended to in addition to stderr when non-empty.
	File string
}

// FromSettings derives logger options from the resolved settings.
func FromSettings(s *settings.Settings) Options {
	return Options{Severity: s.LogSeverity, File: s.LogFile}
}

// New creates a structured JSON logger. SeverityDisable yields a no-op logger.
func New(opts Options) (*zap.Logger, error) {
	if opts.Severity == settings.SeverityDisable {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.Level = zap.NewAtomicLevelAt(Level(opts.Severity))
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.DisableStacktrace = false
	cfg.OutputPaths = []string{"stderr"}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, opts.File)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// Level maps a settings severity onto a zap level.
func Level(sev settings.LogSeverity) zapcore.Level {
	switch sev {
	case settings.SeverityVerbose:
		return zapcore.DebugLevel
	case settings.SeverityWarning:
		return zapcore.WarnLevel
	case settings.SeverityError:
		return zapcore.ErrorLevel
	case settings.SeverityFatal, settings.SeverityDisable:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
