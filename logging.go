package weaveecs

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LoggerConfig configures the process-wide logger, mirroring the
// level/format fields eve's common/logger.go exposes for its NewLogger
// constructor.
type LoggerConfig struct {
	Level     string // "trace", "debug", "info", "warn", "error"
	JSON      bool   // use logrus.JSONFormatter instead of the text formatter
	Colors    bool   // only applies to the text formatter
	Timestamp bool
}

var (
	defaultLoggerOnce sync.Once
	defaultLoggerInst *logrus.Logger
)

// NewLogger builds a *logrus.Logger from a LoggerConfig. The zero value
// yields an info-level text formatter without colors or timestamps.
func NewLogger(cfg LoggerConfig) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			DisableColors:    !cfg.Colors,
			DisableTimestamp: !cfg.Timestamp,
		})
	}
	return l
}

// DefaultLogger returns the process-wide logger, lazily built with the
// default LoggerConfig on first use.
func DefaultLogger() *logrus.Logger {
	defaultLoggerOnce.Do(func() {
		defaultLoggerInst = NewLogger(LoggerConfig{Level: "info", Colors: true})
	})
	return defaultLoggerInst
}

// SetDefaultLogger replaces the process-wide logger, e.g. after loading a
// Config from file. It consumes the lazy-init guard so a later DefaultLogger
// call never overwrites this with the zero-value default.
func SetDefaultLogger(l *logrus.Logger) {
	defaultLoggerOnce.Do(func() {})
	defaultLoggerInst = l
}

// GetNamespacedLogger returns a *logrus.Entry tagged with ns, the
// equivalent of spec.md's default_logger.get_namespaced_logger(ns). The
// returned entry exposes Trace/Info/Warn/Error directly; logrus has no
// built-in "critical" level, so callers needing it use
// entry.WithField("severity", "critical").Error(...).
func GetNamespacedLogger(ns string) *logrus.Entry {
	return DefaultLogger().WithField("ns", ns)
}
