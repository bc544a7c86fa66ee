// Package logging holds the process wide logrus logger.
//
// Packages derive their own entry from DefaultLogger:
//
//	var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "resolve")
package logging

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LogFormat selects the logrus formatter.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"

	// DefaultLogFormat is used when nothing is configured.
	DefaultLogFormat = LogFormatText

	// DefaultLogLevel is the level DefaultLogger starts with.
	DefaultLogLevel = logrus.InfoLevel
)

// DefaultLogger is the base logrus logger. It is separate from the logrus
// standard logger so libraries writing to logrus directly do not end up in
// our output.
var DefaultLogger = initializeDefaultLogger()

func initializeDefaultLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(GetFormatter(DefaultLogFormat))
	logger.SetLevel(DefaultLogLevel)
	return logger
}

// GetFormatter returns a configured logrus.Formatter for the given format.
// Unknown formats fall back to text.
func GetFormatter(format LogFormat) logrus.Formatter {
	switch format {
	case LogFormatJSON:
		return &logrus.JSONFormatter{DisableTimestamp: true}
	default:
		return &logrus.TextFormatter{DisableTimestamp: true}
	}
}

// SetLogLevel updates the DefaultLogger with a new logrus.Level
func SetLogLevel(level logrus.Level) {
	DefaultLogger.SetLevel(level)
}

// SetLogFormat updates the DefaultLogger formatter.
func SetLogFormat(format LogFormat) {
	DefaultLogger.SetFormatter(GetFormatter(format))
}

// ParseLogFormat validates a user supplied format name.
func ParseLogFormat(s string) (LogFormat, error) {
	switch f := LogFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return DefaultLogFormat, nil
	case LogFormatText, LogFormatJSON:
		return f, nil
	default:
		return "", errors.Errorf("unknown log format %q, expected 'text' or 'json'", s)
	}
}

// Configure applies level and format names in one call. An empty level keeps
// the default.
func Configure(level, format string) error {
	if strings.TrimSpace(level) != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return errors.Wrap(err, "log level")
		}
		SetLogLevel(lvl)
	}
	f, err := ParseLogFormat(format)
	if err != nil {
		return err
	}
	SetLogFormat(f)
	return nil
}
