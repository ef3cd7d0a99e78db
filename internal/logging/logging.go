// Package logging configures the process logger and carries request-scoped
// loggers through a context.
package logging

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

type contextKey string

const loggerKey contextKey = "logger"

// SetLogFormat selects "text" or "json" output. Unknown formats fall back to
// text.
func SetLogFormat(format string) {
	if format != "" && format != "text" && format != "json" {
		logrus.WithFields(logrus.Fields{"format": format}).Warn("Unknown log format specified, using text. Possible options are json and text.")
	}

	if format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetLogLevel parses and applies a level name. Invalid names fall back to
// warn, which keeps CLI output quiet.
func SetLogLevel(ll string) {
	if ll == "" {
		ll = "warn"
	}
	level, err := logrus.ParseLevel(ll)
	if err != nil {
		logrus.WithFields(logrus.Fields{"level": ll}).Warn("Could not parse log level, setting to WARN")
		level = logrus.WarnLevel
	}
	logrus.SetLevel(level)
}

// SetOutput redirects the process logger.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// WithLogger stores the logger.
func WithLogger(ctx context.Context, l logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// Logger returns the structured logger.
func Logger(ctx context.Context) logrus.FieldLogger {
	if ctx == nil {
		return logrus.StandardLogger()
	}
	l, ok := ctx.Value(loggerKey).(logrus.FieldLogger)
	if !ok {
		return logrus.StandardLogger()
	}
	return l
}

// LoggerWithFields returns a child context of the provided parent that
// contains a logger with additional fields from the parent's logger, it
// returns the new child logger, as well.
func LoggerWithFields(ctx context.Context, fields logrus.Fields) (context.Context, logrus.FieldLogger) {
	l := Logger(ctx).WithFields(fields)
	return WithLogger(ctx, l), l
}
