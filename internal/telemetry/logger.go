// Package telemetry carries the intercom core's ambient logging and
// event-emission conventions. The core never performs I/O on the
// real-time tick path; this package is only ever touched from
// configuration mutators, PTT transitions, and validation failures.
package telemetry

import (
	"github.com/sirupsen/logrus"
)

// Logger provides standardized structured logging for a single package,
// mirroring the field-tagging convention used throughout this codebase's
// ancestor: every entry carries "package" and "function" fields, and
// helpers exist to layer on error/operation context without repeating
// boilerplate at each call site.
type Logger struct {
	pkg    string
	fields logrus.Fields
}

// NewLogger creates a Logger scoped to pkg and function.
func NewLogger(pkg, function string) *Logger {
	return &Logger{
		pkg: pkg,
		fields: logrus.Fields{
			"package":  pkg,
			"function": function,
		},
	}
}

// WithField returns a copy of the Logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{pkg: l.pkg, fields: fields}
}

// WithError returns a copy of the Logger annotated with error context.
func (l *Logger) WithError(err error, operation string) *Logger {
	return l.WithField("error", err.Error()).WithField("operation", operation)
}

// Debug logs a debug-level message. Reserved for non-hot-path detail.
func (l *Logger) Debug(msg string) { logrus.WithFields(l.fields).Debug(msg) }

// Info logs an info-level message, typically a successful mutation.
func (l *Logger) Info(msg string) { logrus.WithFields(l.fields).Info(msg) }

// Warn logs a warning, typically a recoverable condition such as
// ConfigMismatch.
func (l *Logger) Warn(msg string) { logrus.WithFields(l.fields).Warn(msg) }

// Error logs a validation or operational failure.
func (l *Logger) Error(msg string) { logrus.WithFields(l.fields).Error(msg) }
