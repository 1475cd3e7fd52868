package crypto

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// LoggerHelper builds logrus entries with the package's standard fields.
type LoggerHelper struct {
	function string
	fields   logrus.Fields
}

// NewLogger creates a helper tagged with function and package fields.
func NewLogger(function string) *LoggerHelper {
	return &LoggerHelper{
		function: function,
		fields: logrus.Fields{
			"function": function,
			"package":  "crypto",
		},
	}
}

// WithField adds a custom field.
func (l *LoggerHelper) WithField(key string, value interface{}) *LoggerHelper {
	l.fields[key] = value
	return l
}

// WithFields adds multiple custom fields.
func (l *LoggerHelper) WithFields(fields logrus.Fields) *LoggerHelper {
	for k, v := range fields {
		l.fields[k] = v
	}
	return l
}

// WithError records err and the operation that produced it.
func (l *LoggerHelper) WithError(err error, operation string) *LoggerHelper {
	l.fields["error"] = err.Error()
	l.fields["operation"] = operation
	return l
}

// Debug logs a debug message.
func (l *LoggerHelper) Debug(message string) {
	logrus.WithFields(l.fields).Debug(message)
}

// Info logs an info message.
func (l *LoggerHelper) Info(message string) {
	logrus.WithFields(l.fields).Info(message)
}

// Warn logs a warning message.
func (l *LoggerHelper) Warn(message string) {
	logrus.WithFields(l.fields).Warn(message)
}

// Error logs an error message.
func (l *LoggerHelper) Error(message string) {
	logrus.WithFields(l.fields).Error(message)
}

// PreviewFields describes sensitive data by size and its first 4 bytes only.
func PreviewFields(data []byte, name string) logrus.Fields {
	preview := "nil"
	if len(data) > 0 {
		n := 4
		if len(data) < n {
			n = len(data)
		}
		preview = fmt.Sprintf("%x", data[:n])
		if len(data) > n {
			preview += "..."
		}
	}

	return logrus.Fields{
		name + "_preview": preview,
		name + "_size":    len(data),
	}
}
