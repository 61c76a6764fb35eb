package log

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Options is a function type that can be used to configure the logger
type Options func(*Logger)

// WithLevel configures the log level. If level is not specified, default to InfoLevel
// If level is debug or trace, report caller is enabled
func WithLevel(level string) Options {
	return func(logger *Logger) {
		l := parseLevel(level)
		logger.SetLevel(l)
		if l == logrus.DebugLevel || l == logrus.TraceLevel {
			logger.SetFormatter(&logrus.TextFormatter{
				TimestampFormat: time.RFC3339,
				FullTimestamp:   true,
				CallerPrettyfier: func(f *runtime.Frame) (string, string) {
					return fmt.Sprintf("func: %s : ", formatFilePath(f.Function, 1)), fmt.Sprintf(" src: %s:%d -", formatFilePath(f.File, 2), f.Line)
				},
			})
			logger.SetReportCaller(true)
		}
	}
}

// WithOutput configures the output destination
func WithOutput(output io.Writer) Options {
	return func(logger *Logger) {
		logger.SetOutput(output)
	}
}

// WithFormatter configures the log formatter
func WithFormatter(formatter logrus.Formatter) Options {
	return func(logger *Logger) {
		logger.SetFormatter(formatter)
	}
}

// WithNullLogger sets the logger to discard all output
func WithNullLogger() Options {
	return func(logger *Logger) {
		logger.SetOutput(io.Discard)
	}
}

// formatFilePath receives a string representing a path and returns the last part of it
// The 2nd argument indicates the number of parts to return
func formatFilePath(path string, parts int) string {
	arr := strings.Split(path, "/")
	if len(arr) < parts {
		return path
	}
	return strings.Join(arr[len(arr)-parts:], "/")
}
