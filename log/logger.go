package log

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Logger and Fields are re-exported so that packages only depend on this one.
type (
	Logger = logrus.Logger
	Fields = logrus.Fields
)

const (
	// default log level
	defaultLogLevel = logrus.InfoLevel

	// log file name
	globalLogFileName = "global.log"
	// default log directory
	logDir = "poollogs"
	// default log file params
	defaultLogMaxSize    = 100  // maximum file size before rotation, in MB
	defaultLogMaxBackups = 3    // maximum number of old log files to keep
	defaultLogMaxAge     = 28   // maximum number of days to retain old log files
	defaultLogCompress   = true // whether to compress the rotated log files using gzip
)

var (
	// Global is the logger used by the application outside of a pool.
	Global *Logger

	// default logfile path
	defaultLogFilePath = "./" + logDir + "/" + globalLogFileName
)

func init() {
	Global = logrus.New()
	Global.SetOutput(os.Stdout)
	Global.SetLevel(defaultLogLevel)
	Global.SetFormatter(standardFormatter())
}

// SetGlobalLogger redirects the global logger to a rotating file (mirrored on
// stdout) and changes its level.
func SetGlobalLogger(logFilename string, logLevel string) {
	if logFilename == "" {
		logFilename = defaultLogFilePath
	}
	Global.SetOutput(io.MultiWriter(rotatingOutput(logFilename), os.Stdout))
	Global.SetLevel(parseLevel(logLevel))
}

// NewLogger returns an independent logger writing to a rotating file.
func NewLogger(logFilename string, logLevel string) *Logger {
	if logFilename == "" {
		logFilename = defaultLogFilePath
	}
	logger := logrus.New()
	logger.SetOutput(rotatingOutput(logFilename))
	logger.SetFormatter(standardFormatter())
	logger.SetLevel(parseLevel(logLevel))
	logger.WithFields(Fields{
		"path":  logFilename,
		"level": logLevel,
	}).Info("Pool logger started")
	return logger
}

// New creates a stdout logger and applies the options on top of it.
func New(opts ...Options) *Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(standardFormatter())
	logger.SetLevel(defaultLogLevel)
	for _, opt := range opts {
		opt(logger)
	}
	return logger
}

// ConfigureLogger applies the options to the global logger.
func ConfigureLogger(opts ...Options) {
	for _, opt := range opts {
		opt(Global)
	}
}

func rotatingOutput(logFilename string) io.Writer {
	return &lumberjack.Logger{
		Filename:   logFilename,
		MaxSize:    defaultLogMaxSize,
		MaxBackups: defaultLogMaxBackups,
		MaxAge:     defaultLogMaxAge,
		Compress:   defaultLogCompress,
	}
}

func standardFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		ForceColors:     true,
		PadLevelText:    true,
		FullTimestamp:   true,
		TimestampFormat: "01-02|15:04:05.000",
	}
}

func parseLevel(logLevel string) logrus.Level {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return defaultLogLevel
	}
	return level
}

func WithField(key string, val interface{}) *logrus.Entry {
	return Global.WithField(key, val)
}

func WithFields(fields Fields) *logrus.Entry {
	return Global.WithFields(fields)
}

func Debug(keyvals ...interface{}) {
	Global.Debug(keyvals...)
}

func Debugf(msg string, args ...interface{}) {
	Global.Debugf(msg, args...)
}

func Info(keyvals ...interface{}) {
	Global.Info(keyvals...)
}

func Infof(msg string, args ...interface{}) {
	Global.Infof(msg, args...)
}

func Warn(keyvals ...interface{}) {
	Global.Warn(keyvals...)
}

func Warnf(msg string, args ...interface{}) {
	Global.Warnf(msg, args...)
}

func Error(keyvals ...interface{}) {
	Global.Error(keyvals...)
}

func Errorf(msg string, args ...interface{}) {
	Global.Errorf(msg, args...)
}

func Fatalf(msg string, args ...interface{}) {
	Global.Fatalf(msg, args...)
}
