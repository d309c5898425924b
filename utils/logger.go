package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	isVerbose bool
	logger    = newLogger()
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
	})
	return l
}

func SetVerbose(verbose bool) {
	isVerbose = verbose
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

func IsVerbose() bool {
	return isVerbose
}

// Logger exposes the shared logrus instance for callers that need fields.
func Logger() *logrus.Logger {
	return logger
}

func Verbose(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// CompanionLog forwards a log line emitted by the native companion. Levels
// follow the companion's convention: 0 debug, 1 info, 2 warning, 3+ error.
func CompanionLog(level int, message string) {
	entry := logger.WithField("source", "companion")
	switch {
	case level <= 0:
		entry.Debug(message)
	case level == 1:
		entry.Info(message)
	case level == 2:
		entry.Warn(message)
	default:
		entry.Error(message)
	}
}
