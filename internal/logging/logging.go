package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns the diagnostics logger. Output goes to stderr so it never
// mixes with console output on stdout.
func New(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	logger.SetLevel(levelFromEnv())
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// levelFromEnv maps LOG_LEVEL to a logrus level, defaulting to warn.
func levelFromEnv() logrus.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}
