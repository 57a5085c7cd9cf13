package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger writing to stdout.
func NewLogger(level string, jsonOutput bool) *logrus.Logger {
	return newLogger(os.Stdout, level, jsonOutput)
}

func newLogger(out io.Writer, level string, jsonOutput bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	if jsonOutput {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
