package logging

import (
	"os"
	"strings"

	"github.com/mywallet-io/mywallet/internal/config"
	"github.com/sirupsen/logrus"
)

// New builds the process logger from the log section of the configuration.
func New(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		logger.WithField("level", cfg.Level).Warn("unknown log level, using info")
		return logger
	}
	logger.SetLevel(level)
	return logger
}
