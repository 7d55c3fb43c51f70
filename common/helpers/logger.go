package helpers

import (
	"os"

	"github.com/sirupsen/logrus"
)

/**
configure the global logrus logger. An unrecognised level falls back to info
*/
func SetupLogger(level string) *logrus.Logger {
	logger := logrus.StandardLogger()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	parsedLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Unrecognised log level '%s', using info", level)
		parsedLevel = logrus.InfoLevel
	}
	logger.SetLevel(parsedLevel)
	return logger
}
