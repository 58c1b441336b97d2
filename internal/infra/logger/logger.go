// internal/infra/logger/logger.go
package logger

import (
	"os"
	"strings"

	"circulation_recall_daemon/internal/infra/config"

	"github.com/sirupsen/logrus"
)

// Log is the daemon-wide logger. Components log through Component entries.
var Log = logrus.New()

// Init applies LOG_LEVEL and ENVIRONMENT to Log. Deployed environments get JSON
// lines for the log collector, everything else a readable text format.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)
	Log.SetLevel(parseLevel(cfg.LogLevel))
	Log.SetFormatter(formatterFor(cfg.Environment))

	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Debug("Logger configured")
}

func parseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(strings.ToLower(name))
	if err != nil {
		Log.WithError(err).Warnf("Unknown log level %q, using info", name)
		return logrus.InfoLevel
	}
	return level
}

func formatterFor(environment string) logrus.Formatter {
	switch strings.ToLower(environment) {
	case "production", "staging":
		return &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		}
	default:
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		}
	}
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
