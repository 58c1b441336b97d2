package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"circulation_recall_daemon/internal/infra/config"
)

func TestInit(t *testing.T) {
	Init(&config.AppConfig{LogLevel: "debug", Environment: "production"})
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, Log.Formatter)

	Init(&config.AppConfig{LogLevel: "loud", Environment: "development"})
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, Log.Formatter)
}

func TestComponent(t *testing.T) {
	entry := Component("recall")
	assert.Equal(t, "recall", entry.Data["component"])
}

func TestFormatterFor(t *testing.T) {
	f, ok := formatterFor("Staging").(*logrus.JSONFormatter)
	if assert.True(t, ok) {
		assert.Equal(t, "message", f.FieldMap[logrus.FieldKeyMsg])
	}
	assert.IsType(t, &logrus.TextFormatter{}, formatterFor(""))
}
