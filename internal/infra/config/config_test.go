package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "LOG_LEVEL", "ENVIRONMENT", "SMTP_HOST", "SMTP_PORT", "MAIL_RETRY_COUNT",
		"MAIL_RETRY_BACKOFF_MS", "LOANS_EMAIL", "ILLS_EMAIL", "INSTITUTION_NAME", "SITE_URL",
		"LETTER_SIGNATURE", "SWEEP_BATCH_SIZE", "SWEEP_TIMEOUT", "TELEGRAM_TOKEN", "ADMIN_TELEGRAM_ID",
		"CRON_SPEC_OVERDUE_LETTERS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/circulation")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 25, cfg.SMTPPort)
	assert.Equal(t, 50, cfg.SweepBatchSize)
	assert.Equal(t, 30*time.Minute, cfg.SweepTimeout)
	assert.Equal(t, "0 6 * * *", cfg.CronSpecOverdueLetters)
	assert.Equal(t, cfg.LoansFromAddress, cfg.ILLFromAddress)
	assert.Equal(t, "Library Staff", cfg.Signature)
	assert.False(t, cfg.IsMailEnabled())
	assert.False(t, cfg.IsBotEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/circulation")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SMTP_HOST", "smtp.example.org")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("INSTITUTION_NAME", "Atlantis Institute")
	t.Setenv("SITE_URL", "https://atlantis.example.org/")
	t.Setenv("SWEEP_BATCH_SIZE", "10")
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("ADMIN_TELEGRAM_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "https://atlantis.example.org", cfg.SiteURL)
	assert.Equal(t, "Atlantis Institute Staff", cfg.Signature)
	assert.Equal(t, 10, cfg.SweepBatchSize)
	assert.Equal(t, int64(42), cfg.AdminTelegramID)
	assert.True(t, cfg.IsMailEnabled())
	assert.True(t, cfg.IsBotEnabled())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{}},
		{"bad smtp port", map[string]string{"DATABASE_URL": "x", "SMTP_PORT": "abc"}},
		{"zero batch size", map[string]string{"DATABASE_URL": "x", "SWEEP_BATCH_SIZE": "0"}},
		{"bad timeout", map[string]string{"DATABASE_URL": "x", "SWEEP_TIMEOUT": "soon"}},
		{"bot without admin", map[string]string{"DATABASE_URL": "x", "TELEGRAM_TOKEN": "t"}},
		{"bad admin id", map[string]string{"DATABASE_URL": "x", "ADMIN_TELEGRAM_ID": "me"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadCalendar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.yaml")
	require.NoError(t, os.WriteFile(path, []byte("working_days: [monday, tuesday, wednesday, thursday]\nholidays:\n  - 2024-12-24\n"), 0o600))

	cal, err := LoadCalendar(path)
	require.NoError(t, err)

	friday := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	holiday := time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)
	assert.False(t, cal.IsOpen(friday))
	assert.False(t, cal.IsOpen(holiday))
	assert.True(t, cal.IsOpen(holiday.AddDate(0, 0, -1)))
}

func TestLoadCalendar_MissingFile(t *testing.T) {
	cal, err := LoadCalendar(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.True(t, cal.IsOpen(time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)))
}

func TestLoadCalendar_BadWeekday(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.yaml")
	require.NoError(t, os.WriteFile(path, []byte("working_days: [funday]\n"), 0o600))

	_, err := LoadCalendar(path)
	assert.Error(t, err)
}
