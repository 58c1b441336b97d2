package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// It is built once at start-up and passed to the components that need it.
type AppConfig struct {
	DatabaseURL string
	LogLevel    string
	Environment string

	// Mail transport
	SMTPHost               string
	SMTPPort               int
	SMTPUser               string
	SMTPPassword           string
	SMTPInsecureSkipVerify bool
	MailRetryCount         int
	MailRetryBackoffMs     int
	LoansFromAddress       string // sender of local loan recalls
	ILLFromAddress         string // sender of inter-library loan recalls

	// Substitution fields of the letter templates
	InstitutionName string
	ContactEmail    string
	SiteURL         string
	Signature       string

	// Scheduling
	CronSpecOverdueLetters  string
	CronSpecUpdateBorrowers string
	CronSpecUpdateRequests  string
	SweepBatchSize          int
	SweepTimeout            time.Duration

	// Side files
	HolidaysFile          string
	BorrowerDirectoryFile string

	MetricsAddr string

	// Optional operator bot
	TelegramToken   string
	AdminTelegramID int64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 25); err != nil {
		return nil, err
	}
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPInsecureSkipVerify = strings.EqualFold(os.Getenv("SMTP_INSECURE_SKIP_VERIFY"), "true")
	if cfg.MailRetryCount, err = getEnvInt("MAIL_RETRY_COUNT", 3); err != nil {
		return nil, err
	}
	if cfg.MailRetryBackoffMs, err = getEnvInt("MAIL_RETRY_BACKOFF_MS", 100); err != nil {
		return nil, err
	}
	cfg.LoansFromAddress = getEnv("LOANS_EMAIL", "Library Loans<loans@library.example.org>")
	cfg.ILLFromAddress = getEnv("ILLS_EMAIL", cfg.LoansFromAddress)

	cfg.InstitutionName = getEnv("INSTITUTION_NAME", "Library")
	cfg.ContactEmail = getEnv("CONTACT_EMAIL", "library.desk@library.example.org")
	cfg.SiteURL = strings.TrimRight(getEnv("SITE_URL", "http://localhost"), "/")
	cfg.Signature = getEnv("LETTER_SIGNATURE", cfg.InstitutionName+" Staff")

	cfg.CronSpecOverdueLetters = getEnv("CRON_SPEC_OVERDUE_LETTERS", "0 6 * * *")    // Default: 6:00 AM daily
	cfg.CronSpecUpdateBorrowers = getEnv("CRON_SPEC_UPDATE_BORROWERS", "0 3 * * 0")  // Default: 3:00 AM on Sundays
	cfg.CronSpecUpdateRequests = getEnv("CRON_SPEC_UPDATE_REQUESTS", "*/30 * * * *") // Default: every 30 minutes

	if cfg.SweepBatchSize, err = getEnvInt("SWEEP_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.SweepBatchSize <= 0 {
		return nil, fmt.Errorf("invalid SWEEP_BATCH_SIZE: must be positive")
	}
	cfg.SweepTimeout, err = time.ParseDuration(getEnv("SWEEP_TIMEOUT", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_TIMEOUT: %w", err)
	}

	cfg.HolidaysFile = getEnv("HOLIDAYS_FILE", "holidays.yaml")
	cfg.BorrowerDirectoryFile = getEnv("BORROWER_DIRECTORY_FILE", "borrowers.yaml")
	cfg.MetricsAddr = getEnv("METRICS_ADDR", ":9090")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}

	return cfg, nil
}

// IsMailEnabled reports whether an SMTP relay is configured.
func (c *AppConfig) IsMailEnabled() bool {
	return c.SMTPHost != ""
}

// IsBotEnabled reports whether the operator bot should be started.
func (c *AppConfig) IsBotEnabled() bool {
	return c.TelegramToken != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
