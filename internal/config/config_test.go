package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.ScanInterval)
	assert.Equal(t, 24*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, 20*time.Second, cfg.EmailTimeout)
	assert.Equal(t, EmailProviderSMTP, cfg.EmailProvider)
	assert.True(t, cfg.ScanEnabled)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.EmailConfigured(), "smtp without host/credentials must degrade to no-op")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SCAN_INTERVAL", "15m")
	t.Setenv("REMINDER_WINDOW", "48h")
	t.Setenv("SCAN_ENABLED", "false")
	t.Setenv("EMAIL_PROVIDER", "SES")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("EMAIL_FROM", "library@example.com")
	t.Setenv("DISPATCH_CONCURRENCY", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.ScanInterval)
	assert.Equal(t, 48*time.Hour, cfg.ReminderWindow)
	assert.False(t, cfg.ScanEnabled)
	assert.Equal(t, EmailProviderSES, cfg.EmailProvider)
	assert.Equal(t, 3, cfg.DispatchConcurrency)
	assert.True(t, cfg.EmailConfigured())
}

func TestLoadConfig_YAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "scan_interval: 30m\nreminder_window: 12h\nhttp_port: 9090\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9191")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.ScanInterval)
	assert.Equal(t, 12*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, 9191, cfg.HTTPPort, "env must win over file")
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := &Config{
		HTTPPort:            0,
		DatabaseURL:         "postgres://x",
		ScanInterval:        0,
		ReminderWindow:      time.Hour,
		DispatchConcurrency: 1,
		ScanHistorySize:     10,
		EmailProvider:       "pigeon",
		EmailTimeout:        time.Second,
		EmailRatePerSec:     1,
		LogLevel:            "info",
		LogFormat:           "json",
		JWTSecret:           "short",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "SCAN_INTERVAL")
	assert.Contains(t, err.Error(), "EMAIL_PROVIDER")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.NotContains(t, err.Error(), "REMINDER_WINDOW")
}

func TestEmailConfigured(t *testing.T) {
	smtp := &Config{
		EmailProvider: EmailProviderSMTP,
		SMTPHost:      "smtp.example.com",
		SMTPPort:      587,
		SMTPUser:      "user",
		SMTPPass:      "pass",
		EmailFrom:     "library@example.com",
	}
	assert.True(t, smtp.EmailConfigured())

	smtp.SMTPPass = ""
	assert.False(t, smtp.EmailConfigured())

	none := &Config{EmailProvider: EmailProviderNone, EmailFrom: "x@example.com"}
	assert.False(t, none.EmailConfigured())
}

func TestValidate_SubSecondScanIntervalRejected(t *testing.T) {
	cfg := &Config{
		HTTPPort:            8080,
		DatabaseURL:         "postgres://x",
		ScanInterval:        500 * time.Millisecond,
		ReminderWindow:      time.Hour,
		DispatchConcurrency: 1,
		ScanHistorySize:     10,
		EmailProvider:       EmailProviderNone,
		EmailTimeout:        time.Second,
		EmailRatePerSec:     1,
		LogLevel:            "info",
		LogFormat:           "json",
		JWTSecret:           "0123456789abcdef0123456789abcdef",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCAN_INTERVAL must be at least 1s")

	cfg.ScanInterval = time.Second
	assert.NoError(t, cfg.Validate())
}
