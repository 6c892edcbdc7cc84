package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"APP_PORT", "LOG_LEVEL", "STORE_BACKEND", "MONGODB_URI", "MONGODB_DB_NAME",
	"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "META_VERIFY_TOKEN",
	"WHATSAPP_BASE_URL", "WHATSAPP_API_VERSION", "WHATSAPP_GROUP_ID",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID",
	"REPORT_CRON_SCHEDULE", "TIMEZONE", "LOW_STOCK_THRESHOLD",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "0 8 1 * *", cfg.Reporting.CronSchedule)
	assert.Equal(t, 10, cfg.Reporting.LowStockThreshold)
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Sheets.Enabled())

	loc, err := cfg.Reporting.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even to "".
	for _, key := range []string{"APP_PORT", "LOG_LEVEL", "STORE_BACKEND", "LOW_STOCK_THRESHOLD"} {
		require.NoError(t, os.Unsetenv(key))
	}

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=9090\nSTORE_BACKEND=MongoDB\nLOW_STOCK_THRESHOLD=4\n"), 0o600))
	t.Cleanup(func() {
		for _, key := range []string{"APP_PORT", "LOG_LEVEL", "STORE_BACKEND", "LOW_STOCK_THRESHOLD"} {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, BackendMongoDB, cfg.Store.Backend)
	assert.Equal(t, 4, cfg.Reporting.LowStockThreshold)
}

func TestLoad_InvalidThreshold(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOW_STOCK_THRESHOLD", "many")

	_, err := Load(missingEnvFile(t))
	assert.ErrorContains(t, err, "LOW_STOCK_THRESHOLD")
}

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080"},
		Store:     StoreConfig{Backend: BackendMemory},
		WhatsApp:  WhatsAppConfig{BaseURL: "https://graph.facebook.com", APIVersion: "v20.0"},
		Reporting: ReportingConfig{CronSchedule: "0 8 1 * *", Timezone: "UTC", LowStockThreshold: 10},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "postgres" }, wantErr: "STORE_BACKEND"},
		{name: "mongo without uri", mutate: func(c *Config) { c.Store.Backend = BackendMongoDB; c.MongoDB.DBName = "x" }, wantErr: "MONGODB_URI"},
		{name: "whatsapp half configured", mutate: func(c *Config) { c.WhatsApp.AccessToken = "t" }, wantErr: "provided together"},
		{name: "whatsapp without verify token", mutate: func(c *Config) {
			c.WhatsApp.AccessToken = "t"
			c.WhatsApp.PhoneNumberID = "p"
		}, wantErr: "META_VERIFY_TOKEN"},
		{name: "sheets half configured", mutate: func(c *Config) { c.Sheets.SpreadsheetID = "s" }, wantErr: "GOOGLE_SHEETS_CREDENTIALS_PATH"},
		{name: "bad cron", mutate: func(c *Config) { c.Reporting.CronSchedule = "every day" }, wantErr: "REPORT_CRON_SCHEDULE"},
		{name: "bad timezone", mutate: func(c *Config) { c.Reporting.Timezone = "Mars/Olympus" }, wantErr: "timezone"},
		{name: "zero threshold", mutate: func(c *Config) { c.Reporting.LowStockThreshold = 0 }, wantErr: "LOW_STOCK_THRESHOLD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
