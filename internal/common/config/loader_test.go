package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: membership-signup
database:
  postgres:
    host: localhost
    database: fanclub
    user: ${TEST_DB_USER}
  redis:
    address: localhost:6379
admin:
  jwt_secret: test-secret
workers:
  membership.welcome-email:
    enabled: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("TEST_DB_USER", "fanclub_app")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "fanclub_app", cfg.Database.Postgres.User)
	assert.Equal(t, "sk_test_123", cfg.Payment.SecretKey)
	assert.Equal(t, "usd", cfg.Payment.Currency)
	assert.Equal(t, 1500, cfg.Payment.SuccessDelay)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "membership-onboarding", cfg.Camunda.ProcessID)
	assert.Equal(t, "memberships", cfg.Database.Elasticsearch.Index)
	assert.Equal(t, 5, cfg.Workers["membership.welcome-email"].MaxJobsActive)
}

func TestLoadFromFile_MissingStripeKeyIsNotFatal(t *testing.T) {
	t.Setenv("TEST_DB_USER", "fanclub_app")
	t.Setenv("STRIPE_SECRET_KEY", "")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)
	assert.Empty(t, cfg.Payment.SecretKey)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Database.Postgres = PostgresConfig{Host: "h", Database: "d", User: "u"}
		cfg.Database.Redis.Address = "localhost:6379"
		cfg.Admin.JWTSecret = "s"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing host", func(c *Config) { c.Database.Postgres.Host = "" }, "database.postgres.host"},
		{"missing redis", func(c *Config) { c.Database.Redis.Address = "" }, "database.redis.address"},
		{"es enabled without addresses", func(c *Config) { c.Database.Elasticsearch.Enabled = true }, "elasticsearch.addresses"},
		{"camunda enabled without broker", func(c *Config) { c.Camunda.Enabled = true }, "camunda.broker_address"},
		{"missing jwt secret", func(c *Config) { c.Admin.JWTSecret = "" }, "admin.jwt_secret"},
		{"ses without sender", func(c *Config) { c.Integrations.AWS.SES.Enabled = true }, "from_email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	wc := GetWorkerConfig(&Config{}, "unknown")
	assert.True(t, wc.Enabled)
	assert.Equal(t, 3, wc.MaxRetries)
}
