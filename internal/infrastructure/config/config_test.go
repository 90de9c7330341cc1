package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mtp-newsletter", cfg.App.Name)
	assert.Equal(t, "/opt/mtp-newsletter/data/newsletter.db", cfg.Database.URL)
	assert.Equal(t, "/opt/mtp-newsletter/templates", cfg.Paths.TemplateDir)
	assert.Equal(t, "/opt/mtp-newsletter/output", cfg.Paths.OutputDir)
	assert.Equal(t, 30*time.Second, cfg.MTP.Timeout)
	assert.Equal(t, 3, cfg.Cache.RetryAttempts)
	assert.Equal(t, time.Second, cfg.Cache.RetryBackoff)
	assert.Equal(t, 24*time.Hour, cfg.Cache.StaleAfter)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NEWSLETTER_DATABASE_URL", "/tmp/test.db")
	t.Setenv("NEWSLETTER_MTP_USERNAME", "operator")
	t.Setenv("NEWSLETTER_PATHS_OUTPUT_DIR", "/tmp/out")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Database.URL)
	assert.Equal(t, "operator", cfg.MTP.Username)
	assert.Equal(t, "/tmp/out", cfg.Paths.OutputDir)
}

func TestValidateMTPCredentials(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateMTPCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEWSLETTER_MTP_USERNAME")
	assert.Contains(t, err.Error(), "NEWSLETTER_MTP_SERVICE_URL")

	cfg.MTP.Username = "u"
	cfg.MTP.Password = "p"
	cfg.MTP.ServiceURL = "https://example.test/odata"
	assert.NoError(t, cfg.ValidateMTPCredentials())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Cache.RetryAttempts = -1
	assert.Error(t, cfg.validate())
}
