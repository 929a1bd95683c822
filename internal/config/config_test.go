package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATA_SOURCE", "")
	t.Setenv("DB_HOST", "")
	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "memory", cfg.DataSource)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 2*time.Second, cfg.Screening.Delay)
	assert.Equal(t, 715, cfg.Screening.CreditScore)
	assert.Equal(t, "Neela Capital Investment", cfg.Settings.Branding.CompanyName)
	assert.Len(t, cfg.Settings.LeaseTemplates, 3)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATA_SOURCE", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("SCREENING_DELAY", "10ms")
	t.Setenv("MQTT_QOS", "2")
	t.Setenv("COMPANY_NAME", "Acme Homes")
	t.Setenv("AI_TIMEOUT", "not-a-duration")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.DataSource)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 10*time.Millisecond, cfg.Screening.Delay)
	assert.Equal(t, byte(2), cfg.MQTT.QoS)
	assert.Equal(t, "Acme Homes", cfg.Settings.Branding.CompanyName)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_ADDR=:9191\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	// godotenv 不覆盖已存在的变量；先确保未设置
	prev, had := os.LookupEnv("HTTP_ADDR")
	require.NoError(t, os.Unsetenv("HTTP_ADDR"))
	defer func() {
		if had {
			_ = os.Setenv("HTTP_ADDR", prev)
		} else {
			_ = os.Unsetenv("HTTP_ADDR")
		}
	}()

	cfg := Load()
	assert.Equal(t, ":9191", cfg.HTTP.Addr)
}

func TestSettings_Template(t *testing.T) {
	s := DefaultSettings()
	tpl, ok := s.Template("standard-texas")
	require.True(t, ok)
	assert.Contains(t, tpl.Body, "{{tenant_name}}")
	_, ok = s.Template("nope")
	assert.False(t, ok)
}
