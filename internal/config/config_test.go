package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "TABLE_PREFIX", "DATA_PREFIX", "AUTOSAVE_DELAY", "ADMIN_EMAILS", "GITHUB_RPS", "SESSION_IDLE_TIMEOUT", "SESSION_SWEEP_SCHEDULE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, "src/assets/data/", cfg.DataPrefix)
	assert.Equal(t, 3*time.Second, cfg.AutosaveDelay)
	assert.Equal(t, 10, cfg.GitHubRPS)
	assert.Empty(t, cfg.AdminEmails)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
	assert.Equal(t, "@every 5m", cfg.SessionSweepSchedule)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("ADMIN_EMAILS", " Admin@Bookora.dev, ,ops@bookora.dev ")
	t.Setenv("AUTOSAVE_DELAY", "500ms")
	t.Setenv("GITHUB_RPS", "0")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "prod_", cfg.TablePrefix)
	assert.Equal(t, []string{"Admin@Bookora.dev", "ops@bookora.dev"}, cfg.AdminEmails)
	assert.Equal(t, 500*time.Millisecond, cfg.AutosaveDelay)
	assert.Equal(t, 0, cfg.GitHubRPS)
}

func TestValidateAuthSecret(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		secret  string
		wantErr bool
	}{
		{"dev default", "dev", DevAuthSecret, false},
		{"prod default", "prod", DevAuthSecret, true},
		{"prod empty", "prod", "", true},
		{"prod private", "prod", "9f1c2e7a-private", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.env, AuthSecret: tt.secret}
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}

	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("AUTH_SECRET", "")
	assert.Error(t, Load().Validate(), "unset secret falls back to the dev one")
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"bookora-2025-01-01T00-00-00.log",
		"bookora-2025-01-02T00-00-00.log",
		"bookora-2025-01-03T00-00-00.log",
		"other.log",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0644))
	}

	require.NoError(t, cleanupOldLogs(dir, 2))

	left, err := filepath.Glob(filepath.Join(dir, "*.log"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "bookora-2025-01-02T00-00-00.log"),
		filepath.Join(dir, "bookora-2025-01-03T00-00-00.log"),
		filepath.Join(dir, "other.log"),
	}, left)
}
