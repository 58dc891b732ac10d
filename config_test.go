package campus

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Limits.MutationMinInputArraySize)
	assert.Equal(t, 50, cfg.Limits.MutationMaxInputArraySize)
	assert.Equal(t, 10, cfg.Limits.ShortcodeMaxLength)
	assert.Equal(t, 0, cfg.Validation.AgeRangeLowMin)
	assert.Equal(t, 99, cfg.Validation.AgeRangeHighMax)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no connections", func(c *Config) { c.Database.MaxConnections = 0 }, "database.maxConnections"},
		{"max below min", func(c *Config) { c.Limits.MutationMaxInputArraySize = 0 }, "limits.mutationMaxInputArraySize"},
		{"negative min", func(c *Config) { c.Limits.MutationMinInputArraySize = -1 }, "limits.mutationMinInputArraySize"},
		{"sub items", func(c *Config) { c.Limits.SubItemsMaxLength = 0 }, "limits.subItemsMaxLength"},
		{"shortcode", func(c *Config) { c.Limits.ShortcodeMaxLength = 0 }, "limits.shortcodeMaxLength"},
		{"age bounds", func(c *Config) { c.Validation.AgeRangeHighMax = 0 }, "validation.ageRangeHighMax"},
		{"breaker", func(c *Config) { c.Resilience.BreakerThreshold = 0 }, "resilience.breakerThreshold"},
		{"iam region", func(c *Config) { c.Database.IAMAuth = true }, "database.region"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "campus.yaml")
	content := `
database:
  host: db.internal
  maxConnections: 10
  timeout: 5s
limits:
  mutationMaxInputArraySize: 20
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
	assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
	assert.Equal(t, 20, cfg.Limits.MutationMaxInputArraySize)
	assert.Equal(t, 1, cfg.Limits.MutationMinInputArraySize, "defaults survive partial files")
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  shortcodeMaxLength: 0\n"), 0o600))

	_, err := LoadConfigFile(path)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "limits.shortcodeMaxLength", cfgErr.Field)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
