package config

import (
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validConfig = `
ai:
  key: fileKey
  requests_per_minute: 10
  requests_per_day: 100
pipeline:
  profile_path: ./profile.json
categories:
  rules:
    visa-sponsor-abroad: [[visa]]
    india-remote: [[india, remote]]
    remote-worldwide: [[remote]]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func Test_Config_DefaultsAreApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "fileKey", cfg.AI.Key)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, 3, cfg.AI.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.AI.BaseDelay)
	assert.Equal(t, 50, cfg.Pipeline.MinScore)
	assert.Zero(t, cfg.Pipeline.LowConfidencePenalty)
	assert.Equal(t, StoreSQLite, cfg.Pipeline.Store)
	assert.Equal(t, LevelInfo, cfg.Logger.LogLevel)

	table, priority := cfg.Categories.Table()
	assert.Equal(t, models.AllCategories(), priority)
	assert.Equal(t, [][]string{{"india", "remote"}}, table[models.IndiaRemote])
}

func Test_Config_ShippedConfigRanksByScoreFirst(t *testing.T) {
	t.Setenv("AI_KEY", "key")

	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Zero(t, cfg.Pipeline.LowConfidencePenalty)
}

func Test_Config_EnvironmentOverrideWorksCorrect(t *testing.T) {
	t.Setenv("AI_KEY", "overrideKey")
	t.Setenv("AI_MAX_REQUESTS_PER_MINUTE", "88")
	t.Setenv("AI_MAX_REQUESTS_PER_DAY", "89")
	t.Setenv("DB_CONNECTION_STRING", "newConnectionString")
	t.Setenv("TG_TOKEN", "tgToken")
	t.Setenv("TG_CHAT_ID", "42")

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "overrideKey", cfg.AI.Key)
	assert.Equal(t, float32(88), cfg.AI.RequestsPerMinute)
	assert.Equal(t, 89, cfg.AI.RequestsPerDay)
	assert.Equal(t, "newConnectionString", cfg.DB.ConnectionString)
	assert.True(t, cfg.Telegram.Enabled())
}

func Test_Config_CategoryWithoutKeywords_IsConfigurationError(t *testing.T) {
	content := `
ai:
  key: k
pipeline:
  profile_path: ./profile.json
categories:
  rules:
    visa-sponsor-abroad: [[visa]]
    india-remote: [[" "]]
`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)

	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "india-remote has no keywords")
	assert.Contains(t, err.Error(), "remote-worldwide has no keywords")
}

func Test_Config_UnknownCategory_IsRejected(t *testing.T) {
	content := validConfig + "    on-site: [[office]]\n"
	_, err := Load(writeConfig(t, content))

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "on-site")
}

func Test_Config_MissingFile_IsConfigurationError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func Test_Config_RemotiveQueriesFromEnvironment(t *testing.T) {
	t.Setenv("REMOTIVE_QUERIES", "qa,sdet")

	cfg, err := Load(writeConfig(t, validConfig+"sources:\n  remotive:\n    enabled: true\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"qa", "sdet"}, cfg.Sources.Remotive.Queries)
	assert.Equal(t, 20, cfg.Sources.Remotive.Limit)
}
