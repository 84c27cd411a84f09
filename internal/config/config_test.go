package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		API:    API{PrimaryURL: "https://api.example.com/api", Timeout: 30 * time.Second},
		Bungie: Bungie{URL: "https://www.bungie.net/Platform"},
		Stats:  Stats{MinimumGames: 1},
		Site:   Site{URL: "https://example.com"},
		Output: Output{Dir: "public"},
		Log:    Log{Level: "info", Format: "console"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingPrimaryURL(t *testing.T) {
	c := validConfig()
	c.API.PrimaryURL = ""
	assert.Error(t, c.Validate())
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Log.Level = "verbose"
	assert.Error(t, c.Validate())
}

func TestValidate_ZeroMinimumGames(t *testing.T) {
	c := validConfig()
	c.Stats.MinimumGames = 0
	assert.Error(t, c.Validate())
}

func TestValidate_PublishNeedsBucket(t *testing.T) {
	c := validConfig()
	c.Publish.Enabled = true
	assert.Error(t, c.Validate())
	c.Publish.Bucket = "site"
	assert.NoError(t, c.Validate())
}

func TestSecondaryAPI(t *testing.T) {
	c := validConfig()
	assert.Equal(t, c.API.PrimaryURL, c.SecondaryAPI())
	c.API.SecondaryURL = "https://history.example.com/api"
	assert.Equal(t, "https://history.example.com/api", c.SecondaryAPI())
}

func TestLoad_EnvAndFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "dcwbuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  primaryUrl: https://file.example.com/api
  timeout: 5s
stats:
  minimumGames: 3
log:
  format: json
`), 0o644))

	t.Setenv("SITE_URL", "https://example.com")
	t.Setenv("ENABLE_MATCH_HISTORY", "true")
	t.Setenv("STATS_GAMES_THRESHOLD", "5")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com/api", conf.API.PrimaryURL)
	assert.Equal(t, 5*time.Second, conf.API.Timeout)
	assert.Equal(t, 5, conf.Stats.MinimumGames)
	assert.True(t, conf.Features.EnableMatchHistory)
	assert.False(t, conf.Features.EnablePreviousLeaderboards)
	assert.Equal(t, "https://example.com", conf.Site.URL)
	assert.Equal(t, "public", conf.Output.Dir)
	assert.Equal(t, "json", conf.Log.Format)
	assert.Equal(t, "https://www.bungie.net/Platform", conf.Bungie.URL)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DCW_API_URL", "")
	t.Setenv("SITE_URL", "")
	_, err := Load("")
	assert.Error(t, err)
}
