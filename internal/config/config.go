// Package config loads the build configuration from an optional YAML file,
// a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type API struct {
	PrimaryURL        string        `mapstructure:"primaryUrl" validate:"required|fullUrl"`
	SecondaryURL      string        `mapstructure:"secondaryUrl"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
}

type Bungie struct {
	URL    string `mapstructure:"url" validate:"required|fullUrl"`
	APIKey string `mapstructure:"apiKey"`
}

type Features struct {
	EnableMatchHistory         bool `mapstructure:"enableMatchHistory"`
	EnablePreviousLeaderboards bool `mapstructure:"enablePreviousLeaderboards"`
}

type Stats struct {
	MinimumGames int `mapstructure:"minimumGames" validate:"required|min:1"`
}

type Site struct {
	URL string `mapstructure:"url" validate:"required|fullUrl"`
}

type Output struct {
	Dir      string `mapstructure:"dir" validate:"required"`
	Compress bool   `mapstructure:"compress"`
}

type Publish struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	Prefix          string `mapstructure:"prefix"`
}

type Metrics struct {
	Textfile string `mapstructure:"textfile"`
}

type Log struct {
	Level  string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Format string `mapstructure:"format" validate:"required|in:console,json"`
}

// Config is threaded explicitly through the pipeline; nothing reads it globally.
type Config struct {
	API      API      `mapstructure:"api"`
	Bungie   Bungie   `mapstructure:"bungie"`
	Features Features `mapstructure:"features"`
	Stats    Stats    `mapstructure:"stats"`
	Site     Site     `mapstructure:"site"`
	Output   Output   `mapstructure:"output"`
	Publish  Publish  `mapstructure:"publish"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Log      Log      `mapstructure:"log"`
}

// SecondaryAPI falls back to the primary API when no secondary is configured.
func (c *Config) SecondaryAPI() string {
	if c.API.SecondaryURL != "" {
		return c.API.SecondaryURL
	}
	return c.API.PrimaryURL
}

var envBindings = map[string]string{
	"api.primaryUrl":                      "DCW_API_URL",
	"api.secondaryUrl":                    "DCW_API_SECONDARY_URL",
	"api.timeout":                         "DCW_API_TIMEOUT",
	"api.requestsPerSecond":               "DCW_API_RPS",
	"bungie.url":                          "BUNGIE_API_URL",
	"bungie.apiKey":                       "BUNGIE_API_KEY",
	"features.enableMatchHistory":         "ENABLE_MATCH_HISTORY",
	"features.enablePreviousLeaderboards": "ENABLE_PREVIOUS_LEADERBOARDS",
	"stats.minimumGames":                  "STATS_GAMES_THRESHOLD",
	"site.url":                            "SITE_URL",
	"output.dir":                          "DCW_OUTPUT_DIR",
	"output.compress":                     "DCW_OUTPUT_COMPRESS",
	"publish.enabled":                     "DCW_PUBLISH_ENABLED",
	"publish.bucket":                      "DCW_PUBLISH_BUCKET",
	"publish.endpoint":                    "DCW_PUBLISH_ENDPOINT",
	"publish.region":                      "DCW_PUBLISH_REGION",
	"publish.accessKeyId":                 "DCW_PUBLISH_ACCESS_KEY_ID",
	"publish.secretAccessKey":             "DCW_PUBLISH_SECRET_ACCESS_KEY",
	"publish.prefix":                      "DCW_PUBLISH_PREFIX",
	"metrics.textfile":                    "DCW_METRICS_TEXTFILE",
	"log.level":                           "DCW_LOG_LEVEL",
	"log.format":                          "DCW_LOG_FORMAT",
}

// Load reads .env (if present), then the YAML file at path (if present), then
// the environment, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("bungie.url", "https://www.bungie.net/Platform")
	v.SetDefault("stats.minimumGames", 1)
	v.SetDefault("output.dir", "public")
	v.SetDefault("publish.region", "auto")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks field rules and the cross-field publish requirements.
func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}
	if c.Publish.Enabled && c.Publish.Bucket == "" {
		return errors.New("invalid config: publish.bucket is required when publishing is enabled")
	}
	return nil
}
