// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	OpenData OpenDataConfig `yaml:"opendata" mapstructure:"opendata"`
	Safety   SafetyConfig   `yaml:"safety" mapstructure:"safety"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Guidance GuidanceConfig `yaml:"guidance" mapstructure:"guidance"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// OpenDataConfig configures the civic open-data provider.
type OpenDataConfig struct {
	BaseURL     string            `yaml:"base_url" mapstructure:"base_url"`
	AppToken    string            `yaml:"app_token" mapstructure:"app_token"`
	Resources   map[string]string `yaml:"resources" mapstructure:"resources"`
	TimeoutSecs int               `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int               `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string            `yaml:"user_agent" mapstructure:"user_agent"`
}

// SafetyConfig holds default query parameters for assessments.
type SafetyConfig struct {
	DefaultRadiusMeters   int `yaml:"default_radius_meters" mapstructure:"default_radius_meters"`
	DefaultTimeWindowDays int `yaml:"default_time_window_days" mapstructure:"default_time_window_days"`
}

// StoreConfig configures the assessment history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GuidanceConfig holds settings for narrative guidance generation.
type GuidanceConfig struct {
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SAFEPATH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secret-bearing keys get empty defaults so AutomaticEnv
	// can bind them without a config file.
	v.SetDefault("opendata.base_url", "https://data.sfgov.org/resource")
	v.SetDefault("opendata.app_token", "")
	v.SetDefault("opendata.timeout_secs", 30)
	v.SetDefault("opendata.max_retries", 3)
	v.SetDefault("opendata.user_agent", "safepath/1.0")
	v.SetDefault("safety.default_radius_meters", 500)
	v.SetDefault("safety.default_time_window_days", 30)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "safepath.db")
	v.SetDefault("guidance.api_key", "")
	v.SetDefault("guidance.model", "claude-haiku-4-5-20251001")
	v.SetDefault("guidance.max_tokens", 1024)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
