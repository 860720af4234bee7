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
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
	Run        RunConfig        `yaml:"run" mapstructure:"run"`
	Categories CategoriesConfig `yaml:"categories" mapstructure:"categories"`
	Masterlist MasterlistConfig `yaml:"masterlist" mapstructure:"masterlist"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// HTTPConfig configures the document fetcher.
type HTTPConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffSecs int     `yaml:"backoff_secs" mapstructure:"backoff_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	// InsecureSkipVerify disables TLS certificate verification. The exchange
	// serves filings behind a misconfigured certificate chain, so this
	// defaults to true; set SHP_HTTP_INSECURE_SKIP_VERIFY=false to enforce
	// verification against a properly fronted mirror.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// RunConfig configures the orchestration pass.
type RunConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	DelayMinMs  int `yaml:"delay_min_ms" mapstructure:"delay_min_ms"`
	DelayMaxMs  int `yaml:"delay_max_ms" mapstructure:"delay_max_ms"`
}

// CategoriesConfig selects the membership table resource.
type CategoriesConfig struct {
	// Path points to a YAML table; empty selects the embedded default.
	Path            string `yaml:"path" mapstructure:"path"`
	RequireDisjoint bool   `yaml:"require_disjoint" mapstructure:"require_disjoint"`
}

// MasterlistConfig configures the disclosure master-list API.
type MasterlistConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
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
	v.SetEnvPrefix("SHP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("http.timeout_secs", 60)
	v.SetDefault("http.max_retries", 5)
	v.SetDefault("http.backoff_secs", 2)
	v.SetDefault("http.rate_limit", 10)
	v.SetDefault("http.insecure_skip_verify", true)
	v.SetDefault("run.concurrency", 5)
	v.SetDefault("run.delay_min_ms", 400)
	v.SetDefault("run.delay_max_ms", 1500)
	v.SetDefault("categories.require_disjoint", false)
	v.SetDefault("masterlist.base_url", "https://www.nseindia.com")
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
