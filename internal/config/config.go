// Package config loads application configuration and initializes logging.
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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Baseline  BaselineConfig  `yaml:"baseline" mapstructure:"baseline"`
	ACS       ACSConfig       `yaml:"acs" mapstructure:"acs"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RegistryConfig configures the source registry.
type RegistryConfig struct {
	// Path overrides the embedded source table when set.
	Path string `yaml:"path" mapstructure:"path"`
}

// BaselineConfig configures the NCES baseline loader.
type BaselineConfig struct {
	// Path to the NCES anchor-year CSV (abbr, year, enrollment).
	Path string `yaml:"path" mapstructure:"path"`
}

// ACSConfig configures the ACS school-age share tables.
type ACSConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ExtractConfig configures state extraction.
type ExtractConfig struct {
	// DataDir holds the pre-staged raw state files.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// ReconcileConfig configures the reconciliation engine.
type ReconcileConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
	// PreferLevel decides which direct granularity wins when a state
	// publishes more than one: "county" or "district".
	PreferLevel string `yaml:"prefer_level" mapstructure:"prefer_level"`
}

// ReportConfig configures the coverage report output.
type ReportConfig struct {
	OutPath string `yaml:"out_path" mapstructure:"out_path"`
}

// FetchConfig configures the HTTP fetcher used for agency downloads.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("ENROLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "enrollment.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("baseline.path", "data/nces_state_projections.csv")
	v.SetDefault("acs.path", "data/acs_county_school_age.yaml")
	v.SetDefault("extract.data_dir", "data")
	v.SetDefault("reconcile.workers", 8)
	v.SetDefault("reconcile.prefer_level", "county")
	v.SetDefault("report.out_path", "data_coverage_report.md")
	v.SetDefault("fetch.user_agent", "enrollment-cli research@sellsadvisors.com")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 2.0)

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
