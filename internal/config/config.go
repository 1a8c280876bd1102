package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-dedup/internal/dedup"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Match       MatchConfig       `yaml:"match" mapstructure:"match"`
	Phone       PhoneConfig       `yaml:"phone" mapstructure:"phone"`
	Merge       MergeConfig       `yaml:"merge" mapstructure:"merge"`
	Fingerprint FingerprintConfig `yaml:"fingerprint" mapstructure:"fingerprint"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MatchConfig holds fuzzy matching thresholds.
type MatchConfig struct {
	EmailThreshold     float64 `yaml:"email_threshold" mapstructure:"email_threshold"`
	NameThreshold      float64 `yaml:"name_threshold" mapstructure:"name_threshold"`
	PhoneThreshold     float64 `yaml:"phone_threshold" mapstructure:"phone_threshold"`
	CompanyThreshold   float64 `yaml:"company_threshold" mapstructure:"company_threshold"`
	IncludeNameCompany bool    `yaml:"include_name_company" mapstructure:"include_name_company"`
}

// PhoneConfig configures phone normalization.
type PhoneConfig struct {
	DefaultCountryCode string `yaml:"default_country_code" mapstructure:"default_country_code"`
}

// MergeConfig paces and retries auto-merge writes. Zero WritesPerSecond
// means unlimited.
type MergeConfig struct {
	WritesPerSecond  float64 `yaml:"writes_per_second" mapstructure:"writes_per_second"`
	Burst            int     `yaml:"burst" mapstructure:"burst"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// FingerprintConfig configures file fingerprinting.
type FingerprintConfig struct {
	Concurrency        int     `yaml:"concurrency" mapstructure:"concurrency"`
	DuplicateThreshold float64 `yaml:"duplicate_threshold" mapstructure:"duplicate_threshold"`
}

// MatchOptions converts the match and phone sections into engine options.
func (c *Config) MatchOptions() dedup.MatchOptions {
	return dedup.MatchOptions{
		EmailThreshold:          c.Match.EmailThreshold,
		NameThreshold:           c.Match.NameThreshold,
		PhoneThreshold:          c.Match.PhoneThreshold,
		CompanyThreshold:        c.Match.CompanyThreshold,
		IncludeNameCompanyMatch: c.Match.IncludeNameCompany,
		DefaultCountryCode:      c.Phone.DefaultCountryCode,
	}
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "scan", "check", "phones":
	case "import", "merge", "migrate":
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	case "fingerprint":
		if c.Fingerprint.Concurrency < 1 || c.Fingerprint.Concurrency > 64 {
			errs = append(errs, "fingerprint.concurrency must be between 1 and 64")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if err := c.MatchOptions().Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Fingerprint.DuplicateThreshold < 0 || c.Fingerprint.DuplicateThreshold > 1 {
		errs = append(errs, "fingerprint.duplicate_threshold must be between 0 and 1")
	}
	if c.Merge.WritesPerSecond < 0 {
		errs = append(errs, "merge.writes_per_second must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADDEDUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	defaults := dedup.DefaultMatchOptions()
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lead-dedup.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("match.email_threshold", defaults.EmailThreshold)
	v.SetDefault("match.name_threshold", defaults.NameThreshold)
	v.SetDefault("match.phone_threshold", defaults.PhoneThreshold)
	v.SetDefault("match.company_threshold", defaults.CompanyThreshold)
	v.SetDefault("match.include_name_company", defaults.IncludeNameCompanyMatch)
	v.SetDefault("phone.default_country_code", defaults.DefaultCountryCode)
	v.SetDefault("merge.writes_per_second", 0)
	v.SetDefault("merge.burst", 1)
	v.SetDefault("merge.max_attempts", 3)
	v.SetDefault("merge.initial_backoff_ms", 50)
	v.SetDefault("fingerprint.concurrency", 4)
	v.SetDefault("fingerprint.duplicate_threshold", 0.9)

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
