// Package config loads application settings and the user's business rules.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: NEURON_DB_PATH,
// NEURON_LOG_LEVEL, NEURON_CACHE_SIZE_MB and so on.
const EnvPrefix = "NEURON"

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error"`
	Format string `mapstructure:"format" validate:"required|in:console,json"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	SizeMB  int  `mapstructure:"size_mb" validate:"required|min:1"`
}

type ThresholdConfig struct {
	ShortDeadlineDays int `mapstructure:"short_deadline_days" validate:"min:0"`
	UpcomingDays      int `mapstructure:"upcoming_days" validate:"required|min:1"`
}

type OpenConfig struct {
	Attempts int           `mapstructure:"attempts" validate:"required|min:1"`
	Backoff  time.Duration `mapstructure:"backoff"`
}

// AppConfig is everything the neuron binary reads at startup.
type AppConfig struct {
	DBPath     string          `mapstructure:"db_path" validate:"required"`
	RulesFile  string          `mapstructure:"rules_file"`
	LegacyFile string          `mapstructure:"legacy_file"`
	Log        LogConfig       `mapstructure:"log"`
	Cache      CacheConfig     `mapstructure:"cache"`
	Thresholds ThresholdConfig `mapstructure:"thresholds"`
	Open       OpenConfig      `mapstructure:"open"`

	// Path is the config file actually read, empty when none was.
	Path string `mapstructure:"-"`
}

// DefaultDir is ~/.neuron, or the working directory when there is no home.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".neuron"
	}
	return filepath.Join(home, ".neuron")
}

func setDefaults(v *viper.Viper) {
	dir := DefaultDir()
	v.SetDefault("db_path", filepath.Join(dir, "neuron.db"))
	v.SetDefault("rules_file", filepath.Join(dir, "rules.json"))
	v.SetDefault("legacy_file", filepath.Join(dir, "legacy.json"))
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size_mb", 16)
	v.SetDefault("thresholds.short_deadline_days", 2)
	v.SetDefault("thresholds.upcoming_days", 7)
	v.SetDefault("open.attempts", 3)
	v.SetDefault("open.backoff", 100*time.Millisecond)
}

// Load reads defaults, then the optional config file at path, then NEURON_*
// environment variables. A missing file at the default location is fine; a
// missing file the caller named explicitly is not.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(DefaultDir(), "config.yaml")
	}
	read := ""
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		read = path
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	cfg.Path = read

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field rules and the relation between thresholds.
func (c *AppConfig) Validate() error {
	for _, section := range []any{c, &c.Log, &c.Cache, &c.Thresholds, &c.Open} {
		v := validate.Struct(section)
		if !v.Validate() {
			return fmt.Errorf("invalid config: %w", v.Errors)
		}
	}
	if c.Thresholds.UpcomingDays < c.Thresholds.ShortDeadlineDays {
		return fmt.Errorf("invalid config: thresholds.upcoming_days (%d) is below thresholds.short_deadline_days (%d)",
			c.Thresholds.UpcomingDays, c.Thresholds.ShortDeadlineDays)
	}
	if c.Open.Backoff < 0 {
		return fmt.Errorf("invalid config: open.backoff must not be negative")
	}
	return nil
}
