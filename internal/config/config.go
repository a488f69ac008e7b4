// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// GlobalConfig is the top-level static configuration, consumed by the
// daemon at startup. Maps to the `aptaskd:` root
// key in YAML.
type GlobalConfig struct {
	Host         string            `mapstructure:"host"`
	Port         int               `mapstructure:"port"`
	NumProcs     int               `mapstructure:"num_procs"`
	TickInterval string            `mapstructure:"tick_interval"`
	Directories  DirectoriesConfig `mapstructure:"directories"`
	Keys         KeysConfig        `mapstructure:"keys"`
	Log          LogConfig         `mapstructure:"log"`
	Metrics      MetricsConfig     `mapstructure:"metrics"`
	EventLog     EventLogConfig    `mapstructure:"event_log"`
}

// DirectoriesConfig names the filesystem locations the daemon reads from
// and writes to.
type DirectoriesConfig struct {
	Routines string `mapstructure:"routines"`
	Data     string `mapstructure:"data"`
}

// KeysConfig holds the two static authorization allow-lists. An empty or
// absent list means allow-all for that role.
type KeysConfig struct {
	Users  []string `mapstructure:"users"`
	Admins []string `mapstructure:"admins"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"` // debug / info / warn / error
	Format string `mapstructure:"format"`
	Output FileOutputConfig `mapstructure:"output"`
}

// FileOutputConfig configures rotated file log output.
type FileOutputConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// EventLogConfig configures the external event log sink. Its schema is
// its own concern; the core only needs a writable path.
type EventLogConfig struct {
	Path string `mapstructure:"path"`
}

// configRoot is the top-level wrapper matching the YAML structure
// `aptaskd: ...`.
type configRoot struct {
	Aptaskd GlobalConfig `mapstructure:"aptaskd"`
}

// Load reads configuration from the YAML file at path, applying defaults
// and environment overrides (key "aptaskd.log.level" -> env
// "APTASKD_LOG_LEVEL").
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Aptaskd

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("aptaskd.host", "127.0.0.1")
	v.SetDefault("aptaskd.port", 9800)
	v.SetDefault("aptaskd.num_procs", 4)
	v.SetDefault("aptaskd.tick_interval", "200ms")

	v.SetDefault("aptaskd.directories.routines", "")
	v.SetDefault("aptaskd.directories.data", "/var/lib/aptaskd")

	v.SetDefault("aptaskd.log.level", "info")
	v.SetDefault("aptaskd.log.format", "json")
	v.SetDefault("aptaskd.log.output.enabled", false)
	v.SetDefault("aptaskd.log.output.path", "/var/log/aptaskd/aptaskd.log")
	v.SetDefault("aptaskd.log.output.max_size_mb", 100)
	v.SetDefault("aptaskd.log.output.max_age_days", 30)
	v.SetDefault("aptaskd.log.output.max_backups", 5)
	v.SetDefault("aptaskd.log.output.compress", true)

	v.SetDefault("aptaskd.metrics.enabled", true)
	v.SetDefault("aptaskd.metrics.listen", ":9801")
	v.SetDefault("aptaskd.metrics.path", "/metrics")

	v.SetDefault("aptaskd.event_log.path", "/var/lib/aptaskd/events.log")
}

// ValidateAndApplyDefaults checks the loaded configuration for
// consistency. Log level normalization (falling back to "warn" for an
// unrecognized value, with a logged warning) happens in internal/log.Init,
// once a logger exists to report the fallback through.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	if cfg.NumProcs < 1 {
		return fmt.Errorf("num_procs must be >= 1, got %d", cfg.NumProcs)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be in 0..65535, got %d", cfg.Port)
	}
	return nil
}
