// Package config handles configuration loading for stratum.
// It supports XDG config paths, project-level overrides, and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/stratum/internal/scoring"
	"github.com/ShayCichocki/stratum/pkg/models"
)

// Config holds all configuration for stratum.
type Config struct {
	Scoring  scoring.Weights `mapstructure:"scoring"`
	Defaults DefaultsConfig  `mapstructure:"defaults"`
	Health   HealthConfig    `mapstructure:"health"`
	Executor ExecutorConfig  `mapstructure:"executor"`
	Journal  JournalConfig   `mapstructure:"journal"`
	Logging  LoggingConfig   `mapstructure:"logging"`
}

// DefaultsConfig holds fallback values for submitted tasks.
type DefaultsConfig struct {
	// Capability is used when a task declares no required capabilities.
	Capability string `mapstructure:"capability"`
	// Priority is used when a task declares no priority.
	Priority string `mapstructure:"priority"`
	// Complexity is used when a task declares no complexity.
	Complexity string `mapstructure:"complexity"`
}

// HealthConfig holds health-polling settings.
type HealthConfig struct {
	// PollInterval is how often worker health is polled.
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ExecutorConfig holds execution settings.
type ExecutorConfig struct {
	// SimulatedLatency is the artificial delay of the built-in invoker.
	SimulatedLatency time.Duration `mapstructure:"simulated_latency"`
}

// JournalConfig holds outcome-journal settings.
type JournalConfig struct {
	// Enabled turns on the SQLite outcome journal.
	Enabled bool `mapstructure:"enabled"`
	// Path is the journal database path. Empty means the XDG default.
	Path string `mapstructure:"path"`
}

// LoggingConfig holds debug-log settings.
type LoggingConfig struct {
	// DebugLog is the debug log file path. Empty disables debug logging.
	DebugLog string `mapstructure:"debug_log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scoring: scoring.DefaultWeights(),
		Defaults: DefaultsConfig{
			Capability: "general-analysis",
			Priority:   string(models.PriorityMedium),
			Complexity: string(models.ComplexityModerate),
		},
		Health: HealthConfig{
			PollInterval: 30 * time.Second,
		},
		Journal: JournalConfig{
			Enabled: false,
		},
	}
}

// configDir returns the stratum config directory, honoring XDG_CONFIG_HOME.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stratum")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stratum"
	}
	return filepath.Join(home, ".config", "stratum")
}

// Load reads configuration from the XDG config directory, a
// project-level .stratum directory, and STRATUM_* environment
// variables, layered over the built-in defaults. A missing config file
// is not an error.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir())
	v.AddConfigPath(filepath.Join(".", ".stratum"))

	v.SetEnvPrefix("STRATUM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key with its default so viper merges
// partial config files correctly.
func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("scoring.specialization", def.Scoring.Specialization)
	v.SetDefault("scoring.load_penalty", def.Scoring.LoadPenalty)
	v.SetDefault("scoring.critical_bonus", def.Scoring.CriticalBonus)
	v.SetDefault("scoring.history", def.Scoring.History)
	v.SetDefault("scoring.healthy_bonus", def.Scoring.HealthyBonus)
	v.SetDefault("scoring.degraded_penalty", def.Scoring.DegradedPenalty)
	v.SetDefault("scoring.unhealthy_penalty", def.Scoring.UnhealthyPenalty)

	v.SetDefault("defaults.capability", def.Defaults.Capability)
	v.SetDefault("defaults.priority", def.Defaults.Priority)
	v.SetDefault("defaults.complexity", def.Defaults.Complexity)

	v.SetDefault("health.poll_interval", def.Health.PollInterval)
	v.SetDefault("executor.simulated_latency", def.Executor.SimulatedLatency)

	v.SetDefault("journal.enabled", def.Journal.Enabled)
	v.SetDefault("journal.path", def.Journal.Path)

	v.SetDefault("logging.debug_log", def.Logging.DebugLog)
}
