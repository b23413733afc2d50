package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DaemonPort       int           `mapstructure:"daemon_port"`
	BufferSize       int           `mapstructure:"buffer_size"`
	SyncInterval     time.Duration `mapstructure:"sync_interval"`
	ToleranceSeconds int           `mapstructure:"tolerance_seconds"`
	ParallelCopies   int           `mapstructure:"parallel_copies"`
	ConflictPolicy   string        `mapstructure:"conflict_policy"`
	IgnoreList       []string      `mapstructure:"ignore_list"`
	DBPath           string        `mapstructure:"db_path"`
	LogFile          string        `mapstructure:"log_file"`
}

var Default = Config{
	DaemonPort:       9310,
	BufferSize:       100,
	SyncInterval:     5 * time.Minute,
	ToleranceSeconds: 2,
	ParallelCopies:   4,
	ConflictPolicy:   "MANUAL",
	IgnoreList:       []string{".DS_Store", "Thumbs.db", "*.tmp", "*.bak", "*.lock"},
	DBPath:           "memcard.db",
}

// Tolerance is the timestamp window within which two files count as equally
// recent, absorbing filesystem timestamp granularity differences.
func (c *Config) Tolerance() time.Duration {
	return time.Duration(c.ToleranceSeconds) * time.Second
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	configDir := filepath.Join(home, ".memcard")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	viper.SetDefault("daemon_port", Default.DaemonPort)
	viper.SetDefault("buffer_size", Default.BufferSize)
	viper.SetDefault("sync_interval", Default.SyncInterval)
	viper.SetDefault("tolerance_seconds", Default.ToleranceSeconds)
	viper.SetDefault("parallel_copies", Default.ParallelCopies)
	viper.SetDefault("conflict_policy", Default.ConflictPolicy)
	viper.SetDefault("ignore_list", Default.IgnoreList)
	viper.SetDefault("db_path", filepath.Join(configDir, Default.DBPath))
	viper.SetDefault("log_file", "")

	viper.SetEnvPrefix("MEMCARD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
