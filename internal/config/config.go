// Package config loads server and client settings with viper. Values come
// from config/<name>.<CONFIG_ENV>.yaml, then HELPWAVE_* environment
// variables, then the defaults below.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const envPrefix = "HELPWAVE"

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	Secret       string        `mapstructure:"secret"`
	DBPath       string        `mapstructure:"db_path"`
	FlagAfter    time.Duration `mapstructure:"flag_after"`
	FlagInterval time.Duration `mapstructure:"flag_interval"`
	PostLimit    int           `mapstructure:"post_limit"`
	PostWindow   time.Duration `mapstructure:"post_window"`
	KickAfter    int           `mapstructure:"kick_after"`
	LogLevel     string        `mapstructure:"log_level"`
}

type ClientConfig struct {
	ServerURL      string        `mapstructure:"server_url"`
	StatePath      string        `mapstructure:"state_path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	LogLevel       string        `mapstructure:"log_level"`
}

// Load reads the backend configuration.
func Load() (*Config, error) {
	v := newViper("config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "helpwave-dev-secret")
	v.SetDefault("db_path", "helpwave.db")
	v.SetDefault("flag_after", "30m")
	v.SetDefault("flag_interval", "60s")
	v.SetDefault("post_limit", 10)
	v.SetDefault("post_window", "1m")
	v.SetDefault("kick_after", 3)
	v.SetDefault("log_level", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.PingPeriod <= 0 || cfg.FlagInterval <= 0 {
		return nil, fmt.Errorf("ping_period and flag_interval must be positive")
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("db", cfg.DBPath).Msg("server config")
	return &cfg, nil
}

// LoadClient reads the board client configuration.
func LoadClient() (*ClientConfig, error) {
	v := newViper("client")

	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("state_path", defaultStatePath())
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("reconnect_delay", "1s")
	v.SetDefault("log_level", "warn")

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	return &cfg, nil
}

func newViper(name string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/%s.%s.yaml", name, env)
	v.SetConfigFile(fileName)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Debug().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}
	return v
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".helpwave-session.db"
	}
	return filepath.Join(dir, "helpwave", "session.db")
}
