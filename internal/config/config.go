package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the collector daemon configuration.
type Config struct {
	Listen        string        `mapstructure:"listen"`
	HTTPListen    string        `mapstructure:"http_listen"`
	EnableSwagger bool          `mapstructure:"enable_swagger"`
	DatabasePath  string        `mapstructure:"database"`
	RetentionDays int           `mapstructure:"retention_days"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
	ClientSecret  string        `mapstructure:"client_secret"`
	ApiSecret     string        `mapstructure:"api_secret"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFormat     string        `mapstructure:"log_format"`
}

// Load reads configuration from file and environment.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("collector")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/hwreport-collector")
	}

	v.SetDefault("listen", ":9550")
	v.SetDefault("http_listen", ":9551")
	v.SetDefault("enable_swagger", true)
	v.SetDefault("database", "reports.db")
	v.SetDefault("retention_days", 0)
	v.SetDefault("purge_interval", "24h")
	v.SetDefault("max_body_bytes", 1<<20)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("COLLECTOR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	return &cfg, nil
}
