package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultUserAgent is the client identity sent to the archive provider.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 5.1; rv:40.0) Gecko/20100101 Firefox/40.0"

// Config stores all configuration for the application.
type Config struct {
	DBPath string `mapstructure:"db_path"`
	Port   int    `mapstructure:"port"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	UserAgent       string        `mapstructure:"user_agent"`
	WaybackEndpoint string        `mapstructure:"wayback_endpoint"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`

	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`

	SlowQuery time.Duration `mapstructure:"slow_query"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// New returns a viper instance with defaults and ARKIVE_* environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ARKIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", "arkive.db")
	v.SetDefault("port", 3000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_file", "")
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("wayback_endpoint", "https://web.archive.org")
	v.SetDefault("provider_timeout", 120*time.Second)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("lock_ttl", 5*time.Minute)
	v.SetDefault("slow_query", 200*time.Millisecond)
	return v
}

// Load reads configFile when given and unmarshals v into a Config.
// Environment variables take precedence over the file.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.WaybackEndpoint == "" {
		return fmt.Errorf("wayback_endpoint must not be empty")
	}
	if c.ProviderTimeout < 0 {
		return fmt.Errorf("provider_timeout must not be negative")
	}
	return nil
}
