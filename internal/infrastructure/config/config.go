package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/licensegate/licensegate/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Security  sharedConfig.SecurityConfig  `mapstructure:"security"`
	RateLimit sharedConfig.RateLimitConfig `mapstructure:"ratelimit"`
	Webhook   sharedConfig.WebhookConfig   `mapstructure:"webhook"`
	Telegram  sharedConfig.TelegramConfig  `mapstructure:"telegram"`
	Email     sharedConfig.EmailConfig     `mapstructure:"email"`
	Scheduler sharedConfig.SchedulerConfig `mapstructure:"scheduler"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// An optional explicit config file path may be passed as the second argument.
func Load(env string, configPath ...string) (*Config, error) {
	v := viper.New()

	if len(configPath) > 0 && configPath[0] != "" {
		v.SetConfigFile(configPath[0])
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("LICENSEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env vars still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timezone", "UTC")

	// Database defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "licensegate_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Security defaults; an empty signing secret makes the server generate one at startup
	v.SetDefault("security.signing_secret", "")
	v.SetDefault("security.nonce_ttl", "5m")
	v.SetDefault("security.token_max_age", "5m")
	v.SetDefault("security.state_backend", "memory")
	v.SetDefault("security.license_key_prefix", "LG")

	// Rate limit defaults
	v.SetDefault("ratelimit.default_per_minute", 60)
	v.SetDefault("ratelimit.window", "1m")

	// Webhook defaults
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("webhook.max_retries", 3)

	// Email defaults (disabled unless smtp_host is set)
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.from_name", "LicenseGate")

	// Scheduler defaults
	v.SetDefault("scheduler.expiry_interval", "1h")
	v.SetDefault("scheduler.reminder_interval", "1h")
	v.SetDefault("scheduler.reminder_days", 7)
	v.SetDefault("scheduler.nonce_sweep", "1m")
	v.SetDefault("scheduler.embedded", true)
}
