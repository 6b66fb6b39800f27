package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Dataset     DatasetConfig   `mapstructure:"dataset"`
	Analytics   AnalyticsConfig `mapstructure:"analytics"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Security    SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the host:port pair for the redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type CacheConfig struct {
	TTL       string `mapstructure:"ttl"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatasetConfig struct {
	Dir    string `mapstructure:"dir"`
	V1File string `mapstructure:"v1_file"`
	V2File string `mapstructure:"v2_file"`
}

type AnalyticsConfig struct {
	MaxLagV1         int     `mapstructure:"max_lag_v1"`
	MaxLagV2         int     `mapstructure:"max_lag_v2"`
	DefaultSmoothing int     `mapstructure:"default_smoothing"`
	BlendWeight      float64 `mapstructure:"blend_weight"`
	ClipBound        float64 `mapstructure:"clip_bound"`
	MinPairs         int     `mapstructure:"min_pairs"`
	RollingPeriod    int     `mapstructure:"rolling_period"`
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	OTLPLogs       bool   `mapstructure:"otlp_logs"`
}

type SecurityConfig struct {
	AdminAPIKey  string `mapstructure:"admin_api_key" json:"-" yaml:"-"`
	AdminKeyHash string `mapstructure:"admin_key_hash" json:"-" yaml:"-"`
	BcryptCost   int    `mapstructure:"bcrypt_cost"`
}

// CacheTTL returns the parsed memo TTL.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return time.Hour
	}
	return d
}

// ShutdownTimeout returns the parsed graceful shutdown window.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("security.admin_api_key", "ADMIN_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind ADMIN_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("security.admin_key_hash", "ADMIN_KEY_HASH"); err != nil {
		return nil, fmt.Errorf("failed to bind ADMIN_KEY_HASH environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Security.AdminAPIKey == "" && c.Security.AdminKeyHash == "" {
		return errors.New("ADMIN_API_KEY or ADMIN_KEY_HASH is required in non-development environments")
	}

	if c.Cache.TTL != "" {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return fmt.Errorf("invalid cache ttl: %w", err)
		}
	}
	if c.Server.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}

	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.Security.BcryptCost)
	}

	a := c.Analytics
	if a.MaxLagV1 < 0 || a.MaxLagV2 < 0 {
		return fmt.Errorf("max lag must be non-negative, got v1=%d v2=%d", a.MaxLagV1, a.MaxLagV2)
	}
	if a.DefaultSmoothing < 1 {
		return fmt.Errorf("default smoothing must be at least 1, got %d", a.DefaultSmoothing)
	}
	if a.BlendWeight < 0 || a.BlendWeight > 1 {
		return fmt.Errorf("blend weight must be within [0, 1], got %g", a.BlendWeight)
	}
	if a.ClipBound <= 0 {
		return fmt.Errorf("clip bound must be positive, got %g", a.ClipBound)
	}
	if a.MinPairs < 2 {
		return fmt.Errorf("min pairs must be at least 2, got %d", a.MinPairs)
	}
	if a.RollingPeriod < 1 {
		return fmt.Errorf("rolling period must be at least 1, got %d", a.RollingPeriod)
	}

	switch c.Telemetry.Exporter {
	case "stdout", "otlp", "none":
	default:
		return fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Recompute memo
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.key_prefix", "recompute:")

	// Dataset bundles
	v.SetDefault("dataset.dir", "data")
	v.SetDefault("dataset.v1_file", "v1.json")
	v.SetDefault("dataset.v2_file", "v2.json")

	// Analytics
	v.SetDefault("analytics.max_lag_v1", 12)
	v.SetDefault("analytics.max_lag_v2", 15)
	v.SetDefault("analytics.default_smoothing", 6)
	v.SetDefault("analytics.blend_weight", 0.7)
	v.SetDefault("analytics.clip_bound", 3.0)
	v.SetDefault("analytics.min_pairs", 5)
	v.SetDefault("analytics.rolling_period", 3)

	// Telemetry
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "liquidity-lens")
	v.SetDefault("telemetry.service_version", "1.0.0")
	v.SetDefault("telemetry.otlp_logs", false)

	// Security
	v.SetDefault("security.admin_api_key", "")
	v.SetDefault("security.admin_key_hash", "")
	v.SetDefault("security.bcrypt_cost", 12)
}
