package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Business BusinessConfig `mapstructure:"business"`
	Repair   RepairConfig   `mapstructure:"repair"`
	Health   HealthConfig   `mapstructure:"health"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type BusinessConfig struct {
	Timezone                string        `mapstructure:"timezone"`
	UpcomingWindowDays      int           `mapstructure:"upcoming_window_days"`
	DefaultProjectionMonths int           `mapstructure:"default_projection_months"`
	MaxProjectionMonths     int           `mapstructure:"max_projection_months"`
	MonthlyHorizon          int           `mapstructure:"monthly_horizon"`
	YearlyHorizon           int           `mapstructure:"yearly_horizon"`
	SettlementLockTTL       time.Duration `mapstructure:"settlement_lock_ttl"`
	RepairOnRead            bool          `mapstructure:"repair_on_read"`
}

type RepairConfig struct {
	Schedule string `mapstructure:"schedule"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SetDefaults registers every known key so that environment variables can
// override them through AutomaticEnv.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "finwise")
	v.SetDefault("database.user", "finwise")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("business.timezone", "UTC")
	v.SetDefault("business.upcoming_window_days", 30)
	v.SetDefault("business.default_projection_months", 6)
	v.SetDefault("business.max_projection_months", 60)
	v.SetDefault("business.monthly_horizon", 24)
	v.SetDefault("business.yearly_horizon", 5)
	v.SetDefault("business.settlement_lock_ttl", "30s")
	v.SetDefault("business.repair_on_read", true)

	v.SetDefault("repair.schedule", "")

	v.SetDefault("health.timeout", "5s")
}

// Load reads configuration from .env, an optional config file and environment variables
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)

	// Read from environment variables: server.port <-> SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required")
		}
	case DriverSQLite:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for sqlite")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q", DriverPostgres, DriverSQLite)
	}

	if _, err := time.LoadLocation(c.Business.Timezone); err != nil {
		return fmt.Errorf("BUSINESS_TIMEZONE must be a valid IANA zone: %w", err)
	}

	if c.Business.UpcomingWindowDays <= 0 {
		return fmt.Errorf("BUSINESS_UPCOMING_WINDOW_DAYS must be greater than 0")
	}

	if c.Business.DefaultProjectionMonths <= 0 || c.Business.DefaultProjectionMonths > c.Business.MaxProjectionMonths {
		return fmt.Errorf("BUSINESS_DEFAULT_PROJECTION_MONTHS must be between 1 and %d", c.Business.MaxProjectionMonths)
	}

	if c.Business.MonthlyHorizon <= 0 || c.Business.YearlyHorizon <= 0 {
		return fmt.Errorf("recurring horizons must be greater than 0")
	}

	if c.Business.SettlementLockTTL <= 0 {
		return fmt.Errorf("BUSINESS_SETTLEMENT_LOCK_TTL must be a positive duration")
	}

	if c.Repair.Schedule != "" {
		if _, err := cron.ParseStandard(c.Repair.Schedule); err != nil {
			return fmt.Errorf("REPAIR_SCHEDULE must be a valid cron expression: %w", err)
		}
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_TIMEOUT must be a positive duration")
	}

	return nil
}

// DSN returns the connection string for the configured driver
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// Location returns the business timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Business.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Default returns a validated configuration built only from defaults. Used by
// tests and tools that do not read the environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	var config Config
	_ = v.Unmarshal(&config)
	return &config
}
