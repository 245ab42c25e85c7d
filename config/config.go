package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/kosarica/sourcing-service/internal/costmodel"
	"github.com/kosarica/sourcing-service/internal/optimizer"
	"github.com/kosarica/sourcing-service/internal/telemetry"
)

// Catalog sources
const (
	SourceBuiltin  = "builtin"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Catalog   CatalogConfig    `mapstructure:"catalog"`
	CostModel CostModelConfig  `mapstructure:"cost_model"`
	Optimizer optimizer.Config `mapstructure:"optimizer"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	Telemetry telemetry.Config `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// CatalogConfig selects where centers, weights and legs come from
type CatalogConfig struct {
	Source string `mapstructure:"source"` // builtin, file or postgres
	Path   string `mapstructure:"path"`   // .yaml, .yml or .xlsx
	Schema string `mapstructure:"schema"` // postgres schema holding the catalog tables
}

// CostModelConfig holds the default model and the tiered rate schedule
type CostModelConfig struct {
	Default string                 `mapstructure:"default"`
	Tiers   costmodel.TierSchedule `mapstructure:"tiers"`
}

// RateLimitConfig holds HTTP rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	Scope             string  `mapstructure:"scope"` // global or ip
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"` // json or console
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix("SOURCING_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Validate checks cross-field settings that viper cannot express
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case SourceBuiltin:
	case SourceFile:
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required when catalog.source is %q", SourceFile)
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required when catalog.source is %q", SourcePostgres)
		}
	default:
		return fmt.Errorf("catalog.source %q: must be builtin, file or postgres", c.Catalog.Source)
	}

	known := false
	for _, name := range costmodel.Names() {
		if name == c.CostModel.Default {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("cost_model.default: %w: %q", costmodel.ErrUnknownModel, c.CostModel.Default)
	}
	if err := c.CostModel.Tiers.Validate(); err != nil {
		return fmt.Errorf("cost_model.tiers: %w", err)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	return nil
}

// loadEnvFile loads the first .env found; variables already set win
func loadEnvFile() error {
	for _, path := range []string{".env", "config/.env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return godotenv.Load(path)
	}
	return errors.New("no .env file found")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	_ = v.BindEnv("server.port", "SOURCING_SERVICE_SERVER_PORT", "PORT")
	_ = v.BindEnv("server.host", "SOURCING_SERVICE_SERVER_HOST", "HOST")

	// Logging
	_ = v.BindEnv("logging.level", "SOURCING_SERVICE_LOGGING_LEVEL", "LOG_LEVEL")

	// Database
	_ = v.BindEnv("database.url", "SOURCING_SERVICE_DATABASE_URL", "DATABASE_URL")

	// Catalog and model
	_ = v.BindEnv("catalog.path", "SOURCING_SERVICE_CATALOG_PATH", "CATALOG_PATH")
	_ = v.BindEnv("cost_model.default", "SOURCING_SERVICE_COST_MODEL_DEFAULT", "COST_MODEL")

	// Telemetry
	_ = v.BindEnv("telemetry.endpoint", "SOURCING_SERVICE_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	// Database defaults
	v.SetDefault("database.max_connections", 5)
	v.SetDefault("database.min_connections", 1)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Catalog defaults
	v.SetDefault("catalog.source", SourceBuiltin)
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.schema", "sourcing")

	// Cost model defaults
	tiers := costmodel.DefaultTierSchedule()
	v.SetDefault("cost_model.default", costmodel.ModelTiered)
	v.SetDefault("cost_model.tiers.base_rate", tiers.BaseRate)
	v.SetDefault("cost_model.tiers.step_rate", tiers.StepRate)
	v.SetDefault("cost_model.tiers.free_weight", tiers.FreeWeight)
	v.SetDefault("cost_model.tiers.step_weight", tiers.StepWeight)

	// Optimizer defaults
	opt := optimizer.Defaults()
	v.SetDefault("optimizer.unstocked_policy", string(opt.UnstockedPolicy))
	v.SetDefault("optimizer.max_assignments", opt.MaxAssignments)
	v.SetDefault("optimizer.max_route_centers", opt.MaxRouteCenters)
	v.SetDefault("optimizer.search_timeout", opt.SearchTimeout)
	v.SetDefault("optimizer.max_order_lines", opt.MaxOrderLines)
	v.SetDefault("optimizer.parallelism", opt.Parallelism)
	v.SetDefault("optimizer.parallel_threshold", opt.ParallelThreshold)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.scope", "global")
	v.SetDefault("rate_limit.requests_per_second", 50)
	v.SetDefault("rate_limit.burst", 100)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.export_interval", 30*time.Second)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
