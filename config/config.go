package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Assets   AssetsConfig
	Cache    CacheConfig
	Log      LogConfig
	App      AppConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"4000"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
	Path   string `env:"DB_PATH" envDefault:"projects.db"`

	// DSN overrides the individual PostgreSQL fields when set.
	DSN      string `env:"DB_DSN"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"portfolio"`
}

type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET"`
	AdminUsername string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
}

type AssetsConfig struct {
	Dir           string `env:"UPLOADS_DIR" envDefault:"uploads"`
	URLPrefix     string `env:"UPLOADS_URL_PREFIX" envDefault:"/uploads"`
	PruneSchedule string `env:"ASSET_PRUNE_SCHEDULE"`

	// Unreferenced files younger than this are left alone by a prune.
	PruneMinAge time.Duration `env:"ASSET_PRUNE_MIN_AGE" envDefault:"10m"`
}

type CacheConfig struct {
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL           time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"json"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`
}

type AppConfig struct {
	Name          string `env:"APP_NAME" envDefault:"portfolio-backend"`
	Environment   string `env:"APP_ENV" envDefault:"development"`
	Version       string `env:"APP_VERSION" envDefault:"1.0.0"`
	SeedOnStartup bool   `env:"SEED_ON_STARTUP" envDefault:"true"`
}

// CacheEnabled reports whether a Redis address was configured.
func (c CacheConfig) CacheEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Parse()
}

// Parse reads the process environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" && c.Database.Host == "" {
			return fmt.Errorf("DB_DSN or DB_HOST is required for the postgres driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.AdminUsername == "" || c.Auth.AdminPassword == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	if c.Assets.Dir == "" {
		return fmt.Errorf("UPLOADS_DIR is required")
	}
	if !strings.HasPrefix(c.Assets.URLPrefix, "/") || c.Assets.URLPrefix == "/" {
		return fmt.Errorf("UPLOADS_URL_PREFIX must be an absolute path below /, got %q", c.Assets.URLPrefix)
	}
	if c.Assets.PruneMinAge < 0 {
		return fmt.Errorf("ASSET_PRUNE_MIN_AGE must not be negative")
	}

	return nil
}
