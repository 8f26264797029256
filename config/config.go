package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every variable, e.g. WAGERBANK_DATA_DIR. Unprefixed names are accepted as a fallback.
const EnvPrefix = "WAGERBANK"

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"

	LockFlock = "flock"
	LockRedis = "redis"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string `envconfig:"ENVIRONMENT" default:"development" validate:"oneof=development production test"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn warning error"`

	// Storage configuration
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file" validate:"oneof=file postgres"`
	DataDir        string `envconfig:"DATA_DIR" default:"data" validate:"required_if=StorageBackend file"`
	DatabaseURL    string `envconfig:"DATABASE_URL" validate:"required_if=StorageBackend postgres"`
	DatabaseName   string `envconfig:"DATABASE_NAME"` // Appended to DatabaseURL when set

	// Locking for the file backend
	LockBackend string        `envconfig:"LOCK_BACKEND" default:"flock" validate:"oneof=flock redis"`
	RedisURL    string        `envconfig:"REDIS_URL" validate:"required_if=LockBackend redis"`
	LockTimeout time.Duration `envconfig:"LOCK_TIMEOUT" default:"10s" validate:"gt=0"`
	LockTTL     time.Duration `envconfig:"LOCK_TTL" default:"30s" validate:"gtfield=LockTimeout"` // Redis lock expiry

	// Paycheck configuration
	PaycheckAmount    int64  `envconfig:"PAYCHECK_AMOUNT" default:"1000" validate:"gt=0"`
	PaycheckTimezone  string `envconfig:"PAYCHECK_TIMEZONE" default:"America/New_York" validate:"timezone"`
	PaycheckResetHour int    `envconfig:"PAYCHECK_RESET_HOUR" default:"0" validate:"min=0,max=23"` // Hour in PaycheckTimezone

	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"10" validate:"min=1,max=100"`
}

// Load reads configuration from the environment after loading envFiles (default .env).
// Missing env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// IsProduction checks if the process runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PaycheckLocation returns the reference zone for the daily paycheck cutover
func (c *Config) PaycheckLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.PaycheckTimezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load paycheck timezone %q: %w", c.PaycheckTimezone, err)
	}
	return loc, nil
}
