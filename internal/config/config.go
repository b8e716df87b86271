package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	PolicyThreshold = "threshold"
	PolicyExactDay  = "exact"
)

type Config struct {
	// ----------------------------
	// Database
	// ----------------------------
	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"postgres"`
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`

	// ----------------------------
	// SMTP
	// ----------------------------
	SMTPHost     string        `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int           `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser     string        `envconfig:"SMTP_USER" default:""`
	SMTPPassword string        `envconfig:"SMTP_PASSWORD" default:""`
	SMTPFrom     string        `envconfig:"SMTP_FROM" default:"noreply@reviewsend.local"`
	SMTPTimeout  time.Duration `envconfig:"SMTP_TIMEOUT" default:"30s"`

	// ----------------------------
	// Sending
	// ----------------------------
	SendRateLimit int           `envconfig:"SEND_RATE_LIMIT" default:"1"`
	RetryAttempts int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	ClaimTTL      time.Duration `envconfig:"CLAIM_TTL" default:"10m"`
	DaysPolicy    string        `envconfig:"DAYS_POLICY" default:"threshold"`
	Timezone      string        `envconfig:"TIMEZONE" default:"UTC"`

	// ----------------------------
	// Sweeps
	// ----------------------------
	SweepWorkers  int           `envconfig:"SWEEP_WORKERS" default:"4"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`
	LookbackDays  int           `envconfig:"LOOKBACK_DAYS" default:"30"`

	// ----------------------------
	// Selling Partner API
	// ----------------------------
	SPAPIEndpoint      string        `envconfig:"SPAPI_ENDPOINT" default:"https://sellingpartnerapi-na.amazon.com"`
	SPAPITokenURL      string        `envconfig:"SPAPI_TOKEN_URL" default:"https://api.amazon.com/auth/o2/token"`
	SPAPIClientID      string        `envconfig:"SPAPI_CLIENT_ID" default:""`
	SPAPIClientSecret  string        `envconfig:"SPAPI_CLIENT_SECRET" default:""`
	SPAPIMarketplaceID string        `envconfig:"SPAPI_MARKETPLACE_ID" default:"ATVPDKIKX0DER"`
	SPAPIRateLimit     float64       `envconfig:"SPAPI_RATE_LIMIT" default:"1"`
	SPAPITimeout       time.Duration `envconfig:"SPAPI_TIMEOUT" default:"30s"`

	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort        string `envconfig:"API_PORT" default:"8080"`
	AdminJWTSecret string `envconfig:"ADMIN_JWT_SECRET" default:""`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.DaysPolicy {
	case PolicyThreshold, PolicyExactDay:
	default:
		return fmt.Errorf("unsupported DAYS_POLICY %q", c.DaysPolicy)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if c.SweepWorkers < 1 {
		return fmt.Errorf("SWEEP_WORKERS must be at least 1")
	}
	if c.SendRateLimit < 1 {
		return fmt.Errorf("SEND_RATE_LIMIT must be at least 1")
	}
	if c.LookbackDays < 1 {
		return fmt.Errorf("LOOKBACK_DAYS must be at least 1")
	}
	return nil
}

// Location returns the zone used to evaluate sending windows.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
