package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LookbackDays != 30 {
		t.Fatalf("expected 30 lookback days, got %d", cfg.LookbackDays)
	}
	if cfg.DaysPolicy != PolicyThreshold {
		t.Fatalf("expected threshold policy, got %q", cfg.DaysPolicy)
	}
	if cfg.SweepInterval != time.Hour {
		t.Fatalf("expected hourly sweeps, got %v", cfg.SweepInterval)
	}
	if cfg.SMTPTimeout != 30*time.Second {
		t.Fatalf("expected 30s smtp timeout, got %v", cfg.SMTPTimeout)
	}
	if cfg.ClaimTTL != 10*time.Minute {
		t.Fatalf("expected 10m claim ttl, got %v", cfg.ClaimTTL)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			DatabaseDriver: DriverSQLite,
			DatabaseURL:    "x",
			DaysPolicy:     PolicyExactDay,
			Timezone:       "Asia/Tokyo",
			SweepWorkers:   1,
			SendRateLimit:  1,
			LookbackDays:   30,
		}
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]func(*Config){
		"driver":   func(c *Config) { c.DatabaseDriver = "mysql" },
		"policy":   func(c *Config) { c.DaysPolicy = "weekly" },
		"timezone": func(c *Config) { c.Timezone = "Mars/Olympus" },
		"workers":  func(c *Config) { c.SweepWorkers = 0 },
		"lookback": func(c *Config) { c.LookbackDays = 0 },
		"rate":     func(c *Config) { c.SendRateLimit = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
