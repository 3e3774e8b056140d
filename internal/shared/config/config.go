package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Environment variables are read with the GRIEVANCE_ prefix followed by the
// section name, e.g. GRIEVANCE_SERVER_PORT, GRIEVANCE_AUTH_JWT_SECRET,
// GRIEVANCE_REPORT_TREND_PERIODS.
const envPrefix = "GRIEVANCE"

type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Auth    AuthConfig
	Session SessionConfig
	Data    DataConfig
	Report  ReportConfig
}

type ServerConfig struct {
	Port int    `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"ENVIRONMENT" default:"development"`
	// RequestTimeout bounds every API request
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

type LogConfig struct {
	Level   string `envconfig:"LEVEL" default:"info"`
	Service string `envconfig:"SERVICE" default:"grievance-platform"`
}

type AuthConfig struct {
	JWTSecret string        `envconfig:"JWT_SECRET" default:"dev-secret-change-in-prod"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"12h"`
	Issuer    string        `envconfig:"TOKEN_ISSUER" default:"aavaaz"`
	// DemoPassword is the single password accepted for every account.
	// Mock environment only; not a security boundary.
	DemoPassword string `envconfig:"DEMO_PASSWORD" default:"password"`
	// Login/register rate limiting per client IP
	LoginRatePerSec int `envconfig:"LOGIN_RATE_PER_SEC" default:"5"`
	LoginBurst      int `envconfig:"LOGIN_BURST" default:"10"`
}

type SessionConfig struct {
	// Path of the file holding the active identity record
	Path string `envconfig:"FILE" default:".aavaaz/session.json"`
	Key  string `envconfig:"RECORD_KEY" default:"aavaaz-user"`
}

type DataConfig struct {
	SeedDemoData bool `envconfig:"SEED" default:"true"`
}

type ReportConfig struct {
	TrendPeriods int `envconfig:"TREND_PERIODS" default:"6"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid TOKEN_TTL: %s", c.Auth.TokenTTL)
	}
	if c.Auth.DemoPassword == "" {
		return fmt.Errorf("DEMO_PASSWORD must not be empty")
	}
	if c.Auth.LoginRatePerSec <= 0 || c.Auth.LoginBurst <= 0 {
		return fmt.Errorf("login rate limit must be positive")
	}
	if c.Session.Key == "" {
		return fmt.Errorf("SESSION_RECORD_KEY must not be empty")
	}
	if c.Report.TrendPeriods <= 0 {
		return fmt.Errorf("invalid TREND_PERIODS: %d", c.Report.TrendPeriods)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// NewForTesting returns a valid configuration without reading the environment.
func NewForTesting() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Env: "testing", RequestTimeout: 5 * time.Second},
		Log:    LogConfig{Level: "debug", Service: "grievance-test"},
		Auth: AuthConfig{
			JWTSecret:       "test-secret",
			TokenTTL:        time.Hour,
			Issuer:          "aavaaz-test",
			DemoPassword:    "password",
			LoginRatePerSec: 100,
			LoginBurst:      100,
		},
		Session: SessionConfig{Path: "session.json", Key: "aavaaz-user"},
		Data:    DataConfig{SeedDemoData: true},
		Report:  ReportConfig{TrendPeriods: 6},
	}
}
