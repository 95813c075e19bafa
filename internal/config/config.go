package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Postgres holds the DSN parts used when DATABASE_URL is unset.
type Postgres struct {
	User     string `env:"POSTGRES_USER" envDefault:"settlement"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"settlement_pass"`
	DB       string `env:"POSTGRES_DB" envDefault:"settlement"`
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     string `env:"POSTGRES_PORT" envDefault:"5432"`
	SSLMode  string `env:"DATABASE_SSLMODE" envDefault:"disable"`
}

// Config holds service configuration.
type Config struct {
	DatabaseURL   string `env:"DATABASE_URL"`
	Postgres      Postgres
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"internal/migrations"`
	Store         string `env:"STORE" envDefault:"postgres"`

	ServerAddr string `env:"SERVER_ADDR" envDefault:"0.0.0.0:8080"`
	JWTSecret  string `env:"JWT_SECRET"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	StripeSecretKey string  `env:"STRIPE_SECRET_KEY"`
	Currency        string  `env:"CURRENCY" envDefault:"usd"`
	PlatformFeeRate float64 `env:"PLATFORM_FEE_RATE" envDefault:"0.10"`
	CompletionRule  string  `env:"COMPLETION_RULE" envDefault:"completed >= required"`

	RedisURL      string        `env:"REDIS_URL"`
	PayoutLockTTL time.Duration `env:"PAYOUT_LOCK_TTL" envDefault:"60s"`

	KafkaBrokers        []string      `env:"KAFKA_BROKERS" envSeparator:","`
	ChatTopic           string        `env:"CHAT_TOPIC" envDefault:"campaign-chat-system"`
	OutboxFlushInterval time.Duration `env:"OUTBOX_FLUSH_INTERVAL" envDefault:"0s"`

	AuditSigningKey string `env:"AUDIT_SIGNING_KEY"`
	OTelEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DatabaseURL == "" {
		p := cfg.Postgres
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.PlatformFeeRate < 0 || c.PlatformFeeRate >= 1 {
		return fmt.Errorf("PLATFORM_FEE_RATE must be in [0,1), got %v", c.PlatformFeeRate)
	}
	if c.Currency == "" {
		return fmt.Errorf("CURRENCY must not be empty")
	}
	if _, err := c.AuditKey(); err != nil {
		return err
	}
	return nil
}

// AuditKey decodes AUDIT_SIGNING_KEY; an empty key disables audit signatures.
func (c *Config) AuditKey() ([]byte, error) {
	if c.AuditSigningKey == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(c.AuditSigningKey)
	if err != nil {
		return nil, fmt.Errorf("AUDIT_SIGNING_KEY must be hex: %w", err)
	}
	return b, nil
}
