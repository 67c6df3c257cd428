package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel int      `env:"LOG_LEVEL" envDefault:"0"`
	HTTP     HTTP     `envPrefix:"HTTP_"`
	Database Database `envPrefix:"DATABASE_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Relying  Relying  `envPrefix:"RP_"`
	Session  Session  `envPrefix:"SESSION_"`

	// ChallengeTTL bounds how long issued ceremony challenges stay valid.
	ChallengeTTL time.Duration `env:"CHALLENGE_TTL" envDefault:"5m"`
}

// HTTP contains HTTP server parameters.
type HTTP struct {
	Addr string `env:"ADDR" envDefault:":3001"`
}

// Database contains database connection parameters. An empty DSN selects
// the in-memory stores.
type Database struct {
	DSN string `env:"DSN"`
}

// Redis contains Redis connection parameters. An empty URL disables the
// Redis-backed challenge and session stores and the stream publisher.
type Redis struct {
	URL string `env:"URL"`
}

// Relying contains the relying-party identity presented during ceremonies.
type Relying struct {
	ID      string   `env:"ID" envDefault:"localhost"`
	Name    string   `env:"NAME" envDefault:"Passwordless Auth"`
	Origins []string `env:"ORIGINS" envSeparator:"," envDefault:"http://localhost:3001"`
}

// Session contains session issuing parameters.
type Session struct {
	TTL       time.Duration `env:"TTL" envDefault:"168h"`
	Backend   string        `env:"BACKEND" envDefault:"opaque"`
	JWTSecret string        `env:"JWT_SECRET" envDefault:"devsecret"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
