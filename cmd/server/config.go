package main

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, populated from the environment.
type Config struct {
	Address     string        `env:"ADDRESS" envDefault:":8080"`
	DatabaseDSN string        `env:"DATABASE_DSN" envDefault:"file:storyhub.db?cache=shared&mode=rwc"`
	BaseURL     string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	SigningKey  string        `env:"JWT_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	Issuer      string        `env:"ISSUER" envDefault:"storyhub"`
	Audience    []string      `env:"AUDIENCE" envSeparator:","`
	ContextKey  string        `env:"AUTH_CONTEXT_KEY" envDefault:"claims"`
	TokenLookup string        `env:"AUTH_TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme  string        `env:"AUTH_SCHEME" envDefault:"Bearer"`
	Debug       bool          `env:"DEBUG" envDefault:"false"`
}

// LoadConfig reads the environment into a Config.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) GetSigningKey() string    { return c.SigningKey }
func (c *Config) GetTokenTTL() time.Duration { return c.TokenTTL }
func (c *Config) GetIssuer() string        { return c.Issuer }
func (c *Config) GetAudience() []string    { return c.Audience }
func (c *Config) GetContextKey() string    { return c.ContextKey }
func (c *Config) GetTokenLookup() string   { return c.TokenLookup }
func (c *Config) GetAuthScheme() string    { return c.AuthScheme }
