package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the env-driven service configuration. It satisfies the
// accounts.Config interface consumed by the authenticator and middleware.
type Config struct {
	ListenAddr string `env:"ACCOUNTS_LISTEN_ADDR" envDefault:":8572"`
	DSN        string `env:"ACCOUNTS_DSN" envDefault:"file:accounts.db?cache=shared"`
	Debug      bool   `env:"ACCOUNTS_DEBUG" envDefault:"false"`

	SigningKey    string   `env:"ACCOUNTS_SIGNING_KEY,required"`
	SigningMethod string   `env:"ACCOUNTS_SIGNING_METHOD" envDefault:"HS256"`
	Issuer        string   `env:"ACCOUNTS_ISSUER" envDefault:"accounts"`
	Audience      []string `env:"ACCOUNTS_AUDIENCE" envSeparator:","`

	// TTLs are expressed in hours; access tokens default to seven days.
	TokenExpiration        int `env:"ACCOUNTS_TOKEN_TTL_HOURS" envDefault:"168"`
	VerificationExpiration int `env:"ACCOUNTS_VERIFICATION_TTL_HOURS" envDefault:"1"`

	ContextKey  string `env:"ACCOUNTS_CONTEXT_KEY" envDefault:"user"`
	TokenLookup string `env:"ACCOUNTS_TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme  string `env:"ACCOUNTS_AUTH_SCHEME" envDefault:"Bearer"`

	// BaseURL is the public origin used to build verification links.
	BaseURL string `env:"ACCOUNTS_BASE_URL"`

	SMTPHost     string `env:"ACCOUNTS_SMTP_HOST"`
	SMTPPort     int    `env:"ACCOUNTS_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"ACCOUNTS_SMTP_USERNAME"`
	SMTPPassword string `env:"ACCOUNTS_SMTP_PASSWORD"`
	SMTPFrom     string `env:"ACCOUNTS_SMTP_FROM" envDefault:"no-reply@localhost"`

	// Seed admin, created verified at boot when absent.
	AdminEmail    string `env:"ACCOUNTS_ADMIN_EMAIL"`
	AdminPassword string `env:"ACCOUNTS_ADMIN_PASSWORD"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) GetSigningKey() string          { return c.SigningKey }
func (c *Config) GetSigningMethod() string       { return c.SigningMethod }
func (c *Config) GetContextKey() string          { return c.ContextKey }
func (c *Config) GetTokenExpiration() int        { return c.TokenExpiration }
func (c *Config) GetVerificationExpiration() int { return c.VerificationExpiration }
func (c *Config) GetTokenLookup() string         { return c.TokenLookup }
func (c *Config) GetAuthScheme() string          { return c.AuthScheme }
func (c *Config) GetIssuer() string              { return c.Issuer }
func (c *Config) GetAudience() []string          { return c.Audience }
