package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	InvoiceLinkTTL time.Duration `env:"INVOICE_LINK_TTL" envDefault:"0s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	Plaid   PlaidConfig   `envPrefix:"PLAID_"`
	Stripe  StripeConfig  `envPrefix:"STRIPE_"`
	Session SessionConfig `envPrefix:"SESSION_"`
}

type PlaidConfig struct {
	ClientID     string   `env:"CLIENT_ID,required,notEmpty"`
	Secret       string   `env:"SECRET,required,notEmpty"`
	Env          string   `env:"ENV" envDefault:"sandbox"`
	ClientName   string   `env:"CLIENT_NAME" envDefault:"Invoice Pay"`
	Products     []string `env:"PRODUCTS" envDefault:"auth,transactions" envSeparator:","`
	CountryCodes []string `env:"COUNTRY_CODES" envDefault:"US" envSeparator:","`
	RedirectURI  string   `env:"REDIRECT_URI"`
}

type StripeConfig struct {
	SecretKey     string `env:"SECRET_KEY,required,notEmpty"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	WebhookURL    string `env:"WEBHOOK_URL"`
}

type SessionConfig struct {
	Secret        string        `env:"SECRET,required,notEmpty"`
	TTL           time.Duration `env:"TTL" envDefault:"24h"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`
	CacheBytes    int64         `env:"CACHE_BYTES" envDefault:"67108864"`
}

func Load() (Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Plaid.Env {
	case "sandbox", "production":
	default:
		return fmt.Errorf("PLAID_ENV must be sandbox or production, got %q", c.Plaid.Env)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.InvoiceLinkTTL < 0 {
		return fmt.Errorf("INVOICE_LINK_TTL must not be negative, got %s", c.InvoiceLinkTTL)
	}
	return nil
}
