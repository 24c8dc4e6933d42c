package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config captures process-level configuration for the marketplace server.
// All values come from the environment; a local .env file is loaded first
// when present so development setups need no exported variables.
type Config struct {
	Addr     string        `env:"S2I_ADDR" envDefault:":8080"`
	LogLevel slog.Level    `env:"S2I_LOG_LEVEL" envDefault:"INFO"`
	Timeout  time.Duration `env:"S2I_REQUEST_TIMEOUT" envDefault:"30s"`

	// BaseDomain is stripped from the Host header to obtain the tenant
	// subdomain, e.g. "street2ivy.com" for harvard.street2ivy.com.
	BaseDomain string `env:"S2I_BASE_DOMAIN" envDefault:"street2ivy.com"`

	// RelaxedMode enables the X-Tenant / ?tenant= override for local
	// testing without wildcard DNS. Never enable in production.
	RelaxedMode bool `env:"S2I_RELAXED_MODE" envDefault:"false"`

	AdminToken  string `env:"S2I_ADMIN_TOKEN"`
	DatabaseURL string `env:"S2I_DATABASE_URL"`

	// Backend describes the upstream marketplace API and the process-wide
	// default account that credential-less tenants fall back to.
	Backend BackendConfig `envPrefix:"S2I_BACKEND_"`

	// DefaultTenant seeds the bootstrap tenant on an empty store.
	DefaultTenant DefaultTenantConfig `envPrefix:"S2I_DEFAULT_TENANT_"`
}

// BackendConfig holds the upstream API endpoint and default credentials.
// ClientID/ClientSecret are the shared fallback account; tenants with their
// own credentials never touch it.
type BackendConfig struct {
	BaseURL      string        `env:"URL" envDefault:"https://api.street2ivy.com"`
	ClientID     string        `env:"CLIENT_ID"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Configured reports whether both halves of the credential pair are present.
func (b BackendConfig) Configured() bool {
	return b.ClientID != "" && b.ClientSecret != ""
}

// DefaultTenantConfig describes the bootstrap tenant seeded at startup.
type DefaultTenantConfig struct {
	Name        string `env:"NAME" envDefault:"Street2Ivy"`
	DisplayName string `env:"DISPLAY_NAME"`
}

// Load builds a Config from the environment so main stays lean.
// A .env file in the working directory is merged in when present.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
