// Package config loads erpdesk settings from the environment.
//
// Variables use the ERPDESK_ prefix, e.g. ERPDESK_STORE_BACKEND=redis. A .env
// file in the working directory is read first when present; variables that
// are already set win over the file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/netip"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const EnvPrefix = "ERPDESK_"

// Store backends.
const (
	BackendBbolt    = "bbolt"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

var Backends = []string{BackendBbolt, BackendMemory, BackendPostgres, BackendRedis}

type Config struct {
	Store   StoreConfig   `envPrefix:"STORE_"`
	Session SessionConfig `envPrefix:"SESSION_"`
	Server  ServerConfig  `envPrefix:"SERVER_"`
	Log     LogConfig     `envPrefix:"LOG_"`

	// APIURL is the base of the dashboard REST API used by the CLI.
	APIURL string `env:"API_URL" envDefault:"http://localhost:8080/api/v1"`
}

type StoreConfig struct {
	Backend     string `env:"BACKEND" envDefault:"bbolt"`
	DataDir     string `env:"DATA_DIR" envDefault:"./data"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	RedisURL    string `env:"REDIS_URL"`
	// SealSeed is a hex-encoded 32-byte seed. When set, stored values are
	// encrypted at rest.
	SealSeed string `env:"SEAL_SEED"`
}

type SessionConfig struct {
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30m"`
}

type ServerConfig struct {
	Port            int           `env:"PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// TrustedProxies are CIDRs whose X-Forwarded-For headers are believed.
	TrustedProxies   []string `env:"TRUSTED_PROXIES" envSeparator:","`
	AlertWebhookURL  string   `env:"ALERT_WEBHOOK_URL"`
	AlertWebhookAuth string   `env:"ALERT_WEBHOOK_AUTH"`
	// RateLimit is requests per second per user on list routes; 0 disables.
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"20"`
	RateBurst int     `env:"RATE_BURST" envDefault:"40"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load reads envFiles (default ".env"), then parses the environment. Missing
// env files are skipped.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Validate checks values that cannot be expressed as struct tags.
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(Backends, c.Store.Backend) {
		errs = append(errs, fmt.Errorf("store backend %q: must be one of %s", c.Store.Backend, strings.Join(Backends, ", ")))
	}
	if c.Store.Backend == BackendPostgres && c.Store.PostgresDSN == "" {
		errs = append(errs, errors.New("store backend postgres requires a DSN"))
	}
	if c.Store.Backend == BackendRedis && c.Store.RedisURL == "" {
		errs = append(errs, errors.New("store backend redis requires a URL"))
	}
	if _, err := c.Store.Seed(); err != nil {
		errs = append(errs, err)
	}
	if c.Session.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("session timeout %s: must be positive", c.Session.Timeout))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d: out of range", c.Server.Port))
	}
	if _, err := c.Server.Proxies(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Seed decodes SealSeed. It returns nil when no seed is configured.
func (s StoreConfig) Seed() ([]byte, error) {
	if s.SealSeed == "" {
		return nil, nil
	}
	seed, err := hex.DecodeString(s.SealSeed)
	if err != nil {
		return nil, fmt.Errorf("seal seed: %w", err)
	}
	if len(seed) != 32 {
		return nil, fmt.Errorf("seal seed: got %d bytes, want 32", len(seed))
	}
	return seed, nil
}

// Proxies parses TrustedProxies.
func (s ServerConfig) Proxies() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", l.Level, err)
	}
	return lvl, nil
}
