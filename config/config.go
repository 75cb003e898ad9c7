package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/pidigits/cache"
	"github.com/jonwraymond/pidigits/observe"
	"github.com/jonwraymond/pidigits/resilience"
	"github.com/jonwraymond/pidigits/secret"
	"github.com/jonwraymond/pidigits/spigot"
)

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Digits    DigitsConfig    `yaml:"digits"`
	Cache     CacheConfig     `yaml:"cache"`
	Admission AdmissionConfig `yaml:"admission"`
	Observe   observe.Config  `yaml:"observe"`
	Auth      AuthConfig      `yaml:"auth"`

	// Secrets holds per-provider options for secretref resolution,
	// e.g. secrets.file.root.
	Secrets map[string]map[string]any `yaml:"secrets"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DigitsConfig bounds digit requests.
type DigitsConfig struct {
	MaxDigits    int `yaml:"max_digits"`
	MaxBatch     int `yaml:"max_batch"`
	DefaultCount int `yaml:"default_count"`
	Guard        int `yaml:"guard"`
}

// CacheConfig configures the digit cache.
type CacheConfig struct {
	DerivePrefixes bool `yaml:"derive_prefixes"`

	// WarmDigits is computed in the background at startup. Zero disables.
	WarmDigits int `yaml:"warm_digits"`
}

// AdmissionConfig configures rate limiting, the compute bulkhead and the
// caller wait timeout.
type AdmissionConfig struct {
	MaxInflightDigits int64         `yaml:"max_inflight_digits"`
	MaxWait           time.Duration `yaml:"max_wait"`
	Rate              float64       `yaml:"rate"`
	Burst             int           `yaml:"burst"`
	WaitTimeout       time.Duration `yaml:"wait_timeout"`
}

// AuthConfig configures JWT protection of admin endpoints.
type AuthConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
	SigningKey string `yaml:"signing_key"`
	AdminRole  string `yaml:"admin_role"`
}

// Default returns the configuration used for absent keys.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Digits: DigitsConfig{
			MaxDigits:    spigot.DefaultMaxDigits,
			MaxBatch:     5000,
			DefaultCount: 1000,
			Guard:        spigot.DefaultGuard,
		},
		Cache: CacheConfig{
			DerivePrefixes: true,
		},
		Admission: AdmissionConfig{
			MaxInflightDigits: resilience.DefaultMaxInflightDigits,
			MaxWait:           2 * time.Second,
			Rate:              50,
			Burst:             100,
			WaitTimeout:       30 * time.Second,
		},
		Observe: observe.Config{
			ServiceName: "pidigits",
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Auth: AuthConfig{
			AdminRole: "admin",
		},
	}
}

// Load reads, expands, decodes, resolves and validates the file at path.
func Load(ctx context.Context, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return Parse(ctx, data)
}

// Parse is Load for in-memory YAML.
func Parse(ctx context.Context, data []byte) (Config, error) {
	expanded, err := secret.ExpandEnvStrict(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrRead, err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrRead, err)
	}

	if err := cfg.ResolveSecrets(ctx); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolveSecrets replaces secretref: values using the default provider
// registry configured by the secrets section.
func (c *Config) ResolveSecrets(ctx context.Context) error {
	if c.Auth.SigningKey == "" {
		return nil
	}

	resolver, err := secret.DefaultRegistry.NewResolver(true, c.Secrets)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	defer func() { _ = resolver.Close() }()

	key, err := resolver.ResolveValue(ctx, c.Auth.SigningKey)
	if err != nil {
		return fmt.Errorf("%w: auth.signing_key: %w", ErrInvalidConfig, err)
	}
	c.Auth.SigningKey = key
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return invalid("server.addr is required")
	}

	d := c.Digits
	switch {
	case d.MaxDigits <= 0:
		return invalid("digits.max_digits must be positive, got %d", d.MaxDigits)
	case d.MaxBatch <= 0:
		return invalid("digits.max_batch must be positive, got %d", d.MaxBatch)
	case d.DefaultCount < 1 || d.DefaultCount > d.MaxBatch:
		return invalid("digits.default_count must be in [1, %d], got %d", d.MaxBatch, d.DefaultCount)
	case d.Guard < 1:
		return invalid("digits.guard must be at least 1, got %d", d.Guard)
	}

	if c.Cache.WarmDigits < 0 || c.Cache.WarmDigits > d.MaxDigits {
		return invalid("cache.warm_digits must be in [0, %d], got %d", d.MaxDigits, c.Cache.WarmDigits)
	}

	a := c.Admission
	switch {
	case a.MaxInflightDigits < 0:
		return invalid("admission.max_inflight_digits must not be negative")
	case a.Rate < 0 || a.Burst < 0:
		return invalid("admission.rate and admission.burst must not be negative")
	case a.MaxWait < 0 || a.WaitTimeout < 0:
		return invalid("admission durations must not be negative")
	}

	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalidConfig, err)
	}

	if c.Auth.Enabled {
		if c.Auth.SigningKey == "" {
			return invalid("auth.signing_key is required when auth is enabled")
		}
		if c.Auth.AdminRole == "" {
			return invalid("auth.admin_role is required when auth is enabled")
		}
	}

	return nil
}

// Engine returns the digit engine settings.
func (c *Config) Engine() spigot.Config {
	return spigot.Config{MaxDigits: c.Digits.MaxDigits, Guard: c.Digits.Guard}
}

// Policy returns the cache policy.
func (c *Config) Policy() cache.Policy {
	return cache.Policy{MaxDigits: c.Digits.MaxDigits, DerivePrefixes: c.Cache.DerivePrefixes}
}
