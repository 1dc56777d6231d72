// Package config loads service configuration from defaults, an optional TOML
// file and EMPLOYEESVC_ environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jonwraymond/employeesvc/observe"
	"github.com/jonwraymond/employeesvc/secret"
)

// EnvPrefix marks environment variables that override configuration keys.
// "_" separates key levels and "__" stands for a literal underscore, so
// EMPLOYEESVC_SERVER_SHUTDOWN__TIMEOUT sets server.shutdown_timeout.
const EnvPrefix = "EMPLOYEESVC_"

// Secret names known to the service.
const (
	SecretDatabasePassword = "database_password"
	SecretAPIKey           = "api_key"
	SecretJWTSigningKey    = "jwt_signing_key"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Datasource DatasourceConfig `koanf:"datasource"`
	Secrets    SecretsConfig    `koanf:"secrets"`
	Auth       AuthConfig       `koanf:"auth"`
	Health     HealthConfig     `koanf:"health"`
	Observe    observe.Config   `koanf:"observe"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Mode            string        `koanf:"mode"` // gin mode: debug|release|test
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatasourceConfig configures the PostgreSQL pool. URL may reference
// environment variables as ${VAR}; the password never appears here.
type DatasourceConfig struct {
	URL             string        `koanf:"url"`
	Username        string        `koanf:"username"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectAttempts int           `koanf:"connect_attempts"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// SecretsConfig names the environment variable behind each secret. The
// variable's _FILE twin, when set, points at a file holding the value.
type SecretsConfig struct {
	DatabasePasswordEnv string `koanf:"database_password_env"`
	APIKeyEnv           string `koanf:"api_key_env"`
	JWTSigningKeyEnv    string `koanf:"jwt_signing_key_env"`

	// Defaults holds literal fallback values by secret name. Intended for
	// local development only.
	Defaults map[string]string `koanf:"defaults"`

	// CacheTTL memoizes resolved secrets when positive.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// AuthConfig configures API authentication.
type AuthConfig struct {
	APIKeyPrincipal string        `koanf:"api_key_principal"`
	JWTIssuer       string        `koanf:"jwt_issuer"`
	JWTAudience     string        `koanf:"jwt_audience"`
	JWTLeeway       time.Duration `koanf:"jwt_leeway"`
}

// HealthConfig configures the health aggregator.
type HealthConfig struct {
	Timeout     time.Duration `koanf:"timeout"`
	HeapLimitMB uint64        `koanf:"heap_limit_mb"` // 0 disables the memory check
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Datasource: DatasourceConfig{
			URL:             "postgres://localhost:5432/employees?sslmode=disable",
			Username:        "postgres",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectAttempts: 5,
			AutoMigrate:     true,
		},
		Secrets: SecretsConfig{
			DatabasePasswordEnv: "SPRING_DATASOURCE_PASSWORD",
			APIKeyEnv:           "API_KEY",
			JWTSigningKeyEnv:    "JWT_SIGNING_KEY",
		},
		Auth: AuthConfig{
			APIKeyPrincipal: "api-client",
			JWTLeeway:       30 * time.Second,
		},
		Health: HealthConfig{
			Timeout: 5 * time.Second,
		},
		Observe: observe.Config{
			ServiceName: "employeesvc",
			Version:     "dev",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
	}
}

// Load reads configPath (skipped when empty) and EMPLOYEESVC_ environment
// variables over the defaults, then validates the result.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			WeaklyTypedInput: true,
			Result:           cfg,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	s = strings.ReplaceAll(s, "__", "%UNDERSCORE%")
	s = strings.ReplaceAll(s, "_", ".")
	return strings.ReplaceAll(s, "%UNDERSCORE%", "_")
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	case c.Server.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: server.shutdown_timeout must be positive", ErrInvalidConfig)
	case c.Datasource.URL == "":
		return fmt.Errorf("%w: datasource.url is required", ErrInvalidConfig)
	case c.Datasource.Username == "":
		return fmt.Errorf("%w: datasource.username is required", ErrInvalidConfig)
	case c.Datasource.ConnectAttempts < 1:
		return fmt.Errorf("%w: datasource.connect_attempts must be at least 1", ErrInvalidConfig)
	case c.Secrets.DatabasePasswordEnv == "" || c.Secrets.APIKeyEnv == "" || c.Secrets.JWTSigningKeyEnv == "":
		return fmt.Errorf("%w: secrets.*_env must name an environment variable", ErrInvalidConfig)
	case c.Secrets.CacheTTL < 0:
		return fmt.Errorf("%w: secrets.cache_ttl must not be negative", ErrInvalidConfig)
	case c.Health.Timeout <= 0:
		return fmt.Errorf("%w: health.timeout must be positive", ErrInvalidConfig)
	}
	for name := range c.Secrets.Defaults {
		if !isKnownSecret(name) {
			return fmt.Errorf("%w: secrets.defaults has unknown secret %q", ErrInvalidConfig, name)
		}
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func isKnownSecret(name string) bool {
	switch name {
	case SecretDatabasePassword, SecretAPIKey, SecretJWTSigningKey:
		return true
	}
	return false
}

// MandatorySecrets lists the secrets the service cannot start without.
func MandatorySecrets() []string {
	return []string{SecretDatabasePassword, SecretAPIKey}
}

// SecretConfig builds the resolver configuration. env is consulted once for
// each X_FILE variable.
func (c *Config) SecretConfig(env secret.LookupEnvFunc) secret.Config {
	defs := []secret.Definition{
		secret.Conventional(SecretDatabasePassword, c.Secrets.DatabasePasswordEnv, env),
		secret.Conventional(SecretAPIKey, c.Secrets.APIKeyEnv, env),
		secret.Conventional(SecretJWTSigningKey, c.Secrets.JWTSigningKeyEnv, env),
	}
	for i := range defs {
		defs[i].Default = c.Secrets.Defaults[defs[i].Name]
	}
	return secret.Config{Definitions: defs}
}

// DatasourceURL expands ${VAR} references in the datasource URL.
func (c *Config) DatasourceURL(env secret.LookupEnvFunc) (string, error) {
	u, err := secret.ExpandStrict(c.Datasource.URL, env)
	if err != nil {
		return "", fmt.Errorf("datasource.url: %w", err)
	}
	return u, nil
}
