// Package config provides configuration loading for the authentication gateway.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure. It is loaded once at startup
// and shared read-only across the process; nothing mutates it afterwards.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Provider      ProviderConfig      `yaml:"provider"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Host string    `yaml:"host"`
	Port int       `yaml:"port"`
	TLS  TLSConfig `yaml:"tls"`
}

// TLSConfig holds the optional TLS transport configuration.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertPath string `yaml:"cert_path,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// ListenAddr returns the address the gateway binds to.
func (c *ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ProviderConfig holds the identity provider (Cognito) configuration.
type ProviderConfig struct {
	Region       string `yaml:"region"`
	UserPoolID   string `yaml:"user_pool_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret,omitempty"`

	// Endpoint overrides the provider endpoint, for local stacks.
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`

	// Timeout bounds every provider call; a call that never returns is
	// cancelled by the client, not by the gateway core.
	Timeout time.Duration `yaml:"timeout"`
}

// RateLimitConfig holds per-client rate limiting configuration.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	BurstSize         int  `yaml:"burst_size"`
}

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	MetricsEnabled bool `yaml:"metrics_enabled"`
	MetricsPort    int  `yaml:"metrics_port"`
}

// envVarPattern matches ${VAR_NAME} patterns for environment variable substitution.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load loads configuration from a YAML file with environment variable substitution.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "config.yaml"
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	substituted, err := substituteEnvVars(string(data))
	if err != nil {
		return nil, fmt.Errorf("substituting env vars: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(substituted), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
// Lines that are comments (starting with #) are skipped to allow commented optional
// sections in config files without requiring their environment variables to be set.
func substituteEnvVars(content string) (string, error) {
	var missingVars []string
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		lines[i] = envVarPattern.ReplaceAllStringFunc(line, func(match string) string {
			varName := envVarPattern.FindStringSubmatch(match)[1]
			value := os.Getenv(varName)
			if value == "" {
				missingVars = append(missingVars, varName)
				return match
			}

			return value
		})
	}

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing environment variables: %v", missingVars)
	}

	return strings.Join(lines, "\n"), nil
}

// applyDefaults sets default values for configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 10 * time.Second
	}

	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = 60
	}

	if cfg.RateLimit.BurstSize == 0 {
		cfg.RateLimit.BurstSize = 10
	}

	if cfg.Observability.MetricsPort == 0 {
		cfg.Observability.MetricsPort = 9090
	}
}

// Validate validates the configuration. TLS misconfiguration is a startup
// failure, never a runtime rejection: the gateway refuses to boot before any
// socket is opened.
func (c *Config) Validate() error {
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertPath == "" {
			return errors.New("server.tls.cert_path is required when TLS is enabled")
		}

		if c.Server.TLS.KeyPath == "" {
			return errors.New("server.tls.key_path is required when TLS is enabled")
		}

		if _, err := os.Stat(c.Server.TLS.CertPath); err != nil {
			return fmt.Errorf("server.tls.cert_path: %w", err)
		}

		if _, err := os.Stat(c.Server.TLS.KeyPath); err != nil {
			return fmt.Errorf("server.tls.key_path: %w", err)
		}
	}

	if c.Provider.Region == "" {
		return errors.New("provider.region is required")
	}

	if c.Provider.UserPoolID == "" {
		return errors.New("provider.user_pool_id is required")
	}

	if c.Provider.ClientID == "" {
		return errors.New("provider.client_id is required")
	}

	return nil
}
