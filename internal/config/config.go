// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

// Package config loads application configuration with Koanf v2 using
// layered sources, highest priority last:
//
//  1. Built-in defaults (struct provider)
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables with the PROJECTDESK_ prefix
//
// Example: PROJECTDESK_SERVER_PORT=9090 overrides server.port.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/projectdesk/config.yaml",
	"/etc/projectdesk/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces all environment overrides.
const envPrefix = "PROJECTDESK_"

// envSections maps the leading token(s) of an environment key to a
// config section. rate_limit must precede any hypothetical "rate"
// section; longer names first.
var envSections = []string{"rate_limit", "server", "database", "auth", "smtp", "logging"}

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	SMTP      SMTPConfig      `koanf:"smtp"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	// Path is the database file; ":memory:" is accepted for tests.
	Path string `koanf:"path"`
}

// AuthConfig parameterizes the credential lifecycle. It is injected into
// the auth service at construction; nothing in the auth package reads
// process-global state.
type AuthConfig struct {
	// Argon2id parameters for password hashing.
	Argon2Memory      uint32 `koanf:"argon2_memory"`
	Argon2Iterations  uint32 `koanf:"argon2_iterations"`
	Argon2Parallelism uint8  `koanf:"argon2_parallelism"`
	Argon2SaltLength  uint32 `koanf:"argon2_salt_length"`
	Argon2KeyLength   uint32 `koanf:"argon2_key_length"`

	// TOTPIssuer appears in authenticator apps next to the account label.
	TOTPIssuer string `koanf:"totp_issuer"`

	// TwoFactorConfirmFirstVerify delays flipping twofa_enabled until the
	// user has proven possession of the authenticator with one valid code.
	// Off by default: setup enables 2FA immediately, matching the historic
	// behavior clients depend on.
	TwoFactorConfirmFirstVerify bool `koanf:"twofactor_confirm_first_verify"`

	// ResetCodeTTL bounds how long a password-reset code stays valid.
	ResetCodeTTL time.Duration `koanf:"reset_code_ttl"`

	// Lockout settings for failed password/TOTP/reset-code verifications.
	LockoutEnabled     bool          `koanf:"lockout_enabled"`
	LockoutMaxAttempts int           `koanf:"lockout_max_attempts"`
	LockoutDuration    time.Duration `koanf:"lockout_duration"`
	LockoutMaxDuration time.Duration `koanf:"lockout_max_duration"`
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	FromName string `koanf:"from_name"`
	UseTLS   bool   `koanf:"use_tls"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Disabled bool `koanf:"disabled"`
	// Requests per window for general API traffic.
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	// Login gets a dedicated, much stricter limit.
	LoginRequests int           `koanf:"login_requests"`
	LoginWindow   time.Duration `koanf:"login_window"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path: "/data/projectdesk.db",
		},
		Auth: AuthConfig{
			Argon2Memory:                64 * 1024,
			Argon2Iterations:            3,
			Argon2Parallelism:           2,
			Argon2SaltLength:            16,
			Argon2KeyLength:             32,
			TOTPIssuer:                  "Projectdesk",
			TwoFactorConfirmFirstVerify: false,
			ResetCodeTTL:                15 * time.Minute,
			LockoutEnabled:              true,
			LockoutMaxAttempts:          5,
			LockoutDuration:             15 * time.Minute,
			LockoutMaxDuration:          24 * time.Hour,
		},
		SMTP: SMTPConfig{
			Host:     "",
			Port:     587,
			FromName: "Projectdesk",
			UseTLS:   true,
		},
		RateLimit: RateLimitConfig{
			Disabled:      false,
			Requests:      100,
			Window:        time.Minute,
			LoginRequests: 5,
			LoginWindow:   5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, file, and environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// PROJECTDESK_AUTH_RESET_CODE_TTL -> auth.reset_code_ttl, and so on.
	// Section names are matched explicitly because a naive first-underscore
	// split would mangle multi-word sections (rate_limit).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		for _, section := range envSections {
			if strings.HasPrefix(s, section+"_") {
				return section + "." + strings.TrimPrefix(s, section+"_")
			}
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.Argon2Memory < 8*1024 {
		return fmt.Errorf("auth.argon2_memory %d below minimum 8192 KiB", c.Auth.Argon2Memory)
	}
	if c.Auth.Argon2Iterations == 0 {
		return fmt.Errorf("auth.argon2_iterations must be positive")
	}
	if c.Auth.Argon2SaltLength < 8 {
		return fmt.Errorf("auth.argon2_salt_length %d below minimum 8", c.Auth.Argon2SaltLength)
	}
	if c.Auth.Argon2KeyLength < 16 {
		return fmt.Errorf("auth.argon2_key_length %d below minimum 16", c.Auth.Argon2KeyLength)
	}
	if c.Auth.ResetCodeTTL <= 0 {
		return fmt.Errorf("auth.reset_code_ttl must be positive")
	}
	if c.Auth.LockoutEnabled && c.Auth.LockoutMaxAttempts < 1 {
		return fmt.Errorf("auth.lockout_max_attempts must be at least 1")
	}
	if c.Auth.TOTPIssuer == "" {
		return fmt.Errorf("auth.totp_issuer is required")
	}
	return nil
}
