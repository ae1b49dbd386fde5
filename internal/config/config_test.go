// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.ResetCodeTTL != 15*time.Minute {
		t.Errorf("Auth.ResetCodeTTL = %v, want 15m", cfg.Auth.ResetCodeTTL)
	}
	if cfg.Auth.TwoFactorConfirmFirstVerify {
		t.Error("TwoFactorConfirmFirstVerify should default to false")
	}
	if !cfg.Auth.LockoutEnabled {
		t.Error("LockoutEnabled should default to true")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PROJECTDESK_SERVER_PORT", "9090")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090 from env", cfg.Server.Port)
	}
}

func TestLoadEnvOverrideMultiWordSection(t *testing.T) {
	t.Setenv("PROJECTDESK_RATE_LIMIT_REQUESTS", "250")
	t.Setenv("PROJECTDESK_RATE_LIMIT_LOGIN_REQUESTS", "3")
	t.Setenv("PROJECTDESK_AUTH_RESET_CODE_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RateLimit.Requests != 250 {
		t.Errorf("RateLimit.Requests = %d, want 250 from env", cfg.RateLimit.Requests)
	}
	if cfg.RateLimit.LoginRequests != 3 {
		t.Errorf("RateLimit.LoginRequests = %d, want 3 from env", cfg.RateLimit.LoginRequests)
	}
	if cfg.Auth.ResetCodeTTL != 30*time.Minute {
		t.Errorf("Auth.ResetCodeTTL = %v, want 30m from env", cfg.Auth.ResetCodeTTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, true},
		{"argon2 memory too low", func(c *Config) { c.Auth.Argon2Memory = 1024 }, true},
		{"zero iterations", func(c *Config) { c.Auth.Argon2Iterations = 0 }, true},
		{"short salt", func(c *Config) { c.Auth.Argon2SaltLength = 4 }, true},
		{"short key", func(c *Config) { c.Auth.Argon2KeyLength = 8 }, true},
		{"negative reset ttl", func(c *Config) { c.Auth.ResetCodeTTL = -time.Minute }, true},
		{"lockout without attempts", func(c *Config) { c.Auth.LockoutMaxAttempts = 0 }, true},
		{"empty issuer", func(c *Config) { c.Auth.TOTPIssuer = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
