package internal

import (
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.App.HTTP.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.App.HTTP.Port)
	}
	if cfg.Generator.Timeout() != 60*time.Second {
		t.Errorf("generator timeout = %v, want 60s", cfg.Generator.Timeout())
	}
	if cfg.Auth.AuthEnabled() {
		t.Error("auth enabled by default")
	}
}

func TestHTTPConfig_Address(t *testing.T) {
	c := HTTPConfig{Port: 9090}
	if got := c.Address(); got != ":9090" {
		t.Errorf("Address = %q, want %q", got, ":9090")
	}
}

func TestConfig_ValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.App.HTTP.Port = 0 }},
		{"port too large", func(c *Config) { c.App.HTTP.Port = 70000 }},
		{"missing registry path", func(c *Config) { c.Registry.Path = "" }},
		{"missing letters path", func(c *Config) { c.Letters.Path = "" }},
		{"missing default recipient", func(c *Config) { c.Letters.DefaultTo = "" }},
		{"missing generator url", func(c *Config) { c.Generator.URL = "" }},
		{"zero generator timeout", func(c *Config) { c.Generator.TimeoutSeconds = 0 }},
		{"missing sqlite path", func(c *Config) { c.SQLite.Path = "" }},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "magic" }},
		{"token mode without token", func(c *Config) { c.Auth.Mode = AuthModeToken; c.Auth.Token = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAuthConfig_EmptyModeNormalized(t *testing.T) {
	c := AuthConfig{}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", c.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenMode(t *testing.T) {
	c := AuthConfig{Mode: AuthModeToken, Token: "secret"}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if !c.AuthEnabled() {
		t.Error("AuthEnabled = false for token mode")
	}
}
