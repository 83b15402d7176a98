package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: "8080",
			TLS:  TLSConfig{Mode: "disabled"},
		},
		Storage: StorageConfig{Driver: "sqlite", DSN: ":memory:"},
		Auth:    AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: "server port is required",
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.Storage.Driver = "mysql" },
			wantErr: "invalid storage driver",
		},
		{
			name:    "missing dsn",
			mutate:  func(c *Config) { c.Storage.DSN = "" },
			wantErr: "storage DSN is required",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Auth.JWTSecret = "" },
			wantErr: "JWT secret is required",
		},
		{
			name:    "non-positive token ttl",
			mutate:  func(c *Config) { c.Auth.TokenTTL = 0 },
			wantErr: "token TTL must be positive",
		},
		{
			name: "email enabled without key",
			mutate: func(c *Config) {
				c.Email.Enabled = true
				c.Email.APIKey = ""
			},
			wantErr: "email API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr string
	}{
		{
			name: "disabled mode",
			tls:  TLSConfig{Mode: "disabled"},
		},
		{
			name: "server mode with files",
			tls:  TLSConfig{Mode: "server", CertFile: "cert.pem", KeyFile: "key.pem"},
		},
		{
			name: "server mode with content",
			tls:  TLSConfig{Mode: "server", CertContent: "cert", KeyContent: "key"},
		},
		{
			name:    "server mode missing key",
			tls:     TLSConfig{Mode: "server", CertFile: "cert.pem"},
			wantErr: "certificate and key are required",
		},
		{
			name:    "server mode duplicate cert sources",
			tls:     TLSConfig{Mode: "server", CertFile: "cert.pem", CertContent: "cert", KeyFile: "key.pem"},
			wantErr: "cannot specify both certFile and certContent",
		},
		{
			name:    "mutual mode requires ca",
			tls:     TLSConfig{Mode: "mutual", CertFile: "cert.pem", KeyFile: "key.pem"},
			wantErr: "CA certificate is required",
		},
		{
			name: "mutual mode with ca",
			tls:  TLSConfig{Mode: "mutual", CertFile: "cert.pem", KeyFile: "key.pem", CAFile: "ca.pem"},
		},
		{
			name:    "invalid client auth policy",
			tls:     TLSConfig{Mode: "mutual", CertFile: "cert.pem", KeyFile: "key.pem", CAFile: "ca.pem", ClientAuthPolicy: "never"},
			wantErr: "invalid clientAuthPolicy",
		},
		{
			name:    "invalid mode",
			tls:     TLSConfig{Mode: "maybe"},
			wantErr: "invalid TLS mode",
		},
		{
			name:    "invalid min version",
			tls:     TLSConfig{Mode: "server", CertFile: "cert.pem", KeyFile: "key.pem", MinVersion: "1.0"},
			wantErr: "invalid TLS minVersion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.TLS = tt.tls
			err := cfg.ValidateTLSConfig()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateTLSConfig() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateTLSConfig() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateTLSConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
