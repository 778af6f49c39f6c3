package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "API_BASE", "USE_MOCKS", "SESSION_STORE", "SESSION_TTL", "MOCK_LATENCY", "LOGIN_RATE_LIMIT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.APIBase != "http://localhost:3000" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.UseMocks {
		t.Error("UseMocks should default to false")
	}
	if cfg.SessionStore != StoreMemory {
		t.Errorf("SessionStore = %q", cfg.SessionStore)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.LoginRateLimit != 5 {
		t.Errorf("LoginRateLimit = %d", cfg.LoginRateLimit)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_BASE", "https://api.perritofeliz.co/")
	t.Setenv("USE_MOCKS", "true")
	t.Setenv("MOCK_LATENCY", "0s")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "https://api.perritofeliz.co" {
		t.Errorf("trailing slash not trimmed: %q", cfg.APIBase)
	}
	if !cfg.UseMocks {
		t.Error("expected mocks enabled")
	}
	if cfg.MockLatency != 0 {
		t.Errorf("MockLatency = %v", cfg.MockLatency)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad bool", map[string]string{"USE_MOCKS": "maybe"}},
		{"bad duration", map[string]string{"SESSION_TTL": "forever"}},
		{"negative ttl", map[string]string{"SESSION_TTL": "-1h"}},
		{"unknown store", map[string]string{"SESSION_STORE": "etcd"}},
		{"postgres without url", map[string]string{"SESSION_STORE": "postgres", "DATABASE_URL": ""}},
		{"redis without addr", map[string]string{"SESSION_STORE": "redis", "REDIS_ADDR": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestOIDCEnabled(t *testing.T) {
	if (OIDCConfig{}).Enabled() {
		t.Error("empty config should be disabled")
	}
	c := OIDCConfig{Issuer: "https://id.example", ClientID: "dash", RedirectURL: "http://localhost/cb"}
	if !c.Enabled() {
		t.Error("expected enabled")
	}
}
