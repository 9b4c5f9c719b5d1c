package config

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("NARAMARKET_SERVICE_KEY", "real-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Upstream.ServiceKey != "real-key" {
		t.Errorf("expected service key from NARAMARKET_SERVICE_KEY, got %q", cfg.Upstream.ServiceKey)
	}
	if cfg.Upstream.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Upstream.MaxRetries)
	}
	if cfg.Upstream.BackoffBase != 0.75 {
		t.Errorf("expected backoff base 0.75, got %v", cfg.Upstream.BackoffBase)
	}
	if cfg.Upstream.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Upstream.Timeout)
	}
	if cfg.Server.Port != "8081" || cfg.Server.Transport != TransportStdio {
		t.Errorf("unexpected server defaults: %+v", cfg.Server)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("NARAMARKET_UPSTREAM_SERVICE_KEY", "k1")
	t.Setenv("NARAMARKET_UPSTREAM_MAX_RETRIES", "5")
	t.Setenv("NARAMARKET_UPSTREAM_BACKOFF_BASE", "0.5")
	t.Setenv("NARAMARKET_UPSTREAM_TIMEOUT", "10s")
	t.Setenv("NARAMARKET_SERVER_TRANSPORT", "HTTP")
	t.Setenv("NARAMARKET_SERVER_PORT", "9000")
	t.Setenv("NARAMARKET_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("NARAMARKET_LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Upstream.ServiceKey != "k1" {
		t.Errorf("expected k1, got %q", cfg.Upstream.ServiceKey)
	}
	if cfg.Upstream.MaxRetries != 5 || cfg.Upstream.BackoffBase != 0.5 {
		t.Errorf("unexpected retry settings: %+v", cfg.Upstream)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("expected 10s, got %v", cfg.Upstream.Timeout)
	}
	if cfg.Server.Transport != TransportHTTP || cfg.Server.Port != "9000" {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if !reflect.DeepEqual(cfg.Kafka.Brokers, []string{"a:9092", "b:9092"}) {
		t.Errorf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug, got %q", cfg.Log.Level)
	}
}

func TestLoadConfig_RejectsPlaceholderKeys(t *testing.T) {
	for _, key := range []string{"your-api-key-here", "SECURE_API_KEY_REQUIRED", "null", "undefined"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv("NARAMARKET_SERVICE_KEY", key)
			_, err := LoadConfig()
			if !errors.Is(err, ErrMissingServiceKey) {
				t.Fatalf("expected ErrMissingServiceKey, got %v", err)
			}
		})
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("NARAMARKET_SERVICE_KEY", "k")
	t.Setenv("NARAMARKET_UPSTREAM_MAX_RETRIES", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error for max_retries=0")
	}
}

func TestLoadConfig_ListValues(t *testing.T) {
	t.Setenv("NARAMARKET_SERVICE_KEY", "k")
	t.Setenv("NARAMARKET_KAFKA_BROKERS", " k1:9092 , k2:9092,,k3:9092")
	t.Setenv("NARAMARKET_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Kafka.Brokers, []string{"k1:9092", "k2:9092", "k3:9092"}) {
		t.Errorf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if !reflect.DeepEqual(cfg.Server.CORSAllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("unexpected origins: %v", cfg.Server.CORSAllowedOrigins)
	}
}

func TestLoadConfig_RejectsZeroCacheTTL(t *testing.T) {
	t.Setenv("NARAMARKET_SERVICE_KEY", "k")
	t.Setenv("NARAMARKET_REDIS_TTL", "0s")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error for redis ttl=0")
	}
}

func TestHasServiceKey(t *testing.T) {
	if HasServiceKey("  ") {
		t.Error("blank key must not count")
	}
	if !HasServiceKey("abc") {
		t.Error("expected abc to be accepted")
	}
}
