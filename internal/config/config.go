package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "NARAMARKET_"

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

var ErrMissingServiceKey = errors.New("a data.go.kr service key is required (NARAMARKET_SERVICE_KEY)")

// placeholderKeys are values shipped in sample env files. They are treated
// as if no key was set.
var placeholderKeys = map[string]bool{
	"":                        true,
	"your-api-key-here":       true,
	"SECURE_API_KEY_REQUIRED": true,
	"null":                    true,
	"undefined":               true,
}

type Config struct {
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Upstream UpstreamConfig `koanf:"upstream" validate:"required"`
	Auth     AuthConfig     `koanf:"auth"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Port               string        `koanf:"port" validate:"required,numeric"`
	Transport          string        `koanf:"transport" validate:"oneof=stdio http"`
	ReadTimeout        time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout       time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout        time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins" validate:"required,min=1"`
}

type UpstreamConfig struct {
	ServiceKey   string        `koanf:"service_key"`
	BaseURL      string        `koanf:"base_url" validate:"required,url"`
	DetailURL    string        `koanf:"detail_url" validate:"required,url"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRetries   int           `koanf:"max_retries" validate:"gte=1"`
	BackoffBase  float64       `koanf:"backoff_base" validate:"gt=0"`
	MaxBodyBytes int64         `koanf:"max_body_bytes" validate:"gt=0"`
}

// AuthConfig enables bearer auth on the tool endpoints when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
}

// DatabaseConfig is optional; an empty DSN disables the call log.
type DatabaseConfig struct {
	DSN      string `koanf:"dsn"`
	MaxConns int32  `koanf:"max_conns" validate:"gte=0"`
}

// RedisConfig is optional; an empty Addr disables response caching.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	TTL      time.Duration `koanf:"ttl" validate:"gt=0"`
}

// KafkaConfig is optional; no brokers disables call event publishing.
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic" validate:"required_with=Brokers"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}

// Default returns the configuration used for every value the environment
// does not set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:               "8081",
			Transport:          TransportStdio,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       120 * time.Second,
			IdleTimeout:        60 * time.Second,
			CORSAllowedOrigins: []string{"*"},
		},
		Upstream: UpstreamConfig{
			BaseURL:      "http://apis.data.go.kr/1230000",
			DetailURL:    "https://shop.g2b.go.kr/gm/gms/gmsf/GdsDtlInfo/selectPdctAtrbInfo.do",
			Timeout:      30 * time.Second,
			MaxRetries:   3,
			BackoffBase:  0.75,
			MaxBodyBytes: 10 * 1024 * 1024,
		},
		Database: DatabaseConfig{MaxConns: 10},
		Redis:    RedisConfig{TTL: 5 * time.Minute},
		Kafka:    KafkaConfig{Topic: "naramarket.upstream-calls"},
		Log:      LogConfig{Level: "info"},
	}
}

// LoadConfig reads NARAMARKET_* environment variables over the defaults.
// The first underscore after the prefix separates the section from the key,
// so NARAMARKET_UPSTREAM_MAX_RETRIES sets upstream.max_retries.
//
// The service key may also be given as NARAMARKET_SERVICE_KEY.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(s, v string) (string, interface{}) {
		key := strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
		if listKeys[key] {
			return key, splitList(v)
		}
		return key, v
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	// NARAMARKET_SERVICE_KEY lands on "service.key".
	if key := strings.TrimSpace(cfg.Upstream.ServiceKey); placeholderKeys[key] {
		cfg.Upstream.ServiceKey = strings.TrimSpace(k.String("service.key"))
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Server.Transport = strings.ToLower(cfg.Server.Transport)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and that a usable service key is set.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if placeholderKeys[strings.TrimSpace(c.Upstream.ServiceKey)] {
		return ErrMissingServiceKey
	}
	return nil
}

// listKeys hold comma-separated values.
var listKeys = map[string]bool{
	"kafka.brokers":               true,
	"server.cors_allowed_origins": true,
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// HasServiceKey reports whether key is a real key rather than a sample value.
func HasServiceKey(key string) bool {
	return !placeholderKeys[strings.TrimSpace(key)]
}
