package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "TODOS_"

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type AppConfig struct {
	ServiceName    string `koanf:"service_name" validate:"required"`
	ServiceVersion string `koanf:"service_version"`
	Environment    string `koanf:"environment" validate:"required"`

	Port            string        `koanf:"port" validate:"required,numeric"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LokiURL  string `koanf:"loki_url" validate:"omitempty,url"`

	StoreDriver       string        `koanf:"store_driver" validate:"oneof=mongo memory"`
	MongoURI          string        `koanf:"mongo_uri" validate:"required_if=StoreDriver mongo"`
	MongoDatabase     string        `koanf:"mongo_database" validate:"required_if=StoreDriver mongo"`
	MongoTimeout      time.Duration `koanf:"mongo_timeout"`
	MigrationsEnabled bool          `koanf:"migrations_enabled"`

	TracingEnabled bool   `koanf:"tracing_enabled"`
	OTLPEndpoint   string `koanf:"otlp_endpoint" validate:"required_if=TracingEnabled true"`
	MetricsPort    string `koanf:"metrics_port" validate:"omitempty,numeric"`

	EnforceHTTPS bool `koanf:"enforce_https"`

	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding
	// headers gin believes. Empty trusts none.
	TrustedProxies []string `koanf:"trusted_proxies" validate:"dive,cidr|ip"`

	RateLimitEnabled bool                       `koanf:"rate_limit_enabled"`
	RateLimitConfigs map[string]RateLimitConfig `koanf:"-"`

	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheDriver  string        `koanf:"cache_driver" validate:"oneof=memory redis"`
	CacheTTL     time.Duration `koanf:"cache_ttl" validate:"gt=0"`
	RedisAddr    string        `koanf:"redis_addr" validate:"required_if=CacheDriver redis"`
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		ServiceName:    "todoapp",
		ServiceVersion: "1.0.0",
		Environment:    "development",

		Port:            "5000",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		LogLevel: "info",

		StoreDriver:       StoreMongo,
		MongoURI:          "mongodb://localhost:27017/todoapp",
		MongoDatabase:     "todoapp",
		MongoTimeout:      5 * time.Second,
		MigrationsEnabled: true,

		OTLPEndpoint: "localhost:4317",
		MetricsPort:  "9091",

		RateLimitEnabled: true,
		RateLimitConfigs: map[string]RateLimitConfig{
			"GET /todos": {
				Requests: 100,
				Window:   time.Minute,
			},
			"POST /todos": {
				Requests: 60,
				Window:   time.Minute,
			},
			"PUT /todos/:id": {
				Requests: 60,
				Window:   time.Minute,
			},
			"DELETE /todos/:id": {
				Requests: 60,
				Window:   time.Minute,
			},
			"default": {
				Requests: 60,
				Window:   time.Minute,
			},
		},

		CacheEnabled: true,
		CacheDriver:  CacheMemory,
		CacheTTL:     3 * time.Second,
	}
}

// Load overlays TODOS_* environment variables on the defaults, e.g.
// TODOS_MONGO_URI sets MongoURI.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

		if key == "trusted_proxies" {
			return key, splitList(value)
		}

		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := GetDefaultConfig()

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitList(value string) []string {
	items := []string{}

	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	return nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func (c *AppConfig) ZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}

	return level
}

func (c *AppConfig) ZerologLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}

	return level
}
