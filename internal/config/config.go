package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Port            string        `yaml:"port"`
	StoreDriver     string        `yaml:"store_driver"`
	DatabaseURL     string        `yaml:"database_url"`
	MongoURI        string        `yaml:"mongo_uri"`
	MongoDatabase   string        `yaml:"mongo_database"`
	TokenSecret     string        `yaml:"access_token_secret"`
	TokenTTL        time.Duration `yaml:"access_token_ttl"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	RateLimitPerMinute      int `yaml:"rate_limit_per_min"`
	RateLimitBurst          int `yaml:"rate_limit_burst"`
	LoginRateLimitPerMinute int `yaml:"login_rate_limit_per_min"`
	LoginRateLimitBurst     int `yaml:"login_rate_limit_burst"`
	// Proxies (IPs or CIDRs) allowed to set X-Forwarded-For.
	TrustedProxies []string `yaml:"trusted_proxies"`

	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

func Defaults() Config {
	return Config{
		Port:                    "5000",
		StoreDriver:             DriverPostgres,
		MongoDatabase:           "ars-car-parts",
		TokenTTL:                time.Hour,
		ShutdownTimeout:         10 * time.Second,
		RateLimitPerMinute:      120,
		RateLimitBurst:          30,
		LoginRateLimitPerMinute: 10,
		LoginRateLimitBurst:     5,
		LogLevel:                "info",
		LogFormat:               "text",
		CORSAllowedOrigins:      []string{"*"},
	}
}

// Load builds the configuration from defaults, an optional YAML file, the
// environment and finally command-line flags, each overriding the last.
func Load(args []string) (Config, error) {
	cfg := Defaults()

	flags := pflag.NewFlagSet("catalog-service", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("CATALOG_CONFIG"), "path to a YAML config file")
	port := flags.String("port", "", "HTTP listen port")
	driver := flags.String("store", "", "store driver: postgres, mongo or memory")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn, error")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		if err := loadFile(&cfg, *configPath); err != nil {
			return Config{}, err
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return Config{}, err
	}

	if *port != "" {
		cfg.Port = *port
	}
	if *driver != "" {
		cfg.StoreDriver = *driver
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DB_DSN is required for the postgres store")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI or DB_USER/DB_PASS/MONGO_HOST is required for the mongo store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	return nil
}

func loadFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	cfg.Port = readString("CATALOG_PORT", readString("PORT", cfg.Port))
	cfg.StoreDriver = readString("STORE_DRIVER", cfg.StoreDriver)
	cfg.DatabaseURL = readString("DB_DSN", cfg.DatabaseURL)
	cfg.MongoURI = readString("MONGO_URI", cfg.MongoURI)
	if cfg.MongoURI == "" {
		cfg.MongoURI = mongoURIFromParts(os.Getenv("DB_USER"), os.Getenv("DB_PASS"), os.Getenv("MONGO_HOST"))
	}
	cfg.MongoDatabase = readString("MONGO_DATABASE", cfg.MongoDatabase)
	cfg.TokenSecret = readString("ACCESS_TOKEN_SECRET", cfg.TokenSecret)

	var err error
	if cfg.TokenTTL, err = readDuration("ACCESS_TOKEN_TTL", cfg.TokenTTL); err != nil {
		return err
	}
	if cfg.ShutdownTimeout, err = readDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}

	cfg.RateLimitPerMinute = readInt("RATE_LIMIT_PER_MIN", cfg.RateLimitPerMinute)
	cfg.RateLimitBurst = readInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.LoginRateLimitPerMinute = readInt("LOGIN_RATE_LIMIT_PER_MIN", cfg.LoginRateLimitPerMinute)
	cfg.LoginRateLimitBurst = readInt("LOGIN_RATE_LIMIT_BURST", cfg.LoginRateLimitBurst)

	if raw := os.Getenv("TRUSTED_PROXIES"); raw != "" {
		cfg.TrustedProxies = splitList(raw)
	}

	cfg.LogLevel = readString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = readString("LOG_FORMAT", cfg.LogFormat)
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		cfg.CORSAllowedOrigins = splitList(raw)
	}

	cfg.OTLPEndpoint = readString("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	if raw := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); raw != "" {
		cfg.OTLPInsecure = raw == "true"
	}
	return nil
}

// mongoURIFromParts builds an Atlas SRV URI from separate credentials.
func mongoURIFromParts(user, pass, host string) string {
	if user == "" || pass == "" || host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, pass),
		Host:     host,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

func readString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
