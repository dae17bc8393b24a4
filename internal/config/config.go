package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	App     AppConfig
	Store   StoreConfig
	Logger  LoggerConfig
	Auth    AuthConfig
	Gateway GatewayConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreConfig selects and configures the external document store.
type StoreConfig struct {
	Driver           string
	PostgresDSN      string
	PostgresMaxConns int32
	PostgresMinConns int32
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	OpTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token issuance parameters. The signing secret is
// loaded once here and handed to the codec constructor; nothing else
// reads it.
type AuthConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
	BcryptCost      int
}

// GatewayConfig holds downstream routing and breaker settings.
type GatewayConfig struct {
	UserServiceURL      string
	LoanServiceURL      string
	ProxyTimeoutSeconds int
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenSeconds  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "api-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Driver:           getEnv("STORE_DRIVER", "memory"),
			PostgresDSN:      os.Getenv("POSTGRES_DSN"),
			PostgresMaxConns: int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			PostgresMinConns: int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RedisAddr:        getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			RedisPassword:    os.Getenv("REDIS_PASSWORD"),
			RedisDB:          redisDB,
			OpTimeoutSeconds: getEnvAsInt("STORE_OP_TIMEOUT_SECONDS", 15),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60),
			BcryptCost:      getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Gateway: GatewayConfig{
			UserServiceURL:      getEnv("USER_SERVICE_URL", "http://127.0.0.1:8082"),
			LoanServiceURL:      getEnv("LOAN_SERVICE_URL", "http://127.0.0.1:8083"),
			ProxyTimeoutSeconds: getEnvAsInt("PROXY_TIMEOUT_SECONDS", 15),
			BreakerMinRequests:  uint32(getEnvAsInt("BREAKER_MIN_REQUESTS", 3)),
			BreakerFailureRatio: getEnvAsFloat("BREAKER_FAILURE_RATIO", 0.6),
			BreakerOpenSeconds:  getEnvAsInt("BREAKER_OPEN_SECONDS", 30),
		},
	}

	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 60
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// OpTimeout bounds every call against the external store.
func (s StoreConfig) OpTimeout() time.Duration {
	if s.OpTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.OpTimeoutSeconds) * time.Second
}

// ProxyTimeout bounds a single forwarded request.
func (g GatewayConfig) ProxyTimeout() time.Duration {
	if g.ProxyTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(g.ProxyTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
