package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Store       StoreConfig
	Redis       RedisConfig
	Database    DatabaseConfig
	Server      ServerConfig
	Auth        AuthConfig
	Admin       AdminConfig
	Entitlement EntitlementConfig
	Email       EmailConfig
}

type StoreConfig struct {
	Backend     string
	AutoMigrate bool
}

type RedisConfig struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	DialTimeout time.Duration
	Timeout     time.Duration
	MaxRetries  int
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret              string
	UserTokenExpiry        time.Duration
	AdminTokenExpiry       time.Duration
	TimingDelayBase        time.Duration
	TimingDelayRandom      time.Duration
	AuthRateLimitPerMinute    int
	UserRateLimitPerMinute    int
	ExtractRateLimitPerMinute int
}

type AdminConfig struct {
	Username   string
	Password   string
	TOTPSecret string
}

type EntitlementConfig struct {
	AllowedEmailDomain    string
	PremiumUnlockDays     int
	AdminGrantDefaultDays int
	PaymentViaTag         string
	CensusInterval        time.Duration
	ExtractTrialLimit     int
	ExtractPremiumLimit   int
}

type EmailConfig struct {
	Enabled     bool
	AWSRegion   string
	FromAddress string
	AppBaseURL  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Store: StoreConfig{
			Backend:     strings.ToLower(getEnv("STORE_BACKEND", StoreRedis)),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", "localhost:6379"),
			Username:    getEnv("REDIS_USER", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			DialTimeout: getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			Timeout:     getEnvAsDuration("REDIS_TIMEOUT", 3*time.Second),
			MaxRetries:  getEnvAsInt("REDIS_MAX_RETRIES", 3),
		},
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "nethunter"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:              jwtSecret,
			UserTokenExpiry:        getEnvAsDuration("USER_TOKEN_EXPIRY", 30*24*time.Hour),
			AdminTokenExpiry:       getEnvAsDuration("ADMIN_TOKEN_EXPIRY", 7*24*time.Hour),
			TimingDelayBase:        time.Duration(getEnvAsInt("TIMING_DELAY_BASE_MS", 250)) * time.Millisecond,
			TimingDelayRandom:      time.Duration(getEnvAsInt("TIMING_DELAY_RANDOM_MS", 100)) * time.Millisecond,
			AuthRateLimitPerMinute:    getEnvAsInt("AUTH_RATE_LIMIT_PER_MINUTE", 5),
			UserRateLimitPerMinute:    getEnvAsInt("USER_RATE_LIMIT_PER_MINUTE", 10),
			ExtractRateLimitPerMinute: getEnvAsInt("EXTRACT_RATE_LIMIT_PER_MINUTE", 10),
		},
		Admin: AdminConfig{
			Username:   getEnv("ADMIN_USER", "admin"),
			Password:   getEnv("ADMIN_PASSWORD", ""),
			TOTPSecret: getEnv("ADMIN_TOTP_SECRET", ""),
		},
		Entitlement: EntitlementConfig{
			AllowedEmailDomain:    strings.ToLower(strings.TrimPrefix(getEnv("ALLOWED_EMAIL_DOMAIN", "gmail.com"), "@")),
			PremiumUnlockDays:     getEnvAsInt("PREMIUM_UNLOCK_DAYS", 30),
			AdminGrantDefaultDays: getEnvAsInt("ADMIN_GRANT_DEFAULT_DAYS", 30),
			PaymentViaTag:         getEnv("PAYMENT_VIA_TAG", "flutterwave-redirect"),
			CensusInterval:        getEnvAsDuration("CENSUS_INTERVAL", 5*time.Minute),
			ExtractTrialLimit:     getEnvAsInt("EXTRACT_TRIAL_LIMIT", 1000),
			ExtractPremiumLimit:   getEnvAsInt("EXTRACT_PREMIUM_LIMIT", 10000),
		},
		Email: EmailConfig{
			Enabled:     getEnvAsBool("EMAIL_ENABLED", false),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
			AppBaseURL:  getEnv("APP_BASE_URL", "http://localhost:8080"),
		},
	}

	switch cfg.Store.Backend {
	case StoreRedis:
	case StorePostgres:
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required when STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q (got %q)", StoreRedis, StorePostgres, cfg.Store.Backend)
	}

	if cfg.Admin.Password == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required")
	}

	if cfg.Entitlement.PremiumUnlockDays <= 0 || cfg.Entitlement.AdminGrantDefaultDays <= 0 {
		return nil, fmt.Errorf("PREMIUM_UNLOCK_DAYS and ADMIN_GRANT_DEFAULT_DAYS must be positive")
	}

	if cfg.Entitlement.ExtractTrialLimit <= 0 || cfg.Entitlement.ExtractPremiumLimit <= 0 {
		return nil, fmt.Errorf("EXTRACT_TRIAL_LIMIT and EXTRACT_PREMIUM_LIMIT must be positive")
	}

	if cfg.Email.Enabled && cfg.Email.FromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when EMAIL_ENABLED=true")
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return splitList(getEnv("ALLOWED_ORIGINS", ""))
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
