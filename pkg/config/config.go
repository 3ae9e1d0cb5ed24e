package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Upstream     UpstreamConfig
	Availability AvailabilityConfig
	Bookings     BookingsConfig
	RateLimit    RateLimitConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig verifies tokens issued by the platform backend.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Leeway   time.Duration
	HostRole string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UpstreamConfig points at the accommodation platform REST API.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AvailabilityConfig tunes reservation fetching and calendar blocking rules.
type AvailabilityConfig struct {
	FetchTimeout      time.Duration
	CacheTTL          time.Duration
	OccupyingStatuses []string
	StatusPriority    []string
	MaxWindowDays     int
}

// BookingsConfig controls the asynchronous reservation handoff.
type BookingsConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
}

// RateLimitConfig bounds per-client request rates.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Leeway:   parseDuration(v.GetString("JWT_LEEWAY"), 30*time.Second),
		HostRole: v.GetString("JWT_HOST_ROLE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Upstream = UpstreamConfig{
		BaseURL: strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
	}

	maxWindow := v.GetInt("AVAILABILITY_MAX_WINDOW_DAYS")
	if maxWindow <= 0 {
		maxWindow = 370
	}
	cfg.Availability = AvailabilityConfig{
		FetchTimeout:      parseDuration(v.GetString("AVAILABILITY_FETCH_TIMEOUT"), 10*time.Second),
		CacheTTL:          parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), 2*time.Minute),
		OccupyingStatuses: splitAndTrim(v.GetString("AVAILABILITY_OCCUPYING_STATUSES")),
		StatusPriority:    splitAndTrim(v.GetString("AVAILABILITY_STATUS_PRIORITY")),
		MaxWindowDays:     maxWindow,
	}

	cfg.Bookings = BookingsConfig{
		WorkerConcurrency: v.GetInt("BOOKINGS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("BOOKINGS_WORKER_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("BOOKINGS_RETRY_DELAY"), 2*time.Second),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:           v.GetBool("ENABLE_RATE_LIMIT"),
		RequestsPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		Burst:             v.GetInt("RATE_LIMIT_BURST"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stay_booking")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_LEEWAY", "30s")
	v.SetDefault("JWT_HOST_ROLE", "HOST")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:8081/api")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")

	v.SetDefault("AVAILABILITY_FETCH_TIMEOUT", "10s")
	v.SetDefault("AVAILABILITY_CACHE_TTL", "2m")
	v.SetDefault("AVAILABILITY_OCCUPYING_STATUSES", "PENDING,CONFIRMED,COMPLETED")
	v.SetDefault("AVAILABILITY_STATUS_PRIORITY", "COMPLETED,PENDING,CONFIRMED,CANCELLED")
	v.SetDefault("AVAILABILITY_MAX_WINDOW_DAYS", 370)

	v.SetDefault("BOOKINGS_WORKER_CONCURRENCY", 2)
	v.SetDefault("BOOKINGS_WORKER_RETRIES", 3)
	v.SetDefault("BOOKINGS_RETRY_DELAY", "2s")

	v.SetDefault("ENABLE_RATE_LIMIT", true)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("RATE_LIMIT_BURST", 20)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
