package config

import (
	"errors"
	"io/fs"
	"strconv"
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

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Reports   ReportsConfig
	Requalify RequalifyConfig
	CRM       CRMConfig
}

type DatabaseConfig struct {
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	// ConnMaxLifetime bounds how long a pooled connection is reused.
	ConnMaxLifetime  time.Duration
	// StatementTimeout is applied server side to every statement of the pool, 0 disables it.
	StatementTimeout time.Duration
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	parts := []string{
		"host=" + c.Host,
		"port=" + strconv.Itoa(c.Port),
		"user=" + c.User,
		"password=" + c.Password,
		"dbname=" + c.Name,
		"sslmode=" + c.SSLMode,
		"application_name=lead-insights-api",
	}
	if c.StatementTimeout > 0 {
		parts = append(parts, "statement_timeout="+strconv.FormatInt(c.StatementTimeout.Milliseconds(), 10))
	}
	return strings.Join(parts, " ")
}

// RedisConfig points at the cache / lock store. Disabled keeps the service usable without Redis.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReportsConfig tunes the lead report endpoints.
type ReportsConfig struct {
	Timezone        string
	DefaultPageSize int
	MaxPageSize     int
	OwnerCacheTTL   time.Duration
}

// RequalifyConfig bounds the requalification workflow.
type RequalifyConfig struct {
	DefaultBatchSize int
	MaxBatchSize     int
	Timeout          time.Duration
	LockTTL          time.Duration
	LogRetries       int
	LogRetryDelay    time.Duration
}

// CRMConfig controls the outbound CRM client.
type CRMConfig struct {
	BaseURLTemplate   string
	HTTPTimeout       time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Location resolves the reporting timezone, falling back to the process local zone.
func (c ReportsConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
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

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:             v.GetString("DB_HOST"),
		Port:             v.GetInt("DB_PORT"),
		User:             v.GetString("DB_USER"),
		Password:         v.GetString("DB_PASSWORD"),
		Name:             v.GetString("DB_NAME"),
		SSLMode:          v.GetString("DB_SSL_MODE"),
		MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime:  parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
		StatementTimeout: parseDuration(v.GetString("DB_STATEMENT_TIMEOUT"), 0),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Reports = ReportsConfig{
		Timezone:        v.GetString("REPORTS_TIMEZONE"),
		DefaultPageSize: positiveOr(v.GetInt("REPORTS_DEFAULT_PAGE_SIZE"), 20),
		MaxPageSize:     positiveOr(v.GetInt("REPORTS_MAX_PAGE_SIZE"), 100),
		OwnerCacheTTL:   parseDuration(v.GetString("REPORTS_OWNER_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Requalify = RequalifyConfig{
		DefaultBatchSize: positiveOr(v.GetInt("REQUALIFY_DEFAULT_BATCH_SIZE"), 50),
		MaxBatchSize:     positiveOr(v.GetInt("REQUALIFY_MAX_BATCH_SIZE"), 250),
		Timeout:          parseDuration(v.GetString("REQUALIFY_TIMEOUT"), 5*time.Minute),
		LockTTL:          parseDuration(v.GetString("REQUALIFY_LOCK_TTL"), 10*time.Minute),
		LogRetries:       positiveOr(v.GetInt("REQUALIFY_LOG_RETRIES"), 3),
		LogRetryDelay:    parseDuration(v.GetString("REQUALIFY_LOG_RETRY_DELAY"), 2*time.Second),
	}

	cfg.CRM = CRMConfig{
		BaseURLTemplate:   v.GetString("CRM_BASE_URL_TEMPLATE"),
		HTTPTimeout:       parseDuration(v.GetString("CRM_HTTP_TIMEOUT"), 15*time.Second),
		RequestsPerSecond: v.GetFloat64("CRM_REQUESTS_PER_SECOND"),
		Burst:             positiveOr(v.GetInt("CRM_BURST"), 1),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lead_insights")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_STATEMENT_TIMEOUT", "30s")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REPORTS_TIMEZONE", "")
	v.SetDefault("REPORTS_DEFAULT_PAGE_SIZE", 20)
	v.SetDefault("REPORTS_MAX_PAGE_SIZE", 100)
	v.SetDefault("REPORTS_OWNER_CACHE_TTL", "5m")

	v.SetDefault("REQUALIFY_DEFAULT_BATCH_SIZE", 50)
	v.SetDefault("REQUALIFY_MAX_BATCH_SIZE", 250)
	v.SetDefault("REQUALIFY_TIMEOUT", "5m")
	v.SetDefault("REQUALIFY_LOCK_TTL", "10m")
	v.SetDefault("REQUALIFY_LOG_RETRIES", 3)
	v.SetDefault("REQUALIFY_LOG_RETRY_DELAY", "2s")

	v.SetDefault("CRM_BASE_URL_TEMPLATE", "https://%s.kommo.com/api/v4")
	v.SetDefault("CRM_HTTP_TIMEOUT", "15s")
	v.SetDefault("CRM_REQUESTS_PER_SECOND", 7)
	v.SetDefault("CRM_BURST", 1)
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

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
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
