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

// rocYearOffset converts a Gregorian year to the Taiwanese (ROC) calendar.
const rocYearOffset = 1911

type Config struct {
	Env             string
	Port            int
	APIPrefix       string
	ShutdownTimeout time.Duration

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Google    GoogleConfig
	CORS      CORSConfig
	Log       LogConfig
	Matching  MatchingConfig
	RateLimit RateLimitConfig
	Export    ExportConfig
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

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// GoogleConfig holds the OAuth client accepted as ID token audience.
type GoogleConfig struct {
	ClientID    string
	AdminEmails []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MatchingConfig bounds the transfer-cycle search and its result cache.
type MatchingConfig struct {
	ActiveYear        int
	MaxCycleLength    int
	MaxResults        int
	Timeout           time.Duration
	CacheTTL          time.Duration
	RecomputeInterval time.Duration
	Workers           int
}

// RateLimitConfig throttles login and registry mutations per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// ExportConfig locates the TrueType font used for PDF exports.
type ExportConfig struct {
	PDFFont string
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
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 15*time.Second)

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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.Google = GoogleConfig{
		ClientID:    v.GetString("GOOGLE_CLIENT_ID"),
		AdminEmails: splitAndTrim(strings.ToLower(v.GetString("ADMIN_EMAILS"))),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	activeYear := v.GetInt("MATCH_ACTIVE_YEAR")
	if activeYear <= 0 {
		activeYear = CurrentROCYear(time.Now())
	}
	maxLength := v.GetInt("MATCH_MAX_CYCLE_LENGTH")
	if maxLength < 2 {
		maxLength = 6
	}
	cfg.Matching = MatchingConfig{
		ActiveYear:        activeYear,
		MaxCycleLength:    maxLength,
		MaxResults:        v.GetInt("MATCH_MAX_RESULTS"),
		Timeout:           parseDuration(v.GetString("MATCH_TIMEOUT"), 5*time.Second),
		CacheTTL:          parseDuration(v.GetString("MATCH_CACHE_TTL"), 10*time.Minute),
		RecomputeInterval: parseDuration(v.GetString("MATCH_RECOMPUTE_INTERVAL"), 0),
		Workers:           v.GetInt("MATCH_WORKERS"),
	}

	cfg.RateLimit = RateLimitConfig{
		RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		Burst: v.GetInt("RATE_LIMIT_BURST"),
	}

	cfg.Export = ExportConfig{PDFFont: v.GetString("EXPORT_PDF_FONT")}

	return cfg, nil
}

// CurrentROCYear returns the Taiwanese calendar year for t.
func CurrentROCYear(t time.Time) int {
	return t.Year() - rocYearOffset
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "circlematch")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("ADMIN_EMAILS", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MATCH_ACTIVE_YEAR", 0)
	v.SetDefault("MATCH_MAX_CYCLE_LENGTH", 6)
	v.SetDefault("MATCH_MAX_RESULTS", 10000)
	v.SetDefault("MATCH_TIMEOUT", "5s")
	v.SetDefault("MATCH_CACHE_TTL", "10m")
	v.SetDefault("MATCH_RECOMPUTE_INTERVAL", "")
	v.SetDefault("MATCH_WORKERS", 1)

	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	v.SetDefault("EXPORT_PDF_FONT", "")
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
