package config

import (
	"errors"
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

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Tracking TrackingConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TrackingConfig tunes the geofence auto clock-out engine.
type TrackingConfig struct {
	// GracePeriod is how long a detected exit waits for a re-entry fix
	// before it becomes eligible for confirmation.
	GracePeriod time.Duration
	// RaceBuffer is the extra wait after the grace period that yields to a
	// manual clock-out in flight at nearly the same moment.
	RaceBuffer time.Duration
	// SweepInterval drives the in-process fallback sweep.
	SweepInterval time.Duration
	SweepEnabled  bool
	// OvertimeCap is the hard elapsed-time limit for overtime sessions.
	OvertimeCap time.Duration
	// ClockOutWindow is how long before scheduled shift end the geofence
	// rule activates for normal shifts.
	ClockOutWindow time.Duration
	// ReEntryFixCount is how many of the most recent fixes after an exit
	// are inspected for a re-entry.
	ReEntryFixCount int
	// ReferenceCacheTTL bounds the Redis cache of job-site and worker rows.
	ReferenceCacheTTL time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	reentryFixes := v.GetInt("TRACKING_REENTRY_FIX_COUNT")
	if reentryFixes < 5 {
		reentryFixes = 5
	}
	cfg.Tracking = TrackingConfig{
		GracePeriod:       parseDuration(v.GetString("TRACKING_GRACE_PERIOD"), 4*time.Minute),
		RaceBuffer:        parseDuration(v.GetString("TRACKING_RACE_BUFFER"), time.Minute),
		SweepInterval:     parseDuration(v.GetString("TRACKING_SWEEP_INTERVAL"), 90*time.Second),
		SweepEnabled:      v.GetBool("TRACKING_SWEEP_ENABLED"),
		OvertimeCap:       parseDuration(v.GetString("TRACKING_OVERTIME_CAP"), 3*time.Hour),
		ClockOutWindow:    parseDuration(v.GetString("TRACKING_CLOCKOUT_WINDOW"), time.Hour),
		ReEntryFixCount:   reentryFixes,
		ReferenceCacheTTL: parseDuration(v.GetString("TRACKING_REFERENCE_CACHE_TTL"), 10*time.Minute),
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
	v.SetDefault("DB_NAME", "union_clock")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TRACKING_GRACE_PERIOD", "4m")
	v.SetDefault("TRACKING_RACE_BUFFER", "60s")
	v.SetDefault("TRACKING_SWEEP_INTERVAL", "90s")
	v.SetDefault("TRACKING_SWEEP_ENABLED", true)
	v.SetDefault("TRACKING_OVERTIME_CAP", "3h")
	v.SetDefault("TRACKING_CLOCKOUT_WINDOW", "1h")
	v.SetDefault("TRACKING_REENTRY_FIX_COUNT", 5)
	v.SetDefault("TRACKING_REFERENCE_CACHE_TTL", "10m")
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
