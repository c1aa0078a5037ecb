// Package config resolves process settings from configs/.env and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	_ "time/tzdata" // TIMEZONE must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
	Backfill BackfillConfig
	NATSURL  string
	Location *time.Location
}

type ServerConfig struct {
	Port        string
	GinMode     string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
}

type LogConfig struct {
	Level       string
	Environment string
}

// BackfillConfig tunes the placeholder filing process.
type BackfillConfig struct {
	BatchSize    int
	IdleWait     time.Duration
	MaxBatches   int
	RunAtHour    int
	RunAtMinute  int
	SeedDefaults bool
}

// DSN returns the postgres connection string. Sessions run in UTC so date
// columns compare against UTC period boundaries.
func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name +
		"?sslmode=" + d.SSLMode + "&TimeZone=UTC"
}

// Load reads envFile when present (a missing file is not an error) and then the
// process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("TIMEZONE", "America/Argentina/Buenos_Aires")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("BACKFILL_BATCH_SIZE", 100)
	v.SetDefault("BACKFILL_IDLE_WAIT", "60s")
	v.SetDefault("BACKFILL_MAX_BATCHES", 1000)
	v.SetDefault("BACKFILL_RUN_AT", "00:00")
	v.SetDefault("SEED_DEFAULT_CONFIGURATION", true)
}

func fromViper(v *viper.Viper) (*Config, error) {
	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	idleWait, err := time.ParseDuration(v.GetString("BACKFILL_IDLE_WAIT"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKFILL_IDLE_WAIT: %w", err)
	}

	runAt, err := time.Parse("15:04", v.GetString("BACKFILL_RUN_AT"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKFILL_RUN_AT (expected HH:MM): %w", err)
	}

	batchSize := v.GetInt("BACKFILL_BATCH_SIZE")
	if batchSize <= 0 {
		return nil, fmt.Errorf("BACKFILL_BATCH_SIZE must be positive, got %d", batchSize)
	}

	ginMode := v.GetString("GIN_MODE")
	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		if ginMode == "release" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in release mode")
		}
		secret = "default_super_secret_key" // development fallback only
	}

	return &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			GinMode:     ginMode,
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Auth: AuthConfig{JWTSecret: secret},
		Log: LogConfig{
			Level:       v.GetString("LOG_LEVEL"),
			Environment: v.GetString("APP_ENV"),
		},
		Backfill: BackfillConfig{
			BatchSize:    batchSize,
			IdleWait:     idleWait,
			MaxBatches:   v.GetInt("BACKFILL_MAX_BATCHES"),
			RunAtHour:    runAt.Hour(),
			RunAtMinute:  runAt.Minute(),
			SeedDefaults: v.GetBool("SEED_DEFAULT_CONFIGURATION"),
		},
		NATSURL:  v.GetString("NATS_URL"),
		Location: loc,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
