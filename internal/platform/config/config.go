package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Addr              string
	Environment       string
	LogLevel          string
	DatabaseURL       string
	RunMigrations     bool
	RunSeed           bool
	JWTSecret         string
	DataEncryptionKey string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	PolicyCacheTTL    time.Duration
	NATSURL           string
	NATSSubjectPrefix string
	MetricsEnabled    bool
	MaxBodyBytes      int64
	WriteRetryLimit   int
	RateLimitPerMin   int
	TokenTTL          time.Duration
	ShutdownTimeout   time.Duration
}

var defaults = map[string]any{
	"APP_ADDR":            ":8080",
	"APP_ENV":             "development",
	"LOG_LEVEL":           "info",
	"DATABASE_URL":        "",
	"RUN_MIGRATIONS":      true,
	"RUN_SEED":            false,
	"JWT_SECRET":          "",
	"DATA_ENCRYPTION_KEY": "",
	"REDIS_ADDR":          "",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"POLICY_CACHE_TTL":    5 * time.Minute,
	"NATS_URL":            "",
	"NATS_SUBJECT_PREFIX": "appraisal",
	"METRICS_ENABLED":     true,
	"MAX_BODY_BYTES":      1048576,
	"WRITE_RETRY_LIMIT":   3,
	"RATE_LIMIT_PER_MIN":  120,
	"TOKEN_TTL":           12 * time.Hour,
	"SHUTDOWN_TIMEOUT":    15 * time.Second,
}

// Load reads an optional .env file (ENV_FILE overrides the path) and then
// the process environment.
func Load() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", envFile, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Addr:              v.GetString("APP_ADDR"),
		Environment:       v.GetString("APP_ENV"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		RunMigrations:     v.GetBool("RUN_MIGRATIONS"),
		RunSeed:           v.GetBool("RUN_SEED"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		DataEncryptionKey: v.GetString("DATA_ENCRYPTION_KEY"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		PolicyCacheTTL:    v.GetDuration("POLICY_CACHE_TTL"),
		NATSURL:           v.GetString("NATS_URL"),
		NATSSubjectPrefix: v.GetString("NATS_SUBJECT_PREFIX"),
		MetricsEnabled:    v.GetBool("METRICS_ENABLED"),
		MaxBodyBytes:      v.GetInt64("MAX_BODY_BYTES"),
		WriteRetryLimit:   v.GetInt("WRITE_RETRY_LIMIT"),
		RateLimitPerMin:   v.GetInt("RATE_LIMIT_PER_MIN"),
		TokenTTL:          v.GetDuration("TOKEN_TTL"),
		ShutdownTimeout:   v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed {
			return fmt.Errorf("RUN_SEED must be disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.WriteRetryLimit < 0 {
		return fmt.Errorf("WRITE_RETRY_LIMIT must not be negative")
	}
	if c.RateLimitPerMin < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MIN must not be negative")
	}
	if c.PolicyCacheTTL < 0 {
		return fmt.Errorf("POLICY_CACHE_TTL must not be negative")
	}
	if c.NATSURL != "" && strings.TrimSpace(c.NATSSubjectPrefix) == "" {
		return fmt.Errorf("NATS_SUBJECT_PREFIX must be set when NATS_URL is configured")
	}
	return nil
}
