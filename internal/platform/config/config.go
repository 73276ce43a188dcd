package config

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Addr                     string
	Environment              string
	DatabaseURL              string
	DBMaxConns               int
	JWTSecret                string
	JWTIssuer                string
	DataEncryptionKey        string
	CORSAllowedOrigins       []string
	MaxBodyBytes             int64
	RateLimitPerMinute       int
	DefaultSelfWeight        float64
	DefaultSupervisorWeight  float64
	DefaultPeerWeight        float64
	ResultsRecomputeInterval time.Duration
	AIEnabled                bool
	AIAPIKey                 string
	AIBaseURL                string
	AIModel                  string
	AITimeout                time.Duration
	AITemperature            float64
	EmailEnabled             bool
	EmailFrom                string
	SMTPHost                 string
	SMTPPort                 int
	SMTPUser                 string
	SMTPPassword             string
	SMTPUseTLS               bool
	MetricsEnabled           bool
	LogLevel                 string
	LogFile                  string
	LogMaxSizeMB             int
	LogMaxBackups            int
	LogMaxAgeDays            int
}

var defaults = map[string]any{
	"APP_ADDR":                   ":8080",
	"APP_ENV":                    "development",
	"DATABASE_URL":               "",
	"DB_MAX_CONNS":               10,
	"JWT_SECRET":                 "",
	"JWT_ISSUER":                 "",
	"DATA_ENCRYPTION_KEY":        "",
	"CORS_ALLOWED_ORIGINS":       "http://localhost:5173",
	"MAX_BODY_BYTES":             1048576,
	"RATE_LIMIT_PER_MINUTE":      120,
	"DEFAULT_SELF_WEIGHT":        0.3,
	"DEFAULT_SUPERVISOR_WEIGHT":  0.7,
	"DEFAULT_PEER_WEIGHT":        0.0,
	"RESULTS_RECOMPUTE_INTERVAL": "1h",
	"AI_ENABLED":                 false,
	"AI_API_KEY":                 "",
	"AI_BASE_URL":                "https://api.openai.com/v1",
	"AI_MODEL":                   "gpt-4o-mini",
	"AI_TIMEOUT":                 "60s",
	"AI_TEMPERATURE":             0.4,
	"EMAIL_ENABLED":              false,
	"EMAIL_FROM":                 "no-reply@example.com",
	"SMTP_HOST":                  "",
	"SMTP_PORT":                  587,
	"SMTP_USER":                  "",
	"SMTP_PASSWORD":              "",
	"SMTP_USE_TLS":               true,
	"METRICS_ENABLED":            true,
	"LOG_LEVEL":                  "info",
	"LOG_FILE":                   "",
	"LOG_MAX_SIZE_MB":            50,
	"LOG_MAX_BACKUPS":            5,
	"LOG_MAX_AGE_DAYS":           28,
}

// Load reads an optional .env file and resolves every key from the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return FromViper(v)
}

func FromViper(v *viper.Viper) Config {
	return Config{
		Addr:                     v.GetString("APP_ADDR"),
		Environment:              v.GetString("APP_ENV"),
		DatabaseURL:              v.GetString("DATABASE_URL"),
		DBMaxConns:               v.GetInt("DB_MAX_CONNS"),
		JWTSecret:                v.GetString("JWT_SECRET"),
		JWTIssuer:                v.GetString("JWT_ISSUER"),
		DataEncryptionKey:        v.GetString("DATA_ENCRYPTION_KEY"),
		CORSAllowedOrigins:       splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		MaxBodyBytes:             v.GetInt64("MAX_BODY_BYTES"),
		RateLimitPerMinute:       v.GetInt("RATE_LIMIT_PER_MINUTE"),
		DefaultSelfWeight:        v.GetFloat64("DEFAULT_SELF_WEIGHT"),
		DefaultSupervisorWeight:  v.GetFloat64("DEFAULT_SUPERVISOR_WEIGHT"),
		DefaultPeerWeight:        v.GetFloat64("DEFAULT_PEER_WEIGHT"),
		ResultsRecomputeInterval: v.GetDuration("RESULTS_RECOMPUTE_INTERVAL"),
		AIEnabled:                v.GetBool("AI_ENABLED"),
		AIAPIKey:                 v.GetString("AI_API_KEY"),
		AIBaseURL:                v.GetString("AI_BASE_URL"),
		AIModel:                  v.GetString("AI_MODEL"),
		AITimeout:                v.GetDuration("AI_TIMEOUT"),
		AITemperature:            v.GetFloat64("AI_TEMPERATURE"),
		EmailEnabled:             v.GetBool("EMAIL_ENABLED"),
		EmailFrom:                v.GetString("EMAIL_FROM"),
		SMTPHost:                 v.GetString("SMTP_HOST"),
		SMTPPort:                 v.GetInt("SMTP_PORT"),
		SMTPUser:                 v.GetString("SMTP_USER"),
		SMTPPassword:             v.GetString("SMTP_PASSWORD"),
		SMTPUseTLS:               v.GetBool("SMTP_USE_TLS"),
		MetricsEnabled:           v.GetBool("METRICS_ENABLED"),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		LogFile:                  v.GetString("LOG_FILE"),
		LogMaxSizeMB:             v.GetInt("LOG_MAX_SIZE_MB"),
		LogMaxBackups:            v.GetInt("LOG_MAX_BACKUPS"),
		LogMaxAgeDays:            v.GetInt("LOG_MAX_AGE_DAYS"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment != "development" && c.Environment != "test" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set outside development")
	}
	if c.IsProduction() && strings.TrimSpace(c.DataEncryptionKey) == "" {
		return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	weights := []float64{c.DefaultSelfWeight, c.DefaultSupervisorWeight, c.DefaultPeerWeight}
	sum := 0.0
	for _, w := range weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("default source weights must be between 0 and 1")
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("default source weights must sum to 1, got %.4f", sum)
	}
	if c.AIEnabled && strings.TrimSpace(c.AIAPIKey) == "" {
		return fmt.Errorf("AI_API_KEY must be set when AI_ENABLED is true")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
