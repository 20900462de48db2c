package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	Environment string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	JWTIssuer        string
	JWTAudience      string
	JWTAccessSecret  string
	JWTRefreshSecret string

	RateLimitWindow    time.Duration
	RateLimitThreshold int64
	RateLimitRetention time.Duration

	SessionTTL             time.Duration
	AccessTokenTTL         time.Duration
	SessionJanitorInterval time.Duration

	CookieSecure    bool
	ShutdownTimeout time.Duration

	OTELServiceName           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracesEnabled         bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration
	EnableOTelHTTP            bool
}

const minSecretLength = 32

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:    envString("HTTP_ADDR", ":8080"),
		Environment: envString("APP_ENV", "development"),

		DatabaseURL:   envString("DATABASE_URL", ""),
		RedisAddr:     envString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envString("REDIS_PASSWORD", ""),

		JWTIssuer:        envString("JWT_ISSUER", "content-platform"),
		JWTAudience:      envString("JWT_AUDIENCE", "content-platform"),
		JWTAccessSecret:  envString("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret: envString("JWT_REFRESH_SECRET", ""),

		RateLimitWindow:    envSeconds("RATE_LIMIT_WINDOW_SECONDS", 10),
		RateLimitThreshold: envInt64("RATE_LIMIT_THRESHOLD", 5),
		RateLimitRetention: envSeconds("RATE_LIMIT_RETENTION_SECONDS", 20),

		SessionTTL:             envSeconds("SESSION_TTL_SECONDS", 86400),
		AccessTokenTTL:         envSeconds("ACCESS_TOKEN_TTL_SECONDS", 900),
		SessionJanitorInterval: envSeconds("SESSION_JANITOR_INTERVAL_SECONDS", 0),

		CookieSecure:    envBool("COOKIE_SECURE", true),
		ShutdownTimeout: envSeconds("SHUTDOWN_TIMEOUT_SECONDS", 15),

		OTELServiceName:           envString("OTEL_SERVICE_NAME", "content-platform"),
		OTELExporterOTLPEndpoint:  envString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure:  envBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELMetricsEnabled:        envBool("OTEL_METRICS_ENABLED", false),
		OTELTracesEnabled:         envBool("OTEL_TRACES_ENABLED", false),
		OTELLogsEnabled:           envBool("OTEL_LOGS_ENABLED", false),
		OTELMetricsExportInterval: envSeconds("OTEL_METRICS_EXPORT_INTERVAL_SECONDS", 30),
		EnableOTelHTTP:            envBool("OTEL_HTTP_ENABLED", false),
	}

	if err := cfg.Validate(); err != nil {
		recordConfigValidationEvent(context.Background(), cfg.Environment, "failure", classifyConfigLoadError(err))
		return nil, err
	}
	recordConfigValidationEvent(context.Background(), cfg.Environment, "success", "none")
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTAccessSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("validate config: JWT_ACCESS_SECRET must be at least %d bytes", minSecretLength))
	}
	if len(c.JWTRefreshSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("validate config: JWT_REFRESH_SECRET must be at least %d bytes", minSecretLength))
	}
	if c.JWTAccessSecret != "" && c.JWTAccessSecret == c.JWTRefreshSecret {
		errs = append(errs, errors.New("validate config: access and refresh secrets must differ"))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("validate config: RATE_LIMIT_WINDOW_SECONDS must be positive"))
	}
	if c.RateLimitThreshold <= 0 {
		errs = append(errs, errors.New("validate config: RATE_LIMIT_THRESHOLD must be positive"))
	}
	if c.RateLimitRetention < c.RateLimitWindow {
		errs = append(errs, errors.New("validate config: RATE_LIMIT_RETENTION_SECONDS must be >= RATE_LIMIT_WINDOW_SECONDS"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("validate config: SESSION_TTL_SECONDS must be positive"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("validate config: ACCESS_TOKEN_TTL_SECONDS must be positive"))
	}
	if c.AccessTokenTTL > c.SessionTTL {
		errs = append(errs, errors.New("validate config: ACCESS_TOKEN_TTL_SECONDS must not exceed SESSION_TTL_SECONDS"))
	}
	return errors.Join(errs...)
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envSeconds(key string, fallback int64) time.Duration {
	return time.Duration(envInt64(key, fallback)) * time.Second
}

func envBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
