package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string // mysql | sqlite
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Host string
		Port string
	}

	Gateway struct {
		KeepAlive    time.Duration
		WriteTimeout time.Duration
	}

	Stats struct {
		APIURL           string
		APIKey           string
		APIKeyFile       string
		CacheBytes       int64
		CacheTTL         time.Duration
		LowWatermark     int64
		ReserveThreshold int64
		UpstreamTimeout  time.Duration
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "presence_gateway")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.Driver == "sqlite" {
		cfg.DB.DSN = getEnvDefault("SQLITE_PATH", "presence.db")
	} else if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "presence")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// HTTP (gateway websocket + metrics)
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8000")

	// Gateway
	cfg.Gateway.KeepAlive = getDurationDefault("GATEWAY_KEEPALIVE", 10*time.Second)
	cfg.Gateway.WriteTimeout = getDurationDefault("GATEWAY_WRITE_TIMEOUT", 5*time.Second)

	// Stats proxy
	cfg.Stats.APIURL = getEnvDefault("STATS_API_URL", "https://api.hypixel.net/v2")
	cfg.Stats.APIKey = getEnvDefault("STATS_API_KEY", "")
	cfg.Stats.APIKeyFile = getEnvDefault("STATS_API_KEY_FILE", "")
	cfg.Stats.CacheBytes = getInt64Default("STATS_CACHE_BYTES", 1<<30)
	cfg.Stats.CacheTTL = getDurationDefault("STATS_CACHE_TTL", 48*time.Hour)
	cfg.Stats.LowWatermark = getInt64Default("STATS_LOW_WATERMARK", 2)
	cfg.Stats.ReserveThreshold = getInt64Default("STATS_RESERVE_THRESHOLD", 2)
	cfg.Stats.UpstreamTimeout = getDurationDefault("STATS_UPSTREAM_TIMEOUT", 10*time.Second)

	return cfg
}

// StatsAPIKey returns the configured upstream key, reading STATS_API_KEY_FILE
// when no inline key is set.
func (c *Config) StatsAPIKey() (string, error) {
	if c.Stats.APIKey != "" {
		return c.Stats.APIKey, nil
	}
	if c.Stats.APIKeyFile == "" {
		return "", nil
	}
	b, err := os.ReadFile(c.Stats.APIKeyFile)
	if err != nil {
		return "", fmt.Errorf("read stats api key file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDurationDefault(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil && d > 0 {
		return d
	}
	return def
}

func getInt64Default(k string, def int64) int64 {
	if n, err := strconv.ParseInt(getEnvDefault(k, ""), 10, 64); err == nil {
		return n
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
