package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// 通知分发模式
const (
	NotifyModeInline = "inline"
	NotifyModeAsync  = "async"
)

// 会话存储
const (
	SessionStoreRedis = "redis"
	SessionStoreDB    = "db"
)

// Config 结构体用于存储从环境变量或文件加载的配置
type Config struct {
	DBDriver          string
	DBPath            string
	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	KeyPrefix         string
	JWTSecret         string
	SessionTTLHours   int
	SessionStore      string
	ServerPort        string
	LogLevel          string
	LogFile           string
	AppEnv            string
	RateLimitMax      int
	RateLimitWindow   time.Duration
	NotifyMode        string
	NotifyBatchSize   int
	NotifyMaxAttempts int
	WorkerConcurrency int
	CORSAllowedOrigin string
}

// LoadConfig 从环境变量加载配置，.env 文件存在时先加载它
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDriver:          getenv("DB_DRIVER"),
		DBPath:            getenv("DB_PATH"),
		DBUser:            getenv("DB_USER"),
		DBPassword:        getenv("DB_PASSWORD"),
		DBHost:            getenv("DB_HOST"),
		DBPort:            getenv("DB_PORT"),
		DBName:            getenv("DB_NAME"),
		RedisAddr:         getenv("REDIS_ADDR"),
		RedisPassword:     getenv("REDIS_PASSWORD"),
		KeyPrefix:         getenv("REDIS_KEY_PREFIX"),
		JWTSecret:         getenv("JWT_SECRET"),
		SessionStore:      getenv("SESSION_STORE"),
		ServerPort:        getenv("SERVER_PORT"),
		LogLevel:          getenv("LOG_LEVEL"),
		LogFile:           getenv("LOG_FILE"),
		AppEnv:            getenv("APP_ENV"),
		NotifyMode:        getenv("NOTIFY_MODE"),
		CORSAllowedOrigin: getenv("CORS_ALLOWED_ORIGIN"),
		RateLimitWindow:   1 * time.Second,
	}

	var err error
	if cfg.RedisDB, err = intEnv(getenv, "REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SessionTTLHours, err = intEnv(getenv, "SESSION_TTL_HOURS", 24); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = intEnv(getenv, "RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.NotifyBatchSize, err = intEnv(getenv, "NOTIFY_BATCH_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.NotifyMaxAttempts, err = intEnv(getenv, "NOTIFY_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.WorkerConcurrency, err = intEnv(getenv, "WORKER_CONCURRENCY", 10); err != nil {
		return nil, err
	}

	// --- 默认值 ---
	if cfg.DBDriver == "" {
		cfg.DBDriver = "sqlite"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "blog.db"
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "blog:"
	}
	if cfg.SessionStore == "" {
		cfg.SessionStore = SessionStoreRedis
	}
	if cfg.NotifyMode == "" {
		cfg.NotifyMode = NotifyModeInline
	}

	// --- 校验 ---
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "mysql" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or mysql)", cfg.DBDriver)
	}
	if cfg.SessionStore != SessionStoreRedis && cfg.SessionStore != SessionStoreDB {
		return nil, fmt.Errorf("unsupported SESSION_STORE %q (want redis or db)", cfg.SessionStore)
	}
	if cfg.NotifyMode != NotifyModeInline && cfg.NotifyMode != NotifyModeAsync {
		return nil, fmt.Errorf("unsupported NOTIFY_MODE %q (want inline or async)", cfg.NotifyMode)
	}
	if cfg.RedisAddr == "" && cfg.NeedsRedis() {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set (needed by SESSION_STORE=%s, NOTIFY_MODE=%s, RATE_LIMIT_MAX=%d)",
			cfg.SessionStore, cfg.NotifyMode, cfg.RateLimitMax)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// NeedsRedis reports whether any configured component depends on Redis.
func (c *Config) NeedsRedis() bool {
	return c.SessionStore == SessionStoreRedis || c.NotifyMode == NotifyModeAsync || c.RateLimitMax > 0
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
	}
	return v, nil
}
