package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // 容器内可能没有系统时区库

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Port      string `yaml:"port"`
	DBPath    string `yaml:"db_path"`
	JWTSecret string `yaml:"jwt_secret"`
	LogLevel  string `yaml:"log_level"`
	Timezone  string `yaml:"timezone"`

	// 缓存: memory, redis, none
	CacheBackend string        `yaml:"cache_backend"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	RedisAddr    string        `yaml:"redis_addr"`

	// 每日重算任务在几点运行（本地时区）
	NightlyJobHour    int           `yaml:"nightly_job_hour"`
	BackgroundTimeout time.Duration `yaml:"background_timeout"`

	// 限流
	RateLimit       int           `yaml:"rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
}

// Defaults 默认配置
func Defaults() *Config {
	return &Config{
		Port:              ":8080",
		DBPath:            "./data/quota/quota.db",
		JWTSecret:         "your-secret-key-change-in-production",
		LogLevel:          "info",
		Timezone:          "Local",
		CacheBackend:      "memory",
		CacheTTL:          60 * time.Second,
		RedisAddr:         "localhost:6379",
		NightlyJobHour:    0,
		BackgroundTimeout: 30 * time.Second,
		RateLimit:         120,
		RateLimitWindow:   time.Minute,
	}
}

// Load 加载配置: .env -> CONFIG_FILE (yaml) -> 环境变量
func Load() (*Config, error) {
	// .env 文件是可选的
	_ = godotenv.Load()

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if cfg.NightlyJobHour < 0 || cfg.NightlyJobHour > 23 {
		return nil, fmt.Errorf("nightly job hour out of range: %d", cfg.NightlyJobHour)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Timezone, "TIMEZONE")
	setString(&c.CacheBackend, "CACHE_BACKEND")
	setString(&c.RedisAddr, "REDIS_ADDR")

	if err := setDuration(&c.CacheTTL, "CACHE_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.BackgroundTimeout, "BACKGROUND_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.RateLimitWindow, "RATE_LIMIT_WINDOW"); err != nil {
		return err
	}
	if err := setInt(&c.NightlyJobHour, "NIGHTLY_JOB_HOUR"); err != nil {
		return err
	}
	return setInt(&c.RateLimit, "RATE_LIMIT")
}

// Location 返回业务日期使用的时区
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
