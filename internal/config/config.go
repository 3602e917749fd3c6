package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	DB          DBConfig
	Redis       RedisConfig
	NodesDir    string
	HTTPAddr    string
	LogLevel    string
	CacheTTLSec int
}

// DBConfig holds database configuration
type DBConfig struct {
	Driver string // "sqlite" or "mysql"
	DSN    string // file path for sqlite, DSN for mysql
}

// RedisConfig holds Redis configuration. An empty Addr disables the
// read-side cache entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DB: DBConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "registry.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		NodesDir:    getEnv("NODES_DIR", "assets/nodes"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8002"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CacheTTLSec: getEnvInt("CACHE_TTL_SEC", 30),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Helper function: get value with priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	cfg := &Config{
		DB: DBConfig{
			Driver: getValue("DB_DRIVER", "db", "driver", "sqlite"),
			DSN:    getValue("DB_DSN", "db", "dsn", "registry.db"),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", ""),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		NodesDir:    getValue("NODES_DIR", "nodes", "dir", "assets/nodes"),
		HTTPAddr:    getValue("HTTP_ADDR", "http", "addr", ":8002"),
		LogLevel:    getValue("LOG_LEVEL", "log", "level", "info"),
		CacheTTLSec: getValueInt("CACHE_TTL_SEC", "cache", "ttl_sec", 30),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.DB.Driver != "sqlite" && cfg.DB.Driver != "mysql" {
		return fmt.Errorf("DB_DRIVER must be sqlite or mysql, got %q", cfg.DB.Driver)
	}
	if cfg.NodesDir == "" {
		return fmt.Errorf("NODES_DIR is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
