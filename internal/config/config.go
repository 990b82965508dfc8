package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Transport TransportConfig
	Bot       BotConfig
	Redis     RedisConfig
	Cooldown  CooldownConfig
	Logging   LoggingConfig
}

type TransportConfig struct {
	WSURL                string
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
}

type BotConfig struct {
	Prefix        string
	Scope         string
	Help          bool
	PairingNumber string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CooldownConfig struct {
	Enabled bool
	Window  time.Duration
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Transport: TransportConfig{
			WSURL:                getEnv("TRANSPORT_WS_URL", "ws://localhost:3000/ws"),
			MaxReconnectAttempts: getEnvInt("TRANSPORT_MAX_RECONNECT_ATTEMPTS", 10),
			ReconnectDelay:       time.Duration(getEnvInt("TRANSPORT_RECONNECT_DELAY_SECONDS", 5)) * time.Second,
		},
		Bot: BotConfig{
			Prefix:        getEnv("BOT_PREFIX", "!"),
			Scope:         getEnv("BOT_SCOPE", "local"),
			Help:          getEnvBool("BOT_HELP", true),
			PairingNumber: getEnv("BOT_PAIRING_NUMBER", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Cooldown: CooldownConfig{
			Enabled: getEnvBool("COOLDOWN_ENABLED", false),
			Window:  time.Duration(getEnvInt("COOLDOWN_WINDOW_SECONDS", 2)) * time.Second,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Transport.WSURL == "" {
		return fmt.Errorf("TRANSPORT_WS_URL is required")
	}
	switch c.Bot.Scope {
	case "local", "scoped", "global":
	default:
		return fmt.Errorf("BOT_SCOPE must be local, scoped or global")
	}
	if c.Cooldown.Enabled && c.Cooldown.Window <= 0 {
		return fmt.Errorf("COOLDOWN_WINDOW_SECONDS must be positive")
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
