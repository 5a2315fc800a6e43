package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	ServiceName    string
	// AdminToken authenticates management API callers via the X-Admin-Token
	// header. Compared in constant time.
	AdminToken string
	// DispatchQueueSize is the capacity of the webhook event queue. Events
	// published while the queue is full are dropped with a warning.
	DispatchQueueSize int
	// DispatchMaxInflight bounds the number of concurrent outbound webhook
	// deliveries across all events.
	DispatchMaxInflight int
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		HTTPListenAddr:      getEnv("HTTP_LISTEN_ADDR", ":8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		ServiceName:         getEnv("SERVICE_NAME", "api-control"),
		AdminToken:          getEnv("ADMIN_TOKEN", ""),
		DispatchQueueSize:   getEnvInt("DISPATCH_QUEUE_SIZE", 1024),
		DispatchMaxInflight: getEnvInt("DISPATCH_MAX_INFLIGHT", 64),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.AdminToken == "" {
		missing = append(missing, "ADMIN_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.DispatchQueueSize <= 0 {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE must be positive")
	}
	if c.DispatchMaxInflight <= 0 {
		return fmt.Errorf("DISPATCH_MAX_INFLIGHT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
