package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	DatabaseURL     string
	RabbitMQURL     string
	RedisAddr       string
	CartServiceURL  string
	ConnectAttempts int
	ConnectDelay    time.Duration
	DeliveryDelay   time.Duration
	CacheTTL        time.Duration
	RateLimit       int
	RateWindow      time.Duration
}

func Load() Config {
	return Config{
		Port:            getEnv("PORT", "3000"),
		DatabaseURL:     requireEnv("DATABASE_URL"),
		RabbitMQURL:     requireEnv("RABBITMQ_URL"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		CartServiceURL:  requireEnv("CARRINHO_SERVICE"),
		ConnectAttempts: getEnvAsInt("CONNECT_ATTEMPTS", 10),
		ConnectDelay:    getEnvAsDuration("CONNECT_DELAY", 5*time.Second),
		DeliveryDelay:   getEnvAsDuration("DELIVERY_DELAY", 180*time.Second),
		CacheTTL:        getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 100),
		RateWindow:      getEnvAsDuration("RATE_WINDOW", time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("missing required environment variable %s", key)
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
