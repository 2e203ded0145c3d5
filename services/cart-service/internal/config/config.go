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
	ConnectAttempts int
	ConnectDelay    time.Duration
}

func Load() Config {
	return Config{
		Port:            getEnv("PORT", "3000"),
		DatabaseURL:     requireEnv("DATABASE_URL"),
		RabbitMQURL:     requireEnv("RABBITMQ_URL"),
		ConnectAttempts: getEnvAsInt("CONNECT_ATTEMPTS", 10),
		ConnectDelay:    getEnvAsDuration("CONNECT_DELAY", 5*time.Second),
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
