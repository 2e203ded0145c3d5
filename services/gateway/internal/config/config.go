package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             string
	AuthURL          string
	ProdutosURL      string
	CarrinhoURL      string
	PedidosURL       string
	BreakerTimeout   time.Duration
	BreakerThreshold float64
	BreakerReset     time.Duration
	BreakerWindow    time.Duration
}

func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8000"),
		AuthURL:          requireEnv("AUTH_SERVICE"),
		ProdutosURL:      requireEnv("PRODUTOS_SERVICE"),
		CarrinhoURL:      requireEnv("CARRINHO_SERVICE"),
		PedidosURL:       requireEnv("PEDIDOS_SERVICE"),
		BreakerTimeout:   getEnvAsDuration("BREAKER_TIMEOUT", 3*time.Second),
		BreakerThreshold: getEnvAsFloat("BREAKER_THRESHOLD", 50),
		BreakerReset:     getEnvAsDuration("BREAKER_RESET", 10*time.Second),
		BreakerWindow:    getEnvAsDuration("BREAKER_WINDOW", 10*time.Second),
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}
