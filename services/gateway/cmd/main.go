package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecomercado-system/services/gateway/internal/config"
	"ecomercado-system/services/gateway/internal/gateway"
	"ecomercado-system/services/gateway/internal/proxy"
)

func main() {
	cfg := config.Load()

	breakerCfg := proxy.BreakerConfig{
		Timeout:    cfg.BreakerTimeout,
		Threshold:  cfg.BreakerThreshold,
		Window:     cfg.BreakerWindow,
		ResetDelay: cfg.BreakerReset,
	}

	// One proxy per backend; each owns its breaker state.
	proxies := map[string]*proxy.Proxy{
		"auth":     proxy.New(proxy.Backend{Name: "auth", BaseURL: cfg.AuthURL, DefaultPath: "/auth"}, breakerCfg),
		"produtos": proxy.New(proxy.Backend{Name: "produtos", BaseURL: cfg.ProdutosURL, DefaultPath: "/produtos"}, breakerCfg),
		"carrinho": proxy.New(proxy.Backend{Name: "carrinho", BaseURL: cfg.CarrinhoURL, DefaultPath: "/carrinho"}, breakerCfg),
		"pedidos":  proxy.New(proxy.Backend{Name: "pedidos", BaseURL: cfg.PedidosURL, DefaultPath: "/pedidos"}, breakerCfg),
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: gateway.New(proxies).Router(),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 gateway listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Gateway exited properly")
}
