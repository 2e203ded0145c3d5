package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecomercado-system/services/cart-service/internal/config"
	"ecomercado-system/services/cart-service/internal/handlers"
	"ecomercado-system/services/cart-service/internal/repository"
	"ecomercado-system/shared/rabbitmq"
)

func main() {
	cfg := config.Load()

	repo, err := repository.NewPostgresCartRepo(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	broker, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.ConnectAttempts, cfg.ConnectDelay)
	if err != nil {
		log.Fatalf("🛑 %v", err)
	}
	if err := broker.DeclareQueue(handlers.CartEventsQueue, true); err != nil {
		log.Fatalf("failed to declare queue %s: %v", handlers.CartEventsQueue, err)
	}

	cartHandler := &handlers.CartHandler{Repo: repo, Publisher: broker}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: setupRoutes(cartHandler),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 cart service listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	select {
	case <-quit:
		log.Println("Shutting down cart service...")
	case err := <-broker.Closed():
		log.Printf("🛑 %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer broker.Close()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Cart service exited properly")
}

func setupRoutes(ch *handlers.CartHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /carrinho", ch.HandleAdd)
	mux.HandleFunc("GET /carrinho/{usuario_id}", ch.HandleList)
	mux.HandleFunc("DELETE /carrinho/{usuario_id}", ch.HandleClear)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}
