package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecomercado-system/services/order-service/internal/cart"
	"ecomercado-system/services/order-service/internal/choreography"
	"ecomercado-system/services/order-service/internal/config"
	"ecomercado-system/services/order-service/internal/handlers"
	"ecomercado-system/services/order-service/internal/middleware"
	"ecomercado-system/services/order-service/internal/repository"
	"ecomercado-system/shared/rabbitmq"

	"github.com/redis/go-redis/v9"
)

const cartEventsQueue = "carrinho-evento"

func main() {
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	pgRepo, err := repository.NewPostgresOrderRepo(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	cachedRepo := repository.NewCachedOrderRepository(pgRepo, rdb, cfg.CacheTTL)

	// messaging is required for correctness here: no channel, no service
	broker, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.ConnectAttempts, cfg.ConnectDelay)
	if err != nil {
		log.Fatalf("🛑 %v", err)
	}
	if err := broker.DeclareQueue(cartEventsQueue, true); err != nil {
		log.Fatalf("failed to declare queue %s: %v", cartEventsQueue, err)
	}

	cartClient := cart.NewClient(cfg.CartServiceURL, 3*time.Second)
	engine := choreography.NewEngine(cachedRepo, cartClient, cfg.DeliveryDelay)

	if err := broker.Subscribe(cartEventsQueue, engine.HandleDelivery, true); err != nil {
		log.Fatalf("failed to subscribe to %s: %v", cartEventsQueue, err)
	}

	orderHandler := &handlers.OrderHandler{Repo: cachedRepo, Engine: engine}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: middleware.RateLimit(rdb, cfg.RateLimit, cfg.RateWindow)(setupRoutes(orderHandler)),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 order service listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	select {
	case <-quit:
		log.Println("Shutting down order service...")
	case err := <-broker.Closed():
		// mid-life channel loss: exit and let the supervisor restart us
		// through the connection-retry path
		log.Printf("🛑 %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer broker.Close()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Order service exited properly")
}

func setupRoutes(oh *handlers.OrderHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pedidos/{usuario_id}", oh.HandleList)
	mux.HandleFunc("POST /pedidos/{id}/pagar", oh.HandlePay)
	mux.HandleFunc("PUT /pedidos/{id}/status", oh.HandleSetStatus)
	mux.HandleFunc("DELETE /pedidos/{id}", oh.HandleDelete)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}
