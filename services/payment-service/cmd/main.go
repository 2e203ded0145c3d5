package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecomercado-system/services/payment-service/internal/config"
	"ecomercado-system/services/payment-service/internal/handlers"
	"ecomercado-system/services/payment-service/internal/reconciler"
	"ecomercado-system/services/payment-service/internal/repository"
	"ecomercado-system/shared/rabbitmq"
)

func main() {
	cfg := config.Load()

	repo, err := repository.NewPostgresPaymentRepo(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	broker, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.ConnectAttempts, cfg.ConnectDelay)
	if err != nil {
		log.Fatalf("🛑 %v", err)
	}
	if err := broker.DeclareQueue(handlers.PaymentsQueue, true); err != nil {
		log.Fatalf("failed to declare queue %s: %v", handlers.PaymentsQueue, err)
	}

	rec := reconciler.New(repo)
	if err := broker.Subscribe(handlers.PaymentsQueue, rec.HandleDelivery, true); err != nil {
		log.Fatalf("failed to subscribe to %s: %v", handlers.PaymentsQueue, err)
	}
	log.Printf("waiting for messages on queue %s", handlers.PaymentsQueue)

	paymentHandler := &handlers.PaymentHandler{Repo: repo, Publisher: broker}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: setupRoutes(paymentHandler),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 payment service listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	select {
	case <-quit:
		log.Println("Shutting down payment service...")
	case err := <-broker.Closed():
		// unacked events survive on the broker; exit and reconnect on boot
		log.Printf("🛑 %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer broker.Close()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Payment service exited properly")
}

func setupRoutes(ph *handlers.PaymentHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/pagamento", ph.HandleSubmit)
	mux.HandleFunc("GET /pagamentos/{pedido_id}", ph.HandleGet)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"online"}`))
	})

	return mux
}
