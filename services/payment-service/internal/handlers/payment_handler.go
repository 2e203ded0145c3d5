// payment-service/internal/handlers/payments.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ecomercado-system/services/payment-service/internal/domain"
	"ecomercado-system/services/payment-service/internal/reconciler"
	"ecomercado-system/services/payment-service/internal/repository"
)

const PaymentsQueue = "pagamento"

type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte, persistent bool) error
}

type PaymentHandler struct {
	Repo      domain.PaymentRepository
	Publisher Publisher
}

// HandleSubmit accepts a payment submission and hands it to the queue;
// processing is asynchronous through the reconciler.
func (h *PaymentHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var ev reconciler.PaymentEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil || ev.OrderID == "" {
		writeError(w, http.StatusBadRequest, "Dados de pagamento inválidos.")
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao processar pagamento")
		return
	}

	if err := h.Publisher.Publish(r.Context(), PaymentsQueue, body, true); err != nil {
		log.Printf("publishing payment for order %s failed: %v", ev.OrderID, err)
		writeError(w, http.StatusInternalServerError, "Erro ao processar pagamento")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Pagamento enviado para processamento!",
	})
}

func (h *PaymentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("pedido_id")

	p, err := h.Repo.Get(r.Context(), orderID)
	if errors.Is(err, repository.ErrPaymentNotFound) {
		writeError(w, http.StatusNotFound, "Pagamento não encontrado.")
		return
	}
	if err != nil {
		log.Printf("fetching payment for order %s failed: %v", orderID, err)
		writeError(w, http.StatusInternalServerError, "Erro ao buscar pagamento.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"erro": msg})
}
