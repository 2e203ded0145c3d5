// order-service/internal/handlers/orders.go
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ecomercado-system/services/order-service/internal/choreography"
	"ecomercado-system/services/order-service/internal/domain"
)

type OrderHandler struct {
	Repo   domain.OrderRepository
	Engine *choreography.Engine
}

func (h *OrderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("usuario_id")

	orders, err := h.Repo.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("listing orders for user %s failed: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Erro ao buscar pedidos.")
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func (h *OrderHandler) HandlePay(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	err := h.Engine.PayOrder(r.Context(), orderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "Pedido não encontrado.")
		return
	}
	if err != nil {
		log.Printf("payment confirmation for order %s failed: %v", orderID, err)
		writeError(w, http.StatusInternalServerError, "Erro ao processar pagamento")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"mensagem": "Pagamento confirmado! Pedido sairá em 3 minutos.",
	})
}

func (h *OrderHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeError(w, http.StatusBadRequest, "Status obrigatório.")
		return
	}

	err := h.Engine.SetStatus(r.Context(), orderID, body.Status)
	if errors.Is(err, domain.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "Pedido não encontrado.")
		return
	}
	if err != nil {
		log.Printf("status update for order %s failed: %v", orderID, err)
		writeError(w, http.StatusInternalServerError, "Erro ao atualizar status do pedido.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"mensagem": "Status atualizado!"})
}

func (h *OrderHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	err := h.Repo.Delete(r.Context(), orderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "Pedido não encontrado.")
		return
	}
	if err != nil {
		log.Printf("deleting order %s failed: %v", orderID, err)
		writeError(w, http.StatusInternalServerError, "Erro ao excluir pedido.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"erro": msg})
}
