// cart-service/internal/handlers/cart.go
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"ecomercado-system/services/cart-service/internal/domain"
)

const CartEventsQueue = "carrinho-evento"

type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte, persistent bool) error
}

type CartHandler struct {
	Repo      domain.CartRepository
	Publisher Publisher
}

type cartEvent struct {
	Tipo      string `json:"tipo"`
	UserID    string `json:"usuario_id"`
	ProductID int    `json:"produto_id"`
	Quantity  int    `json:"quantidade"`
}

func (h *CartHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var item domain.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil ||
		item.UserID == "" || item.ProductID == 0 || item.Quantity == 0 {
		writeError(w, http.StatusBadRequest, "Dados incompletos.")
		return
	}

	if err := h.Repo.Add(r.Context(), item); err != nil {
		log.Printf("adding cart item for user %s failed: %v", item.UserID, err)
		writeError(w, http.StatusInternalServerError, "Erro ao adicionar item ao carrinho.")
		return
	}

	// the row is saved either way; a publish failure only delays
	// reconciliation until the next cart change
	body, _ := json.Marshal(cartEvent{
		Tipo:      "CARRINHO_ATUALIZADO",
		UserID:    item.UserID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	})
	if err := h.Publisher.Publish(r.Context(), CartEventsQueue, body, false); err != nil {
		log.Printf("⚠️ cart event for user %s not published: %v", item.UserID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"mensagem": "Item adicionado ao carrinho!"})
}

func (h *CartHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("usuario_id")

	items, err := h.Repo.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("listing cart for user %s failed: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Erro ao buscar carrinho.")
		return
	}
	if items == nil {
		items = []domain.CartItem{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *CartHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("usuario_id")

	if err := h.Repo.ClearUser(r.Context(), userID); err != nil {
		log.Printf("clearing cart for user %s failed: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Erro ao limpar carrinho.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"erro": msg})
}
