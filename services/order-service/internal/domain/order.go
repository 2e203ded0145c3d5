// order-service/internal/domain/order.go
package domain

import (
	"errors"
	"time"
)

// Wire values kept from the rest of the system; manual status updates may
// set arbitrary strings beyond these.
const (
	StatusPending          = "pendente"
	StatusPaymentConfirmed = "pagamento efetuado"
	StatusOutForDelivery   = "saiu para entrega"
)

var ErrOrderNotFound = errors.New("order not found")

// Order is one materialized cart line: the choreography engine creates one
// order per line, each with exactly one item.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"usuario_id"`
	Status    string      `json:"status"`
	OrderedAt time.Time   `json:"data_pedido"`
	Items     []OrderItem `json:"itens"`
}

// OrderItem is owned by its order and deleted with it (cascade).
type OrderItem struct {
	OrderID   string `json:"-"`
	ProductID int    `json:"produto_id"`
	Quantity  int    `json:"quantidade"`
}
