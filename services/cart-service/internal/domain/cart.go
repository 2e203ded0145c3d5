// cart-service/internal/domain/cart.go
package domain

import "context"

type CartItem struct {
	UserID    string `json:"usuario_id"`
	ProductID int    `json:"produto_id"`
	Quantity  int    `json:"quantidade"`
}

type CartRepository interface {
	Add(ctx context.Context, item CartItem) error
	ListByUser(ctx context.Context, userID string) ([]CartItem, error)
	ClearUser(ctx context.Context, userID string) error
}
