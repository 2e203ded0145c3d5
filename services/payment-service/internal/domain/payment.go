// payment-service/internal/domain/payment.go
package domain

import "context"

// Payment is the per-order payment record, keyed unique by order id. Events
// for the same order update it in place, never duplicate it.
type Payment struct {
	OrderID string  `json:"pedidoId"`
	Status  string  `json:"status"`
	Amount  float64 `json:"valor"`
}

type PaymentRepository interface {
	// Upsert inserts on first sight of the order id and overwrites status
	// and amount afterwards. Replaying the same event is a no-op beyond
	// rewriting identical values.
	Upsert(ctx context.Context, p Payment) error
	Get(ctx context.Context, orderID string) (*Payment, error)
}
