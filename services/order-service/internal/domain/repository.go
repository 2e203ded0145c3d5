package domain

import "context"

type OrderRepository interface {
	// CreateWithItem inserts the order and its single item atomically,
	// assigning a fresh id to order.ID.
	CreateWithItem(ctx context.Context, order *Order, item OrderItem) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	DeletePendingByUser(ctx context.Context, userID string) error
	UpdateStatus(ctx context.Context, id, status string) error
	// UpdateStatusIf moves the order from one status to another and is a
	// no-op when the order is gone or no longer in the from status.
	UpdateStatusIf(ctx context.Context, id, from, to string) error
	Delete(ctx context.Context, id string) error
}
