package choreography

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"ecomercado-system/services/order-service/internal/cart"
	"ecomercado-system/services/order-service/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

const EventCartUpdated = "CARRINHO_ATUALIZADO"

// CartEvent is the broker message published by the cart service.
type CartEvent struct {
	Tipo      string `json:"tipo"`
	UserID    string `json:"usuario_id"`
	ProductID int    `json:"produto_id"`
	Quantity  int    `json:"quantidade"`
}

type CartFetcher interface {
	Snapshot(ctx context.Context, userID string) ([]cart.Item, error)
}

// Engine reacts to cart-change events and drives orders through their
// lifecycle: pendente -> pagamento efetuado -> saiu para entrega.
type Engine struct {
	repo          domain.OrderRepository
	carts         CartFetcher
	deliveryDelay time.Duration

	// after schedules the deferred delivery transition; swapped in tests.
	after func(time.Duration, func()) *time.Timer
}

func NewEngine(repo domain.OrderRepository, carts CartFetcher, deliveryDelay time.Duration) *Engine {
	if deliveryDelay <= 0 {
		deliveryDelay = 180 * time.Second
	}
	return &Engine{
		repo:          repo,
		carts:         carts,
		deliveryDelay: deliveryDelay,
		after:         time.AfterFunc,
	}
}

// HandleDelivery is the broker subscription handler. Acknowledgment rules:
// a processed or abandoned event is acked; a storage failure leaves the
// event nacked with requeue so the invalidation is never lost.
func (e *Engine) HandleDelivery(d amqp.Delivery) {
	ctx := context.Background()

	var ev CartEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.Printf("discarding malformed cart event: %v", err)
		d.Ack(false)
		return
	}

	err := e.Reconcile(ctx, ev)
	switch {
	case err == nil:
		d.Ack(false)
	case errors.Is(err, cart.ErrCartFetch):
		// abandoned: the next cart event retries; a failed fetch must not
		// block the queue
		log.Printf("abandoning reconciliation for user %s: %v", ev.UserID, err)
		d.Ack(false)
	default:
		log.Printf("reconciliation failed for user %s, leaving event for redelivery: %v", ev.UserID, err)
		d.Nack(false, true)
	}
}

// Reconcile replaces the user's pending orders with the current cart
// contents: one new pending order per cart line, each carrying one item.
// Redelivery is safe: a second run deletes the first run's pending orders
// and recreates an equivalent set.
func (e *Engine) Reconcile(ctx context.Context, ev CartEvent) error {
	if ev.Tipo != EventCartUpdated {
		log.Printf("ignoring event of type %q", ev.Tipo)
		return nil
	}

	if err := e.repo.DeletePendingByUser(ctx, ev.UserID); err != nil {
		return err
	}

	items, err := e.carts.Snapshot(ctx, ev.UserID)
	if err != nil {
		return err
	}

	for _, item := range items {
		order := &domain.Order{
			UserID: ev.UserID,
			Status: domain.StatusPending,
		}
		err := e.repo.CreateWithItem(ctx, order, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
		if err != nil {
			return err
		}
	}

	log.Printf("materialized %d pending order(s) for user %s", len(items), ev.UserID)
	return nil
}

// PayOrder confirms payment and schedules the best-effort delivery
// transition. The timer is in-memory only: a restart before it fires leaves
// the order at pagamento efetuado.
func (e *Engine) PayOrder(ctx context.Context, orderID string) error {
	if _, err := e.repo.Get(ctx, orderID); err != nil {
		return err
	}
	if err := e.repo.UpdateStatus(ctx, orderID, domain.StatusPaymentConfirmed); err != nil {
		return err
	}

	e.after(e.deliveryDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// no-op when the order was deleted or manually reassigned meanwhile
		if err := e.repo.UpdateStatusIf(ctx, orderID,
			domain.StatusPaymentConfirmed, domain.StatusOutForDelivery); err != nil {
			log.Printf("delivery transition for order %s failed: %v", orderID, err)
		}
	})
	return nil
}

// SetStatus is the manual override path: unconditional overwrite.
func (e *Engine) SetStatus(ctx context.Context, orderID, status string) error {
	return e.repo.UpdateStatus(ctx, orderID, status)
}
