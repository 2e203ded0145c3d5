package reconciler

import (
	"context"
	"encoding/json"
	"log"

	"ecomercado-system/services/payment-service/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PaymentEvent is the broker message on the pagamento queue.
type PaymentEvent struct {
	OrderID string  `json:"pedidoId"`
	Amount  float64 `json:"valor"`
	Status  string  `json:"status"`
}

// Reconciler consumes payment events at-least-once and applies them
// idempotently: the upsert makes redelivery harmless.
type Reconciler struct {
	repo domain.PaymentRepository
}

func New(repo domain.PaymentRepository) *Reconciler {
	return &Reconciler{repo: repo}
}

// HandleDelivery acknowledges only after the upsert succeeded; a storage
// failure leaves the message for the broker's redelivery.
func (r *Reconciler) HandleDelivery(d amqp.Delivery) {
	ctx := context.Background()

	var ev PaymentEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.Printf("discarding malformed payment event: %v", err)
		d.Ack(false)
		return
	}

	log.Printf("processing payment for order %s: R$%.2f (%s)", ev.OrderID, ev.Amount, ev.Status)

	err := r.repo.Upsert(ctx, domain.Payment{
		OrderID: ev.OrderID,
		Status:  ev.Status,
		Amount:  ev.Amount,
	})
	if err != nil {
		log.Printf("saving payment for order %s failed, leaving event for redelivery: %v", ev.OrderID, err)
		d.Nack(false, true)
		return
	}

	d.Ack(false)
}
