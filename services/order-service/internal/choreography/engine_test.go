package choreography

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ecomercado-system/services/order-service/internal/cart"
	"ecomercado-system/services/order-service/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	orders     map[string]*domain.Order
	seq        int
	failDelete bool
	failCreate bool
}

func newMemRepo() *memRepo {
	return &memRepo{orders: map[string]*domain.Order{}}
}

func (r *memRepo) CreateWithItem(ctx context.Context, order *domain.Order, item domain.OrderItem) error {
	if r.failCreate {
		return errors.New("storage failure")
	}
	r.seq++
	order.ID = fmt.Sprintf("ord-%d", r.seq)
	item.OrderID = order.ID
	order.Items = []domain.OrderItem{item}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *memRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) DeletePendingByUser(ctx context.Context, userID string) error {
	if r.failDelete {
		return errors.New("storage failure")
	}
	for id, o := range r.orders {
		if o.UserID == userID && o.Status == domain.StatusPending {
			delete(r.orders, id)
		}
	}
	return nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, id, status string) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (r *memRepo) UpdateStatusIf(ctx context.Context, id, from, to string) error {
	if o, ok := r.orders[id]; ok && o.Status == from {
		o.Status = to
	}
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

type fakeCarts struct {
	items []cart.Item
	err   error
}

func (f *fakeCarts) Snapshot(ctx context.Context, userID string) ([]cart.Item, error) {
	return f.items, f.err
}

func pendingFor(r *memRepo, userID string) []*domain.Order {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID && o.Status == domain.StatusPending {
			out = append(out, o)
		}
	}
	return out
}

func TestReconcileMaterializesOneOrderPerCartLine(t *testing.T) {
	repo := newMemRepo()
	carts := &fakeCarts{items: []cart.Item{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}}
	engine := NewEngine(repo, carts, time.Minute)

	err := engine.Reconcile(context.Background(), CartEvent{Tipo: EventCartUpdated, UserID: "u1"})
	require.NoError(t, err)

	pending := pendingFor(repo, "u1")
	require.Len(t, pending, 2)
	for _, o := range pending {
		assert.Len(t, o.Items, 1, "each order carries exactly one cart line")
	}

	quantities := map[int]int{}
	for _, o := range pending {
		quantities[o.Items[0].ProductID] = o.Items[0].Quantity
	}
	assert.Equal(t, map[int]int{1: 2, 2: 1}, quantities)
}

func TestReconcileSupersedesPriorPendingOrders(t *testing.T) {
	repo := newMemRepo()
	stale := &domain.Order{UserID: "u1", Status: domain.StatusPending}
	require.NoError(t, repo.CreateWithItem(context.Background(), stale, domain.OrderItem{ProductID: 9, Quantity: 9}))

	carts := &fakeCarts{items: []cart.Item{{ProductID: 1, Quantity: 1}}}
	engine := NewEngine(repo, carts, time.Minute)

	err := engine.Reconcile(context.Background(), CartEvent{Tipo: EventCartUpdated, UserID: "u1"})
	require.NoError(t, err)

	pending := pendingFor(repo, "u1")
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Items[0].ProductID)
	_, err = repo.Get(context.Background(), stale.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestReconcileIdempotentUnderRedelivery(t *testing.T) {
	repo := newMemRepo()
	carts := &fakeCarts{items: []cart.Item{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}}
	engine := NewEngine(repo, carts, time.Minute)

	ev := CartEvent{Tipo: EventCartUpdated, UserID: "u1"}
	require.NoError(t, engine.Reconcile(context.Background(), ev))
	require.NoError(t, engine.Reconcile(context.Background(), ev))

	pending := pendingFor(repo, "u1")
	assert.Len(t, pending, 2, "redelivery must not duplicate orders")
}

func TestReconcileLeavesNonPendingOrdersAlone(t *testing.T) {
	repo := newMemRepo()
	paid := &domain.Order{UserID: "u1", Status: domain.StatusPending}
	require.NoError(t, repo.CreateWithItem(context.Background(), paid, domain.OrderItem{ProductID: 5, Quantity: 1}))
	require.NoError(t, repo.UpdateStatus(context.Background(), paid.ID, domain.StatusPaymentConfirmed))

	carts := &fakeCarts{items: nil}
	engine := NewEngine(repo, carts, time.Minute)

	require.NoError(t, engine.Reconcile(context.Background(), CartEvent{Tipo: EventCartUpdated, UserID: "u1"}))

	got, err := repo.Get(context.Background(), paid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentConfirmed, got.Status)
}

func TestReconcileIgnoresOtherEventTypes(t *testing.T) {
	repo := newMemRepo()
	stale := &domain.Order{UserID: "u1", Status: domain.StatusPending}
	require.NoError(t, repo.CreateWithItem(context.Background(), stale, domain.OrderItem{ProductID: 1, Quantity: 1}))

	engine := NewEngine(repo, &fakeCarts{}, time.Minute)
	err := engine.Reconcile(context.Background(), CartEvent{Tipo: "OUTRO_EVENTO", UserID: "u1"})

	require.NoError(t, err)
	assert.Len(t, pendingFor(repo, "u1"), 1, "unrelated events must not touch orders")
}

func TestReconcileAbandonsOnCartFetchFailure(t *testing.T) {
	repo := newMemRepo()
	stale := &domain.Order{UserID: "u1", Status: domain.StatusPending}
	require.NoError(t, repo.CreateWithItem(context.Background(), stale, domain.OrderItem{ProductID: 1, Quantity: 1}))

	carts := &fakeCarts{err: fmt.Errorf("%w: status 500", cart.ErrCartFetch)}
	engine := NewEngine(repo, carts, time.Minute)

	err := engine.Reconcile(context.Background(), CartEvent{Tipo: EventCartUpdated, UserID: "u1"})
	assert.ErrorIs(t, err, cart.ErrCartFetch)

	// the invalidation in step 2 already happened; no new orders were created
	assert.Empty(t, pendingFor(repo, "u1"))
}

func TestPayOrderConfirmsThenDelivers(t *testing.T) {
	repo := newMemRepo()
	order := &domain.Order{UserID: "u1", Status: domain.StatusPending}
	require.NoError(t, repo.CreateWithItem(context.Background(), order, domain.OrderItem{ProductID: 1, Quantity: 1}))

	engine := NewEngine(repo, &fakeCarts{}, time.Minute)
	var deferred func()
	engine.after = func(d time.Duration, f func()) *time.Timer {
		deferred = f
		return nil
	}

	require.NoError(t, engine.PayOrder(context.Background(), order.ID))

	got, _ := repo.Get(context.Background(), order.ID)
	assert.Equal(t, domain.StatusPaymentConfirmed, got.Status, "confirmation is immediate")

	require.NotNil(t, deferred)
	deferred()

	got, _ = repo.Get(context.Background(), order.ID)
	assert.Equal(t, domain.StatusOutForDelivery, got.Status)
}

func TestDeferredDeliveryNoopWhenOrderDeleted(t *testing.T) {
	repo := newMemRepo()
	order := &domain.Order{UserID: "u1", Status: domain.StatusPending}
	require.NoError(t, repo.CreateWithItem(context.Background(), order, domain.OrderItem{ProductID: 1, Quantity: 1}))

	engine := NewEngine(repo, &fakeCarts{}, time.Minute)
	var deferred func()
	engine.after = func(d time.Duration, f func()) *time.Timer {
		deferred = f
		return nil
	}

	require.NoError(t, engine.PayOrder(context.Background(), order.ID))
	require.NoError(t, repo.Delete(context.Background(), order.ID))

	deferred() // must not panic or resurrect the order

	_, err := repo.Get(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestDeferredDeliveryNoopWhenStatusReassigned(t *testing.T) {
	repo := newMemRepo()
	order := &domain.Order{UserID: "u1", Status: domain.StatusPending}
	require.NoError(t, repo.CreateWithItem(context.Background(), order, domain.OrderItem{ProductID: 1, Quantity: 1}))

	engine := NewEngine(repo, &fakeCarts{}, time.Minute)
	var deferred func()
	engine.after = func(d time.Duration, f func()) *time.Timer {
		deferred = f
		return nil
	}

	require.NoError(t, engine.PayOrder(context.Background(), order.ID))
	require.NoError(t, engine.SetStatus(context.Background(), order.ID, "cancelado"))

	deferred()

	got, _ := repo.Get(context.Background(), order.ID)
	assert.Equal(t, "cancelado", got.Status, "manual override wins over the timer")
}

func TestPayOrderNotFound(t *testing.T) {
	engine := NewEngine(newMemRepo(), &fakeCarts{}, time.Minute)
	err := engine.PayOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestSetStatusNotFound(t *testing.T) {
	engine := NewEngine(newMemRepo(), &fakeCarts{}, time.Minute)
	err := engine.SetStatus(context.Background(), "missing", "qualquer")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func delivery(ack *fakeAcknowledger, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(body)}
}

func TestHandleDeliveryAcksProcessedEvent(t *testing.T) {
	repo := newMemRepo()
	engine := NewEngine(repo, &fakeCarts{items: []cart.Item{{ProductID: 1, Quantity: 1}}}, time.Minute)

	ack := &fakeAcknowledger{}
	engine.HandleDelivery(delivery(ack, `{"tipo":"CARRINHO_ATUALIZADO","usuario_id":"u1","produto_id":1,"quantidade":1}`))

	assert.True(t, ack.acked)
	assert.Len(t, pendingFor(repo, "u1"), 1)
}

func TestHandleDeliveryAcksAbandonedEvent(t *testing.T) {
	engine := NewEngine(newMemRepo(), &fakeCarts{err: cart.ErrCartFetch}, time.Minute)

	ack := &fakeAcknowledger{}
	engine.HandleDelivery(delivery(ack, `{"tipo":"CARRINHO_ATUALIZADO","usuario_id":"u1"}`))

	assert.True(t, ack.acked, "a failed fetch must not block the queue")
	assert.False(t, ack.nacked)
}

func TestHandleDeliveryNacksOnStorageFailure(t *testing.T) {
	repo := newMemRepo()
	repo.failDelete = true
	engine := NewEngine(repo, &fakeCarts{}, time.Minute)

	ack := &fakeAcknowledger{}
	engine.HandleDelivery(delivery(ack, `{"tipo":"CARRINHO_ATUALIZADO","usuario_id":"u1"}`))

	assert.True(t, ack.nacked, "the invalidation must stay on the queue")
	assert.True(t, ack.requeued)
}

func TestHandleDeliveryAcksMalformedEvent(t *testing.T) {
	engine := NewEngine(newMemRepo(), &fakeCarts{}, time.Minute)

	ack := &fakeAcknowledger{}
	engine.HandleDelivery(delivery(ack, `not json`))

	assert.True(t, ack.acked, "poison messages are discarded, not requeued")
}
