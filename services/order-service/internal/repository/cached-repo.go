package repository

import (
	"context"
	"encoding/json"
	"time"

	"ecomercado-system/services/order-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Cache is the slice of redis used by the cached repository. *redis.Client
// satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedOrderRepository caches a user's order list in redis and invalidates
// it on every mutation. Id-keyed mutations look the owner up first so the
// right user's entry gets dropped.
type CachedOrderRepository struct {
	primaryRepo domain.OrderRepository
	redisClient Cache
	ttl         time.Duration
}

func NewCachedOrderRepository(
	primary domain.OrderRepository,
	redisClient Cache,
	cacheTTL time.Duration,
) *CachedOrderRepository {
	return &CachedOrderRepository{
		primaryRepo: primary,
		redisClient: redisClient,
		ttl:         cacheTTL,
	}
}

func listKey(userID string) string {
	return "pedidos:" + userID
}

func (r *CachedOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	cached, err := r.redisClient.Get(ctx, listKey(userID)).Bytes()
	if err == nil {
		var orders []*domain.Order
		if err := json.Unmarshal(cached, &orders); err == nil {
			return orders, nil
		}
	}

	orders, err := r.primaryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(orders); err == nil {
		r.redisClient.Set(ctx, listKey(userID), data, r.ttl)
	}
	return orders, nil
}

func (r *CachedOrderRepository) CreateWithItem(ctx context.Context, order *domain.Order, item domain.OrderItem) error {
	defer r.redisClient.Del(ctx, listKey(order.UserID))
	return r.primaryRepo.CreateWithItem(ctx, order, item)
}

func (r *CachedOrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	return r.primaryRepo.Get(ctx, id)
}

func (r *CachedOrderRepository) DeletePendingByUser(ctx context.Context, userID string) error {
	defer r.redisClient.Del(ctx, listKey(userID))
	return r.primaryRepo.DeletePendingByUser(ctx, userID)
}

func (r *CachedOrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if owner, ok := r.ownerOf(ctx, id); ok {
		defer r.redisClient.Del(ctx, listKey(owner))
	}
	return r.primaryRepo.UpdateStatus(ctx, id, status)
}

func (r *CachedOrderRepository) UpdateStatusIf(ctx context.Context, id, from, to string) error {
	if owner, ok := r.ownerOf(ctx, id); ok {
		defer r.redisClient.Del(ctx, listKey(owner))
	}
	return r.primaryRepo.UpdateStatusIf(ctx, id, from, to)
}

func (r *CachedOrderRepository) Delete(ctx context.Context, id string) error {
	if owner, ok := r.ownerOf(ctx, id); ok {
		defer r.redisClient.Del(ctx, listKey(owner))
	}
	return r.primaryRepo.Delete(ctx, id)
}

// ownerOf resolves the order's user before an id-keyed mutation. The list
// key itself is only dropped after the primary write lands; dropping it
// earlier lets a concurrent list re-cache the stale snapshot for the TTL.
func (r *CachedOrderRepository) ownerOf(ctx context.Context, id string) (string, bool) {
	order, err := r.primaryRepo.Get(ctx, id)
	if err != nil {
		return "", false
	}
	return order.UserID, true
}
