// order-service/internal/repository/postgres.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ecomercado-system/services/order-service/internal/domain"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type PostgresOrderRepo struct {
	db *sql.DB
}

func NewPostgresOrderRepo(connStr string) (*PostgresOrderRepo, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	repo := &PostgresOrderRepo{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *PostgresOrderRepo) ensureSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS pedidos (
			id UUID PRIMARY KEY,
			usuario_id VARCHAR(255) NOT NULL,
			status VARCHAR(50) NOT NULL,
			data_pedido TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS pedido_itens (
			pedido_id UUID REFERENCES pedidos(id) ON DELETE CASCADE,
			produto_id INT NOT NULL,
			quantidade INT NOT NULL
		);
	`)
	return err
}

func (r *PostgresOrderRepo) CreateWithItem(ctx context.Context, order *domain.Order, item domain.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	order.ID = uuid.New().String()
	if order.OrderedAt.IsZero() {
		order.OrderedAt = time.Now()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pedidos (id, usuario_id, status, data_pedido) VALUES ($1, $2, $3, $4)`,
		order.ID, order.UserID, order.Status, order.OrderedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pedido_itens (pedido_id, produto_id, quantidade) VALUES ($1, $2, $3)`,
		order.ID, item.ProductID, item.Quantity,
	)
	if err != nil {
		return err
	}

	item.OrderID = order.ID
	order.Items = []domain.OrderItem{item}
	return tx.Commit()
}

func (r *PostgresOrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, usuario_id, status, data_pedido FROM pedidos WHERE id = $1`, id)

	order := &domain.Order{}
	err := row.Scan(&order.ID, &order.UserID, &order.Status, &order.OrderedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	order.Items, err = r.itemsFor(ctx, order.ID)
	return order, err
}

func (r *PostgresOrderRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, usuario_id, status, data_pedido FROM pedidos WHERE usuario_id = $1 ORDER BY data_pedido`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o := &domain.Order{}
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.OrderedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		if o.Items, err = r.itemsFor(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *PostgresOrderRepo) itemsFor(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT pedido_id, produto_id, quantidade FROM pedido_itens WHERE pedido_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeletePendingByUser discards every pending order for the user; items go
// with them through the cascade.
func (r *PostgresOrderRepo) DeletePendingByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM pedidos WHERE usuario_id = $1 AND status = $2`,
		userID, domain.StatusPending)
	return err
}

func (r *PostgresOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE pedidos SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *PostgresOrderRepo) UpdateStatusIf(ctx context.Context, id, from, to string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pedidos SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	return err
}

func (r *PostgresOrderRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pedidos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
