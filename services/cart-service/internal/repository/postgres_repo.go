// cart-service/internal/repository/postgres.go
package repository

import (
	"context"
	"database/sql"

	"ecomercado-system/services/cart-service/internal/domain"

	_ "github.com/lib/pq"
)

type PostgresCartRepo struct {
	db *sql.DB
}

func NewPostgresCartRepo(connStr string) (*PostgresCartRepo, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	repo := &PostgresCartRepo{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *PostgresCartRepo) ensureSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS carrinhos (
			id SERIAL PRIMARY KEY,
			usuario_id VARCHAR(255) NOT NULL,
			produto_id INT NOT NULL,
			quantidade INT NOT NULL
		);
	`)
	return err
}

func (r *PostgresCartRepo) Add(ctx context.Context, item domain.CartItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO carrinhos (usuario_id, produto_id, quantidade) VALUES ($1, $2, $3)`,
		item.UserID, item.ProductID, item.Quantity,
	)
	return err
}

func (r *PostgresCartRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT usuario_id, produto_id, quantidade FROM carrinhos WHERE usuario_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.UserID, &it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresCartRepo) ClearUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carrinhos WHERE usuario_id = $1`, userID)
	return err
}
