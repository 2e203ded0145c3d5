// payment-service/internal/repository/postgres.go
package repository

import (
	"context"
	"database/sql"
	"errors"

	"ecomercado-system/services/payment-service/internal/domain"

	_ "github.com/lib/pq"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PostgresPaymentRepo struct {
	db *sql.DB
}

func NewPostgresPaymentRepo(connStr string) (*PostgresPaymentRepo, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	repo := &PostgresPaymentRepo{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *PostgresPaymentRepo) ensureSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS pagamentos (
			pedido_id VARCHAR(255) PRIMARY KEY,
			status VARCHAR(50) NOT NULL,
			valor NUMERIC(12,2) NOT NULL
		);
	`)
	return err
}

func (r *PostgresPaymentRepo) Upsert(ctx context.Context, p domain.Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pagamentos (pedido_id, status, valor) VALUES ($1, $2, $3)
		ON CONFLICT (pedido_id) DO UPDATE SET status = EXCLUDED.status, valor = EXCLUDED.valor`,
		p.OrderID, p.Status, p.Amount,
	)
	return err
}

func (r *PostgresPaymentRepo) Get(ctx context.Context, orderID string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT pedido_id, status, valor FROM pagamentos WHERE pedido_id = $1`, orderID)

	p := &domain.Payment{}
	err := row.Scan(&p.OrderID, &p.Status, &p.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
