package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return nil, err
	}
	billing, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return nil, err
	}
	shipping, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, err
	}

	o.ID = uuid.NewString()
	err = db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		const orderQ = `
INSERT INTO orders (id, user_id, session_id, email, phone, total_price, financial_status, gateway,
                    customer, billing_address, shipping_address, note)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING created_at, updated_at
`
		if err := tx.QueryRow(ctx, orderQ, o.ID, o.UserID, o.SessionID, o.Email, o.Phone, o.TotalPrice,
			o.FinancialStatus, o.Gateway, customer, billing, shipping, o.Note,
		).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		const itemQ = `
INSERT INTO order_items (id, order_id, cart_line_id, variant_id, product_id, title, product_title,
                         option1, option2, quantity, price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
		batch := &pgx.Batch{}
		for i := range o.Items {
			it := &o.Items[i]
			it.ID = uuid.NewString()
			it.OrderID = o.ID
			var lineID *string
			if it.CartLineID != "" {
				lineID = &it.CartLineID
			}
			batch.Queue(itemQ, it.ID, it.OrderID, lineID, it.VariantID, it.ProductID, it.Title,
				it.ProductTitle, it.Option1, it.Option2, it.Quantity, it.Price)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `
SELECT id::text, user_id, session_id, email, phone, total_price, financial_status, gateway,
       customer, billing_address, shipping_address, note, created_at, updated_at
FROM orders
WHERE id = $1
`
	var (
		o                           domain.Order
		customer, billing, shipping []byte
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(&o.ID, &o.UserID, &o.SessionID, &o.Email, &o.Phone, &o.TotalPrice,
		&o.FinancialStatus, &o.Gateway, &customer, &billing, &shipping, &o.Note, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	for _, f := range []struct {
		raw []byte
		dst any
	}{{customer, &o.Customer}, {billing, &o.BillingAddress}, {shipping, &o.ShippingAddress}} {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode order %s: %w", id, err)
		}
	}

	rows, err := r.pool.Query(ctx, `
SELECT id::text, order_id::text, COALESCE(cart_line_id::text, ''), variant_id, product_id, title,
       product_title, option1, option2, quantity, price
FROM order_items
WHERE order_id = $1
ORDER BY product_title, id
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.CartLineID, &it.VariantID, &it.ProductID, &it.Title,
			&it.ProductTitle, &it.Option1, &it.Option2, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) TransitionStatus(ctx context.Context, id string, status domain.FinancialStatus) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, domain.ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET financial_status = $2, updated_at = now()
WHERE id = $1 AND financial_status = 'pending'
`, id, status)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}
