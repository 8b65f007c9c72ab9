package customer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

const customerColumns = `id::text, email, password_hash, first_name, last_name, phone, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	const q = `
INSERT INTO customers (id, email, password_hash, first_name, last_name, phone)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(ctx, q,
		c.ID, strings.ToLower(c.Email), c.PasswordHash, c.FirstName, c.LastName, c.Phone,
	))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.FirstName, &c.LastName, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("customer repo: scan", "error", err)
		return nil, err
	}
	return &c, nil
}
