//go:build integration

// Package testdb starts a throwaway Postgres with the storefront schema for
// integration tests.
package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"storefront/internal/db"
	"storefront/internal/migrate"
)

// Start runs a Postgres container, applies migrations and returns a pool.
// The container and pool are released when the test ends.
func Start(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	if err := migrate.Apply(ctx, dsn); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// Reset empties every storefront table.
func Reset(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `
TRUNCATE order_items, orders, tokens, customers, cart, product_variants, products,
         product_types, smart_collection, brands CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

// SeedVariant inserts a product with one variant and the given stock.
func SeedVariant(ctx context.Context, t *testing.T, pool *pgxpool.Pool, productID, variantID string, price int64, inventory int) {
	t.Helper()
	if _, err := pool.Exec(ctx, `
INSERT INTO products (id, title, vendor, product_type)
VALUES ($1, $2, 'Acme', 'Shirt')
ON CONFLICT (id) DO NOTHING`, productID, "Product "+productID); err != nil {
		t.Fatalf("insert product: %v", err)
	}
	if _, err := pool.Exec(ctx, `
INSERT INTO product_variants (id, product_id, option1, option2, price, inventory_quantity)
VALUES ($1, $2, 'Red', $1, $3, $4)`, variantID, productID, price, inventory); err != nil {
		t.Fatalf("insert variant: %v", err)
	}
}

// Reserved reads a variant's reserved_quantity.
func Reserved(ctx context.Context, t *testing.T, pool *pgxpool.Pool, variantID string) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(ctx, `SELECT reserved_quantity FROM product_variants WHERE id = $1`, variantID).Scan(&n); err != nil {
		t.Fatalf("read reserved: %v", err)
	}
	return n
}
