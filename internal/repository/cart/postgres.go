package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
)

const lineColumns = `id::text, user_id, session_id, product_id, variant_id, option1, option2,
       product_title, quantity, price, created_at, updated_at, expires_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &postgresTx{tx: tx})
	})
}

func (r *postgresRepo) List(ctx context.Context, owner domain.CartOwner) ([]domain.CartLine, error) {
	return listByOwner(ctx, r.pool, owner)
}

func (r *postgresRepo) DeleteLines(ctx context.Context, owner domain.CartOwner, lineIDs []string) (int, error) {
	if len(lineIDs) == 0 {
		return 0, nil
	}
	column, id := ownerColumn(owner)
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart WHERE `+column+` = $1 AND id::text = ANY($2)`, id, lineIDs)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (r *postgresRepo) CleanExpired(ctx context.Context) (int, error) {
	var removed int
	if err := r.pool.QueryRow(ctx, `SELECT clean_expired_cart_items()`).Scan(&removed); err != nil {
		return 0, err
	}
	return removed, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) LockVariant(ctx context.Context, variantID string) (VariantStock, error) {
	const q = `
SELECT v.id, v.product_id, p.title, v.option1, v.option2, v.price, v.inventory_quantity, v.reserved_quantity
FROM product_variants v
JOIN products p ON p.id = v.product_id
WHERE v.id = $1
FOR UPDATE OF v
`
	var s VariantStock
	err := t.tx.QueryRow(ctx, q, variantID).Scan(
		&s.VariantID, &s.ProductID, &s.ProductTitle, &s.Option1, &s.Option2, &s.Price, &s.Inventory, &s.Reserved,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VariantStock{}, domain.ErrNotFound
		}
		return VariantStock{}, err
	}
	return s, nil
}

func (t *postgresTx) LineVariant(ctx context.Context, owner domain.CartOwner, lineID string) (string, error) {
	if _, err := uuid.Parse(lineID); err != nil {
		return "", domain.ErrNotFound
	}
	column, id := ownerColumn(owner)
	var variantID string
	err := t.tx.QueryRow(ctx, `SELECT variant_id FROM cart WHERE id = $1 AND `+column+` = $2 AND expires_at > now()`, lineID, id).Scan(&variantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	return variantID, err
}

func (t *postgresTx) FindByVariant(ctx context.Context, owner domain.CartOwner, variantID string) (*domain.CartLine, error) {
	column, id := ownerColumn(owner)
	q := `SELECT ` + lineColumns + ` FROM cart WHERE ` + column + ` = $1 AND variant_id = $2 AND expires_at > now() FOR UPDATE`
	return scanLine(t.tx.QueryRow(ctx, q, id, variantID))
}

func (t *postgresTx) FindByID(ctx context.Context, owner domain.CartOwner, lineID string) (*domain.CartLine, error) {
	if _, err := uuid.Parse(lineID); err != nil {
		return nil, domain.ErrNotFound
	}
	column, id := ownerColumn(owner)
	q := `SELECT ` + lineColumns + ` FROM cart WHERE id = $1 AND ` + column + ` = $2 AND expires_at > now() FOR UPDATE`
	return scanLine(t.tx.QueryRow(ctx, q, lineID, id))
}

func (t *postgresTx) ListByOwner(ctx context.Context, owner domain.CartOwner) ([]domain.CartLine, error) {
	return listByOwner(ctx, t.tx, owner)
}

func (t *postgresTx) Insert(ctx context.Context, in NewLine) (*domain.CartLine, error) {
	// An expired row for the same key still occupies the unique index until the sweep runs.
	column, id := ownerColumn(in.Owner)
	if _, err := t.tx.Exec(ctx, `DELETE FROM cart WHERE `+column+` = $1 AND variant_id = $2 AND expires_at <= now()`, id, in.VariantID); err != nil {
		return nil, err
	}

	userID, sessionID := ownerArgs(in.Owner)
	const q = `
INSERT INTO cart (id, user_id, session_id, product_id, variant_id, option1, option2, product_title, quantity, price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + lineColumns
	line, err := scanLine(t.tx.QueryRow(ctx, q,
		uuid.NewString(), userID, sessionID,
		in.ProductID, in.VariantID, in.Option1, in.Option2, in.ProductTitle, in.Quantity, in.Price,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return line, nil
}

func (t *postgresTx) SetQuantity(ctx context.Context, lineID string, quantity int) (*domain.CartLine, error) {
	q := `UPDATE cart SET quantity = $1, updated_at = now() WHERE id = $2 RETURNING ` + lineColumns
	return scanLine(t.tx.QueryRow(ctx, q, quantity, lineID))
}

func (t *postgresTx) Delete(ctx context.Context, lineID string) error {
	cmd, err := t.tx.Exec(ctx, `DELETE FROM cart WHERE id = $1`, lineID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *postgresTx) Reassign(ctx context.Context, lineID, userID string) error {
	if _, err := t.tx.Exec(ctx, `
DELETE FROM cart
WHERE user_id = $1 AND expires_at <= now()
  AND variant_id = (SELECT variant_id FROM cart WHERE id = $2)
`, userID, lineID); err != nil {
		return err
	}

	cmd, err := t.tx.Exec(ctx, `
UPDATE cart
SET user_id = $1,
    session_id = NULL,
    updated_at = now()
WHERE id = $2
`, userID, lineID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func listByOwner(ctx context.Context, q querier, owner domain.CartOwner) ([]domain.CartLine, error) {
	column, id := ownerColumn(owner)
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM cart WHERE `+column+` = $1 AND expires_at > now() ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return lines, nil
}

func scanLine(row pgx.Row) (*domain.CartLine, error) {
	var l domain.CartLine
	if err := row.Scan(
		&l.ID, &l.UserID, &l.SessionID, &l.ProductID, &l.VariantID, &l.Option1, &l.Option2,
		&l.ProductTitle, &l.Quantity, &l.Price, &l.CreatedAt, &l.UpdatedAt, &l.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ownerColumn picks the owner column; column names never come from input.
func ownerColumn(owner domain.CartOwner) (string, string) {
	if owner.IsUser() {
		return "user_id", strings.TrimSpace(owner.UserID)
	}
	return "session_id", strings.TrimSpace(owner.SessionID)
}

// ownerArgs returns the user_id and session_id values for an insert; only
// the column ownerColumn picks is non-NULL.
func ownerArgs(owner domain.CartOwner) (*string, *string) {
	column, id := ownerColumn(owner)
	if column == "user_id" {
		return &id, nil
	}
	return nil, &id
}
