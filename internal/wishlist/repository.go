package wishlist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists wishlist entries.
type Repository interface {
	Delete(ctx context.Context, customerID, productID int64) (bool, error)
	Insert(ctx context.Context, customerID, productID int64) (bool, error)
	ListForCustomer(ctx context.Context, customerID int64) ([]Item, error)
	DeleteByID(ctx context.Context, customerID, entryID int64) (bool, error)
	Contains(ctx context.Context, customerID int64, productIDs []int64) (map[int64]bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Delete(ctx context.Context, customerID, productID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM wishlist_entries WHERE customer_id = $1 AND product_id = $2`, customerID, productID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Insert reports false when the entry already existed. A concurrent insert
// hitting the unique constraint is treated the same as ON CONFLICT DO
// NOTHING, so the toggle stays idempotent under races.
func (r *repository) Insert(ctx context.Context, customerID, productID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `INSERT INTO wishlist_entries (customer_id, product_id, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (customer_id, product_id) DO NOTHING`, customerID, productID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) ListForCustomer(ctx context.Context, customerID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT w.id, w.customer_id, w.product_id, w.created_at,
	p.name, p.brand, p.price, p.is_saleable
FROM wishlist_entries w
JOIN products p ON p.id = w.product_id
WHERE w.customer_id = $1
ORDER BY w.created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CustomerID, &it.ProductID, &it.CreatedAt,
			&it.ProductName, &it.Brand, &it.Price, &it.IsSaleable); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) DeleteByID(ctx context.Context, customerID, entryID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM wishlist_entries WHERE id = $1 AND customer_id = $2`, entryID, customerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) Contains(ctx context.Context, customerID int64, productIDs []int64) (map[int64]bool, error) {
	result := map[int64]bool{}
	if len(productIDs) == 0 {
		return result, nil
	}
	rows, err := r.db.Query(ctx, `SELECT product_id FROM wishlist_entries
WHERE customer_id = $1 AND product_id = ANY($2)`, customerID, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result[id] = true
	}
	return result, rows.Err()
}
