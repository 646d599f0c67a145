package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductLevels carries the stock configuration needed for replenishment.
type ProductLevels struct {
	ProductID     int64
	Name          string
	MinStockLevel float64
	MaxStockLevel float64
}

// Repository persists the stock ledger in PostgreSQL.
type Repository interface {
	InsertMove(ctx context.Context, move Move) (int64, error)
	QtyAvailable(ctx context.Context, productID int64) (float64, error)
	AvailabilityFor(ctx context.Context, productIDs []int64) (map[int64]float64, error)
	ProductLevels(ctx context.Context, productID int64) (ProductLevels, error)
	LowStockReport(ctx context.Context) ([]LowStockEntry, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// ErrProductNotFound indicates a missing product row.
var ErrProductNotFound = errors.New("inventory: product not found")

func (r *repository) InsertMove(ctx context.Context, move Move) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO stock_moves (product_id, qty, reason, ref, created_by, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, 0), COALESCE($6, NOW())) RETURNING id`,
		move.ProductID, move.Qty, move.Reason, move.Ref, move.CreatedBy, nullTime(move.CreatedAt)).Scan(&id)
	return id, err
}

func (r *repository) QtyAvailable(ctx context.Context, productID int64) (float64, error) {
	var qty float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(qty), 0) FROM stock_moves WHERE product_id = $1`, productID).Scan(&qty)
	return qty, err
}

// AvailabilityFor sums the ledger for many products in one grouped query.
func (r *repository) AvailabilityFor(ctx context.Context, productIDs []int64) (map[int64]float64, error) {
	result := make(map[int64]float64, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT product_id, COALESCE(SUM(qty), 0)
FROM stock_moves WHERE product_id = ANY($1) GROUP BY product_id`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var qty float64
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		result[id] = qty
	}
	return result, rows.Err()
}

func (r *repository) ProductLevels(ctx context.Context, productID int64) (ProductLevels, error) {
	var levels ProductLevels
	err := r.pool.QueryRow(ctx, `SELECT id, name, min_stock_level, max_stock_level FROM products WHERE id = $1`, productID).
		Scan(&levels.ProductID, &levels.Name, &levels.MinStockLevel, &levels.MaxStockLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductLevels{}, ErrProductNotFound
		}
		return ProductLevels{}, err
	}
	return levels, nil
}

// LowStockReport joins the stock ledger once, grouped by product, so the
// whole report costs a single query regardless of catalog size.
func (r *repository) LowStockReport(ctx context.Context) ([]LowStockEntry, error) {
	const query = `SELECT p.id, p.name, p.brand, p.target_audience,
	COALESCE(SUM(m.qty), 0) AS qty_available,
	p.min_stock_level, p.max_stock_level
FROM products p
LEFT JOIN stock_moves m ON m.product_id = p.id
WHERE p.target_audience <> ''
GROUP BY p.id, p.name, p.brand, p.target_audience, p.min_stock_level, p.max_stock_level
HAVING COALESCE(SUM(m.qty), 0) <= p.min_stock_level
ORDER BY p.name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []LowStockEntry{}
	for rows.Next() {
		var e LowStockEntry
		if err := rows.Scan(&e.ProductID, &e.Name, &e.Brand, &e.TargetAudience, &e.QtyAvailable, &e.MinStockLevel, &e.MaxStockLevel); err != nil {
			return nil, err
		}
		e.Status = StatusFor(e.QtyAvailable, e.MinStockLevel)
		e.Shortage = e.MinStockLevel - e.QtyAvailable
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
