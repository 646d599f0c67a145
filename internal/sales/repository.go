package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-commerce/atelier/internal/shared"
)

// Repository persists orders, lines and their confirmation side effects.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
	DraftBySession(ctx context.Context, sessionKey string) (*Order, error)
	CreateDraft(ctx context.Context, order Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	Lines(ctx context.Context, orderID int64) ([]OrderLine, error)
	UpsertLine(ctx context.Context, line OrderLine) error
	RemoveLine(ctx context.Context, orderID, productID int64) error
	SetLinePrice(ctx context.Context, lineID int64, unitPrice float64) error
	SetCustomerType(ctx context.Context, orderID int64, ct CustomerType, terms PaymentTerms) error
	SetTotal(ctx context.Context, orderID int64, total float64) error
	MarkConfirmed(ctx context.Context, orderID int64, docNumber, tracking string, method DeliveryMethod, total float64, at time.Time) error
	MarkCancelled(ctx context.Context, orderID int64) error
	InsertOutMove(ctx context.Context, productID int64, qty float64, ref string) error
	ByTracking(ctx context.Context, tracking string) (Order, []OrderLine, error)
	RecentB2B(ctx context.Context, customerID int64, limit int) ([]Order, error)
	NextDocNumber(ctx context.Context) (string, error)
	ProductPricingFor(ctx context.Context, productIDs []int64) (map[int64]ProductPricing, error)
}

type repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// NewRepository builds the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) db() dbConn {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

// dbConn is satisfied by both pgxpool.Pool and pgx.Tx.
type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithTx runs fn against a repository bound to one transaction.
func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("sales: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &repository{pool: r.pool, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("sales: commit tx: %w", err)
	}
	return nil
}

const orderColumns = `id, COALESCE(doc_number, ''), COALESCE(customer_id, 0), COALESCE(session_key, ''), customer_type, status,
	delivery_method, payment_terms, COALESCE(tracking_number, ''), website_order, total_amount,
	confirmed_at, created_at, updated_at`

func (r *repository) DraftBySession(ctx context.Context, sessionKey string) (*Order, error) {
	row := r.db().QueryRow(ctx, `SELECT `+orderColumns+` FROM orders
WHERE session_key = $1 AND status = 'draft' ORDER BY created_at DESC LIMIT 1`, sessionKey)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CreateDraft(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := r.db().QueryRow(ctx, `INSERT INTO orders
(customer_id, session_key, customer_type, status, delivery_method, payment_terms, website_order, total_amount, created_at, updated_at)
VALUES (NULLIF($1, 0), $2, $3, 'draft', $4, $5, $6, 0, NOW(), NOW()) RETURNING id`,
		order.CustomerID, order.SessionKey, order.CustomerType, order.DeliveryMethod, order.PaymentTerms, order.WebsiteOrder).Scan(&id)
	return id, err
}

func (r *repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	row := r.db().QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.ErrNotFound
	}
	return order, err
}

func (r *repository) Lines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	rows, err := r.db().Query(ctx, `SELECT l.id, l.order_id, l.product_id, p.name, l.quantity, l.unit_price, l.line_total
FROM order_lines l JOIN products p ON p.id = l.product_id
WHERE l.order_id = $1 ORDER BY l.id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []OrderLine{}
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) UpsertLine(ctx context.Context, line OrderLine) error {
	_, err := r.db().Exec(ctx, `INSERT INTO order_lines (order_id, product_id, quantity, unit_price, line_total)
VALUES ($1, $2, $3, $4, $3 * $4)
ON CONFLICT (order_id, product_id)
DO UPDATE SET quantity = EXCLUDED.quantity, unit_price = EXCLUDED.unit_price, line_total = EXCLUDED.line_total`,
		line.OrderID, line.ProductID, line.Quantity, line.UnitPrice)
	return err
}

func (r *repository) RemoveLine(ctx context.Context, orderID, productID int64) error {
	_, err := r.db().Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1 AND product_id = $2`, orderID, productID)
	return err
}

func (r *repository) SetLinePrice(ctx context.Context, lineID int64, unitPrice float64) error {
	_, err := r.db().Exec(ctx, `UPDATE order_lines SET unit_price = $2, line_total = quantity * $2 WHERE id = $1`, lineID, unitPrice)
	return err
}

func (r *repository) SetCustomerType(ctx context.Context, orderID int64, ct CustomerType, terms PaymentTerms) error {
	_, err := r.db().Exec(ctx, `UPDATE orders SET customer_type = $2, payment_terms = $3, updated_at = NOW()
WHERE id = $1 AND status = 'draft'`, orderID, ct, terms)
	return err
}

func (r *repository) SetTotal(ctx context.Context, orderID int64, total float64) error {
	_, err := r.db().Exec(ctx, `UPDATE orders SET total_amount = $2, updated_at = NOW() WHERE id = $1`, orderID, total)
	return err
}

func (r *repository) MarkConfirmed(ctx context.Context, orderID int64, docNumber, tracking string, method DeliveryMethod, total float64, at time.Time) error {
	tag, err := r.db().Exec(ctx, `UPDATE orders
SET status = 'confirmed', doc_number = $2, tracking_number = $3, delivery_method = $4,
	total_amount = $5, confirmed_at = $6, updated_at = NOW()
WHERE id = $1 AND status = 'draft'`, orderID, docNumber, tracking, method, total, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotDraft
	}
	return nil
}

func (r *repository) MarkCancelled(ctx context.Context, orderID int64) error {
	tag, err := r.db().Exec(ctx, `UPDATE orders SET status = 'cancelled', updated_at = NOW()
WHERE id = $1 AND status = 'draft'`, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotDraft
	}
	return nil
}

func (r *repository) InsertOutMove(ctx context.Context, productID int64, qty float64, ref string) error {
	_, err := r.db().Exec(ctx, `INSERT INTO stock_moves (product_id, qty, reason, ref, created_at)
VALUES ($1, $2, 'sale', $3, NOW())`, productID, -qty, ref)
	return err
}

func (r *repository) ByTracking(ctx context.Context, tracking string) (Order, []OrderLine, error) {
	row := r.db().QueryRow(ctx, `SELECT `+orderColumns+` FROM orders
WHERE tracking_number = $1 AND website_order`, tracking)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, nil, shared.ErrNotFound
	}
	if err != nil {
		return Order{}, nil, err
	}
	lines, err := r.Lines(ctx, order.ID)
	if err != nil {
		return Order{}, nil, err
	}
	return order, lines, nil
}

func (r *repository) RecentB2B(ctx context.Context, customerID int64, limit int) ([]Order, error) {
	rows, err := r.db().Query(ctx, `SELECT `+orderColumns+` FROM orders
WHERE customer_id = $1 AND customer_type = 'b2b' AND status <> 'cancelled'
ORDER BY created_at DESC LIMIT $2`, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// NextDocNumber issues SO-YYYY-NNNNN from a per-year sequence row.
func (r *repository) NextDocNumber(ctx context.Context) (string, error) {
	year := time.Now().UTC().Year()
	var seq int64
	err := r.db().QueryRow(ctx, `INSERT INTO doc_sequences (kind, year, value)
VALUES ('sale_order', $1, 1)
ON CONFLICT (kind, year) DO UPDATE SET value = doc_sequences.value + 1
RETURNING value`, year).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SO-%d-%05d", year, seq), nil
}

func (r *repository) ProductPricingFor(ctx context.Context, productIDs []int64) (map[int64]ProductPricing, error) {
	result := make(map[int64]ProductPricing, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}
	rows, err := r.db().Query(ctx, `SELECT id, name, price, b2b_price, is_saleable
FROM products WHERE id = ANY($1)`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p ProductPricing
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Price, &p.B2BPrice, &p.IsSaleable); err != nil {
			return nil, err
		}
		result[p.ProductID] = p
	}
	return result, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.DocNumber, &o.CustomerID, &o.SessionKey, &o.CustomerType, &o.Status,
		&o.DeliveryMethod, &o.PaymentTerms, &o.TrackingNumber, &o.WebsiteOrder, &o.TotalAmount,
		&o.ConfirmedAt, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
