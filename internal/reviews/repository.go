package reviews

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-commerce/atelier/internal/shared"
)

// Repository persists reviews in PostgreSQL.
type Repository interface {
	FindByCustomerProduct(ctx context.Context, customerID, productID int64) (*Review, error)
	Insert(ctx context.Context, review Review) (int64, error)
	Update(ctx context.Context, review Review) error
	SetState(ctx context.Context, id int64, state State) error
	ListPublished(ctx context.Context, productID int64, limit int) ([]Review, error)
	AggregateFor(ctx context.Context, productID int64) (Aggregate, error)
	HasConfirmedPurchase(ctx context.Context, customerID, productID int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const reviewColumns = `id, product_id, customer_id, title, rating, body, state, verified_purchase, helpful_count, created_at, updated_at`

func (r *repository) FindByCustomerProduct(ctx context.Context, customerID, productID int64) (*Review, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE customer_id = $1 AND product_id = $2`, customerID, productID)
	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

func (r *repository) Insert(ctx context.Context, review Review) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO reviews (product_id, customer_id, title, rating, body, state, verified_purchase, helpful_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NOW(), NOW()) RETURNING id`,
		review.ProductID, review.CustomerID, review.Title, review.Rating, review.Body, string(review.State), review.VerifiedPurchase).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, review Review) error {
	_, err := r.pool.Exec(ctx, `UPDATE reviews SET title = $1, rating = $2, body = $3, state = $4, updated_at = NOW() WHERE id = $5`,
		review.Title, review.Rating, review.Body, string(review.State), review.ID)
	return err
}

func (r *repository) SetState(ctx context.Context, id int64, state State) error {
	_, err := r.pool.Exec(ctx, `UPDATE reviews SET state = $1, updated_at = NOW() WHERE id = $2`, string(state), id)
	return err
}

func (r *repository) ListPublished(ctx context.Context, productID int64, limit int) ([]Review, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `SELECT `+reviewColumns+` FROM reviews
WHERE product_id = $1 AND state = 'published' ORDER BY created_at DESC LIMIT $2`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *review)
	}
	return result, rows.Err()
}

func (r *repository) AggregateFor(ctx context.Context, productID int64) (Aggregate, error) {
	var agg Aggregate
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(ROUND(AVG(rating)::numeric, 1), 0)
FROM reviews WHERE product_id = $1 AND state = 'published'`, productID).Scan(&agg.ReviewCount, &agg.AverageRating)
	return agg, err
}

// HasConfirmedPurchase checks for a confirmed order line pairing the
// customer with the product.
func (r *repository) HasConfirmedPurchase(ctx context.Context, customerID, productID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
	SELECT 1 FROM order_lines ol
	JOIN orders o ON o.id = ol.order_id
	WHERE o.customer_id = $1 AND ol.product_id = $2 AND o.status = 'confirmed'
)`, customerID, productID).Scan(&exists)
	return exists, err
}

func scanReview(row pgx.Row) (*Review, error) {
	var review Review
	var state string
	if err := row.Scan(&review.ID, &review.ProductID, &review.CustomerID, &review.Title, &review.Rating, &review.Body,
		&state, &review.VerifiedPurchase, &review.HelpfulCount, &review.CreatedAt, &review.UpdatedAt); err != nil {
		return nil, err
	}
	review.State = State(state)
	return &review, nil
}
