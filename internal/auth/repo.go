package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-commerce/atelier/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	Create(ctx context.Context, email, name, passwordHash string) (*Customer, error)
	CreateSession(ctx context.Context, id string, customerID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a customer account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	const query = `SELECT id, email, name, password_hash, is_active, is_b2b, created_at, updated_at
FROM customers WHERE lower(email) = lower($1)`
	var c Customer
	err := r.pool.QueryRow(ctx, query, email).Scan(&c.ID, &c.Email, &c.Name, &c.PasswordHash, &c.IsActive, &c.IsB2B, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new customer account.
func (r *PGRepository) Create(ctx context.Context, email, name, passwordHash string) (*Customer, error) {
	const query = `INSERT INTO customers (email, name, password_hash, is_active, is_b2b, created_at, updated_at)
VALUES ($1, $2, $3, TRUE, FALSE, NOW(), NOW())
RETURNING id, email, name, password_hash, is_active, is_b2b, created_at, updated_at`
	var c Customer
	err := r.pool.QueryRow(ctx, query, email, name, passwordHash).Scan(&c.ID, &c.Email, &c.Name, &c.PasswordHash, &c.IsActive, &c.IsB2B, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateSession persists a new login session for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, customerID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO customer_sessions (id, customer_id, created_at, expires_at, ip, ua)
VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))`, id, customerID, expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM customer_sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
