package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-commerce/atelier/internal/platform/db"
)

// Invoicer writes and posts invoices for confirmed retail website orders.
type Invoicer struct {
	pool *pgxpool.Pool
}

// NewInvoicer builds Invoicer.
func NewInvoicer(pool *pgxpool.Pool) *Invoicer {
	return &Invoicer{pool: pool}
}

// IssueForOrder creates a posted invoice for the order. Insert and post run
// in one transaction so a half-issued invoice never survives.
func (i *Invoicer) IssueForOrder(ctx context.Context, order Order, lines []OrderLine) error {
	if order.Status != StatusConfirmed {
		return fmt.Errorf("invoice: order %d not confirmed", order.ID)
	}
	var amount float64
	for _, line := range lines {
		amount += line.LineTotal
	}

	return db.WithTx(ctx, i.pool, func(tx pgx.Tx) error {
		var invoiceID int64
		err := tx.QueryRow(ctx, `INSERT INTO invoices (order_id, doc_number, amount, status, issued_at)
VALUES ($1, $2, $3, 'draft', $4) RETURNING id`,
			order.ID, "INV-"+order.DocNumber, amount, time.Now().UTC()).Scan(&invoiceID)
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE invoices SET status = 'posted' WHERE id = $1`, invoiceID); err != nil {
			return fmt.Errorf("post invoice: %w", err)
		}
		return nil
	})
}
