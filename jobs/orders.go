package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskTypeOrderConfirmation is the task type for order confirmation emails.
const TaskTypeOrderConfirmation = "orders:send_confirmation"

// NewOrderConfirmationTask constructs the confirmation email task.
func NewOrderConfirmationTask(payload OrderConfirmationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeOrderConfirmation, data), nil
}

// EnqueueOrderConfirmation schedules the confirmation email for an order.
func (c *Client) EnqueueOrderConfirmation(ctx context.Context, orderID int64, docNumber string) error {
	task, err := NewOrderConfirmationTask(OrderConfirmationPayload{OrderID: orderID, DocNumber: docNumber})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// NewOrderConfirmationHandler builds the handler resolving the customer's
// address before sending.
func NewOrderConfirmationHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload OrderConfirmationPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		var email, name string
		err := pool.QueryRow(ctx, `SELECT c.email, c.name FROM orders o
JOIN customers c ON c.id = o.customer_id
WHERE o.id = $1`, payload.OrderID).Scan(&email, &name)
		if errors.Is(err, pgx.ErrNoRows) {
			// Guest checkout, nobody to mail.
			logger.Info("order confirmation skipped, no customer", slog.Int64("order_id", payload.OrderID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("load order customer: %w", err)
		}

		return HandleSendEmailTask(ctx, mustSendEmailTask(SendEmailPayload{
			To:      email,
			Subject: "Your order " + payload.DocNumber + " is confirmed",
			Body:    "Hi " + name + ", your order " + payload.DocNumber + " has been confirmed and is being prepared.",
		}))
	}
}

func mustSendEmailTask(payload SendEmailPayload) *asynq.Task {
	task, err := NewSendEmailTask(payload)
	if err != nil {
		panic(err)
	}
	return task
}
