package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/atelier-commerce/atelier/internal/inventory"
)

// LowStockMetrics records the gauge the scan maintains.
type LowStockMetrics interface {
	SetLowStockCount(n int)
}

// LowStockScanner sweeps the stock ledger and enqueues a replenishment alert
// per product at or below its minimum level.
type LowStockScanner struct {
	logger    *slog.Logger
	inventory *inventory.Service
	client    *Client
	metrics   LowStockMetrics
	alertTo   string
}

// NewLowStockScanner builds LowStockScanner. metrics may be nil.
func NewLowStockScanner(logger *slog.Logger, inventoryService *inventory.Service, client *Client, metrics LowStockMetrics, alertTo string) *LowStockScanner {
	return &LowStockScanner{logger: logger, inventory: inventoryService, client: client, metrics: metrics, alertTo: alertTo}
}

// Handle processes TaskTypeLowStockScan tasks.
func (s *LowStockScanner) Handle(ctx context.Context, t *asynq.Task) error {
	entries, err := s.inventory.LowStockReport(ctx)
	if err != nil {
		return fmt.Errorf("low stock report: %w", err)
	}
	if s.metrics != nil {
		s.metrics.SetLowStockCount(len(entries))
	}
	if len(entries) == 0 || s.alertTo == "" {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, entry := range entries {
		g.Go(func() error {
			payload := SendEmailPayload{
				To:      s.alertTo,
				Subject: fmt.Sprintf("Low stock: %s", entry.Name),
				Body: fmt.Sprintf("%s is down to %.0f units (minimum %.0f). Suggested replenishment: %.0f.",
					entry.Name, entry.QtyAvailable, entry.MinStockLevel, entry.Shortage),
			}
			if _, err := s.client.EnqueueSendEmail(ctx, payload); err != nil {
				return fmt.Errorf("enqueue alert for product %d: %w", entry.ProductID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("low stock scan complete", slog.Int("alerts", len(entries)))
	return nil
}

// HandlerFunc adapts the scanner for mux registration.
func (s *LowStockScanner) HandlerFunc() asynq.HandlerFunc {
	return s.Handle
}
