package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atelier-commerce/atelier/internal/shared"
)

// InventoryPort exposes the availability lookups confirmation needs.
type InventoryPort interface {
	AvailabilityFor(ctx context.Context, productIDs []int64) (map[int64]float64, error)
}

// InvoicerPort issues an invoice for a confirmed order.
type InvoicerPort interface {
	IssueForOrder(ctx context.Context, order Order, lines []OrderLine) error
}

// EmailEnqueuer schedules the confirmation email task.
type EmailEnqueuer interface {
	EnqueueOrderConfirmation(ctx context.Context, orderID int64, docNumber string) error
}

// ConfirmationMetrics counts confirmed orders.
type ConfirmationMetrics interface {
	OrderConfirmed()
}

// IdempotencyPort guards Confirm against duplicate submissions. A key taken
// for a confirmation that then fails must be released with Delete so the
// order stays confirmable.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service owns the cart and order lifecycle.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	inventory InventoryPort
	invoicer  InvoicerPort
	emails    EmailEnqueuer
	metrics   ConfirmationMetrics
	idem      IdempotencyPort
}

// NewService builds Service. invoicer, emails and metrics may be nil.
func NewService(logger *slog.Logger, repo Repository, inventory InventoryPort, invoicer InvoicerPort, emails EmailEnqueuer, metrics ConfirmationMetrics) *Service {
	return &Service{logger: logger, repo: repo, inventory: inventory, invoicer: invoicer, emails: emails, metrics: metrics}
}

// WithIdempotency guards Confirm against duplicate form submissions.
func (s *Service) WithIdempotency(store IdempotencyPort) *Service {
	s.idem = store
	return s
}

// Cart returns the session's draft order with lines, or nil when the cart is
// empty.
func (s *Service) Cart(ctx context.Context, sessionKey string) (*Order, []OrderLine, error) {
	order, err := s.repo.DraftBySession(ctx, sessionKey)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load cart: %w", err)
	}
	lines, err := s.repo.Lines(ctx, order.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load cart lines: %w", err)
	}
	return order, lines, nil
}

// UpdateCart sets the quantity of a product on the session's draft order,
// creating the draft lazily. Quantity zero removes the line. Requests above
// current availability are rejected with a StockShortageError carrying the
// available quantity.
func (s *Service) UpdateCart(ctx context.Context, sessionKey string, customerID, productID int64, quantity float64) (*Order, error) {
	if quantity < 0 {
		return nil, shared.NewUserError("Quantity must not be negative", ErrInvalidQuantity)
	}

	pricing, err := s.repo.ProductPricingFor(ctx, []int64{productID})
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	product, ok := pricing[productID]
	if !ok || !product.IsSaleable {
		return nil, shared.NewUserError("This product is not available for sale", shared.ErrNotFound)
	}

	if quantity > 0 {
		available, err := s.inventory.AvailabilityFor(ctx, []int64{productID})
		if err != nil {
			return nil, fmt.Errorf("check availability: %w", err)
		}
		if quantity > available[productID] {
			return nil, &StockShortageError{
				ProductID:   productID,
				ProductName: product.Name,
				Requested:   quantity,
				Available:   available[productID],
			}
		}
	}

	order, err := s.repo.DraftBySession(ctx, sessionKey)
	if errors.Is(err, shared.ErrNotFound) {
		if quantity == 0 {
			return nil, nil
		}
		id, createErr := s.repo.CreateDraft(ctx, Order{
			CustomerID:     customerID,
			SessionKey:     sessionKey,
			CustomerType:   CustomerB2C,
			DeliveryMethod: DeliveryStandard,
			PaymentTerms:   TermsImmediate,
			WebsiteOrder:   true,
		})
		if createErr != nil {
			return nil, fmt.Errorf("create draft order: %w", createErr)
		}
		created, getErr := s.repo.GetOrder(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		order = &created
	} else if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	if quantity == 0 {
		if err := s.repo.RemoveLine(ctx, order.ID, productID); err != nil {
			return nil, fmt.Errorf("remove line: %w", err)
		}
	} else {
		line := OrderLine{
			OrderID:   order.ID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.UnitPriceFor(order.CustomerType),
		}
		if err := s.repo.UpsertLine(ctx, line); err != nil {
			return nil, fmt.Errorf("upsert line: %w", err)
		}
	}

	if err := s.refreshTotal(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// SetCustomerType switches the draft order between retail and wholesale,
// repricing every line and adjusting payment terms.
func (s *Service) SetCustomerType(ctx context.Context, orderID int64, ct CustomerType) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != StatusDraft {
		return shared.NewUserError("Only draft orders can change customer type", ErrOrderNotDraft)
	}
	if order.CustomerType == ct {
		return nil
	}

	lines, err := s.repo.Lines(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load lines: %w", err)
	}
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	pricing, err := s.repo.ProductPricingFor(ctx, ids)
	if err != nil {
		return fmt.Errorf("load pricing: %w", err)
	}

	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.SetCustomerType(ctx, orderID, ct, TermsFor(ct)); err != nil {
			return fmt.Errorf("set customer type: %w", err)
		}
		var total float64
		for _, line := range lines {
			product, ok := pricing[line.ProductID]
			if !ok {
				continue
			}
			price := product.UnitPriceFor(ct)
			if err := repo.SetLinePrice(ctx, line.ID, price); err != nil {
				return fmt.Errorf("reprice line: %w", err)
			}
			total += line.Quantity * price
		}
		return repo.SetTotal(ctx, orderID, total)
	})
}

// Confirm moves the session's draft order to confirmed: validates every line
// against current availability, writes the outgoing stock moves, assigns a
// document and tracking number. For retail website orders it then issues an
// invoice best-effort and enqueues the confirmation email.
func (s *Service) Confirm(ctx context.Context, sessionKey string, method DeliveryMethod) (*Order, error) {
	order, err := s.repo.DraftBySession(ctx, sessionKey)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewUserError("Your cart is empty", ErrEmptyOrder)
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	lines, err := s.repo.Lines(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, shared.NewUserError("Your cart is empty", ErrEmptyOrder)
	}

	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	available, err := s.inventory.AvailabilityFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	for _, line := range lines {
		if line.Quantity > available[line.ProductID] {
			return nil, &StockShortageError{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Requested:   line.Quantity,
				Available:   available[line.ProductID],
			}
		}
	}

	var total float64
	for _, line := range lines {
		total += line.LineTotal
	}
	var idemKey string
	if s.idem != nil {
		idemKey = fmt.Sprintf("order-confirm:%d", order.ID)
		if err := s.idem.CheckAndInsert(ctx, idemKey, "sales"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, shared.NewUserError("This order was already confirmed", ErrOrderNotDraft)
			}
			return nil, fmt.Errorf("idempotency check: %w", err)
		}
	}

	tracking := uuid.NewString()
	confirmedAt := time.Now().UTC()

	var docNumber string
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err = repo.NextDocNumber(ctx)
		if err != nil {
			return fmt.Errorf("doc number: %w", err)
		}
		if err := repo.MarkConfirmed(ctx, order.ID, docNumber, tracking, method, total, confirmedAt); err != nil {
			return err
		}
		for _, line := range lines {
			if err := repo.InsertOutMove(ctx, line.ProductID, line.Quantity, docNumber); err != nil {
				return fmt.Errorf("stock move: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotDraft) {
			return nil, shared.NewUserError("This order was already confirmed", ErrOrderNotDraft)
		}
		// Release the key so a retry is not mistaken for a duplicate.
		if s.idem != nil && idemKey != "" {
			if derr := s.idem.Delete(ctx, idemKey); derr != nil {
				s.logger.Error("release idempotency key", slog.Any("error", derr), slog.String("key", idemKey))
			}
		}
		return nil, err
	}

	confirmed, err := s.repo.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.OrderConfirmed()
	}

	// Billing failures never undo a confirmed order.
	if confirmed.CustomerType == CustomerB2C && confirmed.WebsiteOrder {
		if s.invoicer != nil {
			if err := s.invoicer.IssueForOrder(ctx, confirmed, lines); err != nil {
				s.logger.Error("issue invoice", slog.Any("error", err), slog.Int64("order_id", confirmed.ID))
			}
		}
		if s.emails != nil {
			if err := s.emails.EnqueueOrderConfirmation(ctx, confirmed.ID, confirmed.DocNumber); err != nil {
				s.logger.Error("enqueue confirmation email", slog.Any("error", err), slog.Int64("order_id", confirmed.ID))
			}
		}
	}
	return &confirmed, nil
}

// Cancel abandons a draft order.
func (s *Service) Cancel(ctx context.Context, orderID int64) error {
	if err := s.repo.MarkCancelled(ctx, orderID); err != nil {
		if errors.Is(err, ErrOrderNotDraft) {
			return shared.NewUserError("Only draft orders can be cancelled", ErrOrderNotDraft)
		}
		return err
	}
	return nil
}

// Track finds a confirmed website order by its tracking number.
func (s *Service) Track(ctx context.Context, trackingNumber string) (Order, []OrderLine, error) {
	return s.repo.ByTracking(ctx, trackingNumber)
}

// B2BOrders lists the customer's newest wholesale orders.
func (s *Service) B2BOrders(ctx context.Context, customerID int64, limit int) ([]Order, error) {
	return s.repo.RecentB2B(ctx, customerID, limit)
}

func (s *Service) refreshTotal(ctx context.Context, orderID int64) error {
	lines, err := s.repo.Lines(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load lines: %w", err)
	}
	var total float64
	for _, line := range lines {
		total += line.LineTotal
	}
	if err := s.repo.SetTotal(ctx, orderID, total); err != nil {
		return fmt.Errorf("set total: %w", err)
	}
	return nil
}
