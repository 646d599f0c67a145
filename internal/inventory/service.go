package inventory

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/atelier-commerce/atelier/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock ledger operations.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// PostMovement appends a signed entry to the ledger.
func (s *Service) PostMovement(ctx context.Context, input MovementInput) (Move, error) {
	if input.ProductID == 0 {
		return Move{}, fmt.Errorf("inventory: product required")
	}
	if math.Abs(input.Qty) < 1e-9 {
		return Move{}, ErrInvalidQuantity
	}
	move := Move{
		ProductID: input.ProductID,
		Qty:       input.Qty,
		Reason:    input.Reason,
		Ref:       input.Ref,
		CreatedBy: input.ActorID,
	}
	id, err := s.repo.InsertMove(ctx, move)
	if err != nil {
		return Move{}, fmt.Errorf("insert move: %w", err)
	}
	move.ID = id
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "inventory.move",
			Entity:   "product",
			EntityID: strconv.FormatInt(input.ProductID, 10),
			Meta:     map[string]any{"qty": input.Qty, "reason": input.Reason},
		})
	}
	return move, nil
}

// Replenish tops a low or out-of-stock product back up to its maximum
// level. Products already above their minimum are rejected.
func (s *Service) Replenish(ctx context.Context, input ReplenishInput) (Move, error) {
	levels, err := s.repo.ProductLevels(ctx, input.ProductID)
	if err != nil {
		return Move{}, err
	}
	if levels.MaxStockLevel <= levels.MinStockLevel {
		return Move{}, shared.NewUserError("Maximum stock level must exceed the minimum level", ErrBadStockLevels)
	}
	qty, err := s.repo.QtyAvailable(ctx, input.ProductID)
	if err != nil {
		return Move{}, fmt.Errorf("qty available: %w", err)
	}
	if StatusFor(qty, levels.MinStockLevel) == StatusInStock {
		return Move{}, shared.NewUserError("Stock for "+levels.Name+" is already above its minimum level", ErrStockSufficient)
	}
	return s.PostMovement(ctx, MovementInput{
		ProductID: input.ProductID,
		Qty:       levels.MaxStockLevel - qty,
		Reason:    "replenishment",
		Ref:       input.Note,
		ActorID:   input.ActorID,
	})
}

// QtyAvailable returns the current ledger sum for one product.
func (s *Service) QtyAvailable(ctx context.Context, productID int64) (float64, error) {
	return s.repo.QtyAvailable(ctx, productID)
}

// AvailabilityFor returns ledger sums for many products in one query.
func (s *Service) AvailabilityFor(ctx context.Context, productIDs []int64) (map[int64]float64, error) {
	return s.repo.AvailabilityFor(ctx, productIDs)
}

// LowStockReport lists products at or below their minimum stock level.
func (s *Service) LowStockReport(ctx context.Context) ([]LowStockEntry, error) {
	return s.repo.LowStockReport(ctx)
}
