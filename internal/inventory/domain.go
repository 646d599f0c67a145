package inventory

import (
	"errors"
	"time"
)

// StockStatus is the derived tri-state inventory indicator.
type StockStatus string

const (
	// StatusInStock means quantity is above the minimum level.
	StatusInStock StockStatus = "in_stock"
	// StatusLowStock means quantity is at or below the minimum level.
	StatusLowStock StockStatus = "low_stock"
	// StatusOutOfStock means nothing is available.
	StatusOutOfStock StockStatus = "out_of_stock"
)

// StatusFor derives the stock status from available quantity and the
// configured minimum level.
func StatusFor(qtyAvailable, minStockLevel float64) StockStatus {
	switch {
	case qtyAvailable <= 0:
		return StatusOutOfStock
	case qtyAvailable <= minStockLevel:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Move is a single signed entry in the stock ledger. Available quantity for
// a product is the sum of its moves.
type Move struct {
	ID        int64
	ProductID int64
	Qty       float64
	Reason    string
	Ref       string
	CreatedBy int64
	CreatedAt time.Time
}

// LowStockEntry is one row of the low-stock report.
type LowStockEntry struct {
	ProductID      int64
	Name           string
	Brand          string
	TargetAudience string
	QtyAvailable   float64
	MinStockLevel  float64
	MaxStockLevel  float64
	Status         StockStatus
	Shortage       float64
}

// ReplenishInput describes a replenishment request for a product.
type ReplenishInput struct {
	ProductID int64
	ActorID   int64
	Note      string
}

// MovementInput describes a manual ledger posting.
type MovementInput struct {
	ProductID int64
	Qty       float64
	Reason    string
	Ref       string
	ActorID   int64
}

// ErrInvalidQuantity indicates a zero movement quantity.
var ErrInvalidQuantity = errors.New("inventory: quantity must be non zero")

// ErrStockSufficient indicates replenishment was requested for a product
// already above its minimum level.
var ErrStockSufficient = errors.New("inventory: stock already above minimum level")

// ErrBadStockLevels indicates max_stock_level does not exceed min_stock_level.
var ErrBadStockLevels = errors.New("inventory: max stock level must exceed min stock level")
