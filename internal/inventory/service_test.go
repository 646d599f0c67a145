package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	moves  []Move
	levels map[int64]ProductLevels
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{levels: make(map[int64]ProductLevels)}
}

func (r *memoryRepo) InsertMove(ctx context.Context, move Move) (int64, error) {
	r.nextID++
	move.ID = r.nextID
	r.moves = append(r.moves, move)
	return move.ID, nil
}

func (r *memoryRepo) QtyAvailable(ctx context.Context, productID int64) (float64, error) {
	var qty float64
	for _, m := range r.moves {
		if m.ProductID == productID {
			qty += m.Qty
		}
	}
	return qty, nil
}

func (r *memoryRepo) AvailabilityFor(ctx context.Context, productIDs []int64) (map[int64]float64, error) {
	result := make(map[int64]float64)
	for _, id := range productIDs {
		qty, _ := r.QtyAvailable(ctx, id)
		if qty != 0 {
			result[id] = qty
		}
	}
	return result, nil
}

func (r *memoryRepo) ProductLevels(ctx context.Context, productID int64) (ProductLevels, error) {
	levels, ok := r.levels[productID]
	if !ok {
		return ProductLevels{}, ErrProductNotFound
	}
	return levels, nil
}

func (r *memoryRepo) LowStockReport(ctx context.Context) ([]LowStockEntry, error) {
	entries := []LowStockEntry{}
	for id, levels := range r.levels {
		qty, _ := r.QtyAvailable(ctx, id)
		if qty <= levels.MinStockLevel {
			entries = append(entries, LowStockEntry{
				ProductID:     id,
				Name:          levels.Name,
				QtyAvailable:  qty,
				MinStockLevel: levels.MinStockLevel,
				MaxStockLevel: levels.MaxStockLevel,
				Status:        StatusFor(qty, levels.MinStockLevel),
				Shortage:      levels.MinStockLevel - qty,
			})
		}
	}
	return entries, nil
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, StatusOutOfStock, StatusFor(0, 10))
	require.Equal(t, StatusOutOfStock, StatusFor(-3, 0))
	require.Equal(t, StatusLowStock, StatusFor(10, 10))
	require.Equal(t, StatusInStock, StatusFor(11, 10))
	require.Equal(t, StatusLowStock, StatusFor(5, 10))
	require.Equal(t, StatusInStock, StatusFor(1, 0))
}

func TestReplenishTopsUpToMax(t *testing.T) {
	repo := newMemoryRepo()
	repo.levels[1] = ProductLevels{ProductID: 1, Name: "Linen Shirt", MinStockLevel: 10, MaxStockLevel: 100}
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.PostMovement(ctx, MovementInput{ProductID: 1, Qty: 5, Reason: "initial"})
	require.NoError(t, err)

	move, err := svc.Replenish(ctx, ReplenishInput{ProductID: 1})
	require.NoError(t, err)
	require.InDelta(t, 95, move.Qty, 0.0001)

	qty, err := svc.QtyAvailable(ctx, 1)
	require.NoError(t, err)
	require.InDelta(t, 100, qty, 0.0001)
}

func TestReplenishRejectsSufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.levels[1] = ProductLevels{ProductID: 1, Name: "Wool Coat", MinStockLevel: 10, MaxStockLevel: 100}
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.PostMovement(ctx, MovementInput{ProductID: 1, Qty: 50, Reason: "initial"})
	require.NoError(t, err)

	_, err = svc.Replenish(ctx, ReplenishInput{ProductID: 1})
	require.ErrorIs(t, err, ErrStockSufficient)
}

func TestReplenishRejectsBadLevels(t *testing.T) {
	repo := newMemoryRepo()
	repo.levels[1] = ProductLevels{ProductID: 1, Name: "Scarf", MinStockLevel: 10, MaxStockLevel: 10}
	svc := NewService(repo, nil)

	_, err := svc.Replenish(context.Background(), ReplenishInput{ProductID: 1})
	require.ErrorIs(t, err, ErrBadStockLevels)
}

func TestPostMovementRejectsZeroQty(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.PostMovement(context.Background(), MovementInput{ProductID: 1, Qty: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestLowStockReportShortage(t *testing.T) {
	repo := newMemoryRepo()
	repo.levels[1] = ProductLevels{ProductID: 1, Name: "Denim Jacket", MinStockLevel: 10, MaxStockLevel: 40}
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.PostMovement(ctx, MovementInput{ProductID: 1, Qty: 4, Reason: "initial"})
	require.NoError(t, err)

	entries, err := svc.LowStockReport(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, StatusLowStock, entries[0].Status)
	require.InDelta(t, 6, entries[0].Shortage, 0.0001)
}
