package wishlist

import (
	"context"
	"fmt"
)

// Service applies wishlist rules.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Toggle flips the product's presence on the customer's wishlist. Calling it
// twice with the same arguments restores the original state.
func (s *Service) Toggle(ctx context.Context, customerID, productID int64) (ToggleResult, error) {
	removed, err := s.repo.Delete(ctx, customerID, productID)
	if err != nil {
		return "", fmt.Errorf("wishlist delete: %w", err)
	}
	if removed {
		return Removed, nil
	}
	if _, err := s.repo.Insert(ctx, customerID, productID); err != nil {
		return "", fmt.Errorf("wishlist insert: %w", err)
	}
	return Added, nil
}

// List returns the customer's wishlist, newest first.
func (s *Service) List(ctx context.Context, customerID int64) ([]Item, error) {
	return s.repo.ListForCustomer(ctx, customerID)
}

// Remove deletes an entry if it belongs to the customer.
func (s *Service) Remove(ctx context.Context, customerID, entryID int64) (bool, error) {
	return s.repo.DeleteByID(ctx, customerID, entryID)
}

// Saved reports which of the given products are on the customer's wishlist.
func (s *Service) Saved(ctx context.Context, customerID int64, productIDs []int64) (map[int64]bool, error) {
	return s.repo.Contains(ctx, customerID, productIDs)
}
