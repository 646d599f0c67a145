package reviews

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/atelier-commerce/atelier/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service applies review business rules.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Submit creates or updates the customer's review for a product. A first
// submission is published immediately and flagged as a verified purchase
// when a confirmed order line exists; a resubmission overwrites the
// existing row and goes back to draft for re-moderation.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*Review, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, shared.NewUserError("Title and rating are required", ErrTitleRequired)
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, shared.NewUserError("Rating must be between 1 and 5 stars", ErrInvalidRating)
	}

	existing, err := s.repo.FindByCustomerProduct(ctx, input.CustomerID, input.ProductID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("find review: %w", err)
	}

	if existing != nil {
		existing.Title = strings.TrimSpace(input.Title)
		existing.Rating = input.Rating
		existing.Body = input.Body
		existing.State = StateDraft
		if err := s.repo.Update(ctx, *existing); err != nil {
			return nil, fmt.Errorf("update review: %w", err)
		}
		s.recordAudit(ctx, input.CustomerID, "review.resubmit", existing.ID)
		return existing, nil
	}

	verified, err := s.repo.HasConfirmedPurchase(ctx, input.CustomerID, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("verify purchase: %w", err)
	}

	review := Review{
		ProductID:        input.ProductID,
		CustomerID:       input.CustomerID,
		Title:            strings.TrimSpace(input.Title),
		Rating:           input.Rating,
		Body:             input.Body,
		State:            StatePublished,
		VerifiedPurchase: verified,
	}
	id, err := s.repo.Insert(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}
	review.ID = id
	s.recordAudit(ctx, input.CustomerID, "review.submit", id)
	return &review, nil
}

// Publish marks a review as published.
func (s *Service) Publish(ctx context.Context, id int64) error {
	return s.repo.SetState(ctx, id, StatePublished)
}

// Reject marks a review as rejected.
func (s *Service) Reject(ctx context.Context, id int64) error {
	return s.repo.SetState(ctx, id, StateRejected)
}

// ForProduct returns the newest published reviews plus their aggregate.
func (s *Service) ForProduct(ctx context.Context, productID int64, limit int) ([]Review, Aggregate, error) {
	published, err := s.repo.ListPublished(ctx, productID, limit)
	if err != nil {
		return nil, Aggregate{}, fmt.Errorf("list reviews: %w", err)
	}
	agg, err := s.repo.AggregateFor(ctx, productID)
	if err != nil {
		return nil, Aggregate{}, fmt.Errorf("aggregate reviews: %w", err)
	}
	return published, agg, nil
}

// Existing returns the customer's review of a product, if any.
func (s *Service) Existing(ctx context.Context, customerID, productID int64) (*Review, error) {
	review, err := s.repo.FindByCustomerProduct(ctx, customerID, productID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return review, err
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, reviewID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "review",
		EntityID: strconv.FormatInt(reviewID, 10),
	})
}
