package reviews

import (
	"errors"
	"time"
)

// State tracks review moderation.
type State string

const (
	// StateDraft means the review awaits moderation.
	StateDraft State = "draft"
	// StatePublished means the review counts toward product aggregates.
	StatePublished State = "published"
	// StateRejected means the review was refused by a moderator.
	StateRejected State = "rejected"
)

// Review is a customer's rating of a product. A customer holds at most one
// review per product.
type Review struct {
	ID               int64     `json:"id"`
	ProductID        int64     `json:"product_id"`
	CustomerID       int64     `json:"customer_id"`
	Title            string    `json:"title"`
	Rating           int       `json:"rating"`
	Body             string    `json:"body"`
	State            State     `json:"state"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	HelpfulCount     int       `json:"helpful_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Aggregate summarises the published reviews of a product.
type Aggregate struct {
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

// SubmitInput carries a review submission.
type SubmitInput struct {
	ProductID  int64
	CustomerID int64
	Title      string
	Rating     int
	Body       string
}

// ErrInvalidRating indicates a rating outside 1..5.
var ErrInvalidRating = errors.New("reviews: rating must be between 1 and 5")

// ErrTitleRequired indicates a missing review title.
var ErrTitleRequired = errors.New("reviews: title is required")
