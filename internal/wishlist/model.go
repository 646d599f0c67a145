package wishlist

import "time"

// Entry is one saved product for a customer. The (customer_id, product_id)
// pair is unique at the database level.
type Entry struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	ProductID  int64     `json:"product_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Item is an entry joined with the product fields the wishlist page shows.
type Item struct {
	Entry
	ProductName string  `json:"product_name"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	IsSaleable  bool    `json:"is_saleable"`
}

// ToggleResult reports what a toggle did.
type ToggleResult string

const (
	// Added means the product was not on the list and is now.
	Added ToggleResult = "added"
	// Removed means the product was on the list and is gone.
	Removed ToggleResult = "removed"
)
