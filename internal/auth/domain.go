package auth

import "time"

// Customer represents a storefront account.
type Customer struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	IsB2B        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
