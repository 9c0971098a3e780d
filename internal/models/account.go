package models

import "time"

// Account represents a guardian identity. Rows are created from verified
// token claims the first time an account calls the API.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}
