package domain

import "time"

type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Token is an issued access token persisted so any API instance can resolve it.
type Token struct {
	Token      string
	CustomerID string
	Kind       string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}
