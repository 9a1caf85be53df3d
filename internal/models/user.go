package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a person known to the ledger.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Name is the display name shown in balances.
	Name string `json:"name"`

	// Email is the user's contact address.
	Email string `json:"email"`

	// CreatedAt is the Unix timestamp when the user was created.
	CreatedAt int64 `json:"createdAt"`
}

// NewUser creates a new user with a generated ID and the current timestamp.
func NewUser(name, email string) *User {
	return &User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().Unix(),
	}
}

// UserRef is the minimal user projection embedded in resolved responses.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
