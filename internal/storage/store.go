// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// UserStore persists users.
type UserStore interface {
	// CreateUser persists a new user. ID and CreatedAt are populated when empty.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by ID. Returns ErrNotFound if absent.
	GetUser(ctx context.Context, id string) (*models.User, error)

	// ListUsers returns every user ordered by creation time.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// GetUsersByIDs returns a map of user ID to User.
	// Users that don't exist are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup persists a new group with its initial members.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its member IDs. Returns ErrNotFound if absent.
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// AddGroupMember adds userID to the group. Adding an existing member is a no-op.
	AddGroupMember(ctx context.Context, groupID, userID string) error
}

// ExpenseStore persists expenses. Expenses are never updated.
type ExpenseStore interface {
	// CreateExpense persists a new expense with its participants and allocations.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpensesByGroup returns a group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
}

// BalanceStore persists directed balance edges.
// Callers are responsible for keeping at most one direction per pair;
// the store only enforces uniqueness of (group, from, to).
type BalanceStore interface {
	// GetBalance returns the edge from→to in a group. Returns ErrNotFound if absent.
	GetBalance(ctx context.Context, groupID, fromUser, toUser string) (*models.Balance, error)

	// ListBalancesByGroup returns every edge in a group.
	ListBalancesByGroup(ctx context.Context, groupID string) ([]*models.Balance, error)

	// CreateBalance inserts a new edge. Returns ErrConflict if the edge already exists.
	CreateBalance(ctx context.Context, balance *models.Balance) error

	// UpdateBalanceAmount overwrites an edge's amount. Returns ErrNotFound if absent.
	UpdateBalanceAmount(ctx context.Context, id string, amount money.Cents) error

	// DeleteBalance removes an edge. Returns ErrNotFound if absent.
	DeleteBalance(ctx context.Context, id string) error
}

// Store defines the full storage surface used by the ledger and services.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, memory)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore
	BalanceStore

	// WithTx runs fn inside a transaction. The Store passed to fn is bound to
	// the transaction; fn's error rolls everything back. Calling WithTx on a
	// transaction-bound Store runs fn in the same transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Close releases any resources held by the store.
	Close() error
}

// PairLocker is implemented by transaction-bound stores that can serialize
// balance updates across processes. The lock is released when the
// transaction ends.
type PairLocker interface {
	LockPair(ctx context.Context, key string) error
}
