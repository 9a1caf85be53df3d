// Package service orchestrates users, groups, expenses, balances and
// settlements on top of storage and the ledger.
//
// Services are transport agnostic: they take contracts requests, return
// models, and report client errors as apperr values. The REST and RPC
// layers map those to status codes.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/storage"
)

// Services bundles every service over one store and one ledger.
type Services struct {
	Users       *UserService
	Groups      *GroupService
	Expenses    *ExpenseService
	Balances    *BalanceService
	Settlements *SettlementService
}

// New wires the services. A nil publisher discards events.
func New(store storage.Store, publisher events.Publisher) *Services {
	if publisher == nil {
		publisher = events.Noop{}
	}
	l := ledger.New(store)
	return &Services{
		Users:       NewUserService(store),
		Groups:      NewGroupService(store, publisher),
		Expenses:    NewExpenseService(store, l, publisher),
		Balances:    NewBalanceService(store, l),
		Settlements: NewSettlementService(l, publisher),
	}
}

// logFailure logs a failed operation. Client errors are expected traffic and
// logged at warn; anything else is an error.
func logFailure(ctx context.Context, op string, err error, args ...any) {
	args = append(args, "error", err)
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		slog.WarnContext(ctx, op+" failed", args...)
		return
	}
	slog.ErrorContext(ctx, op+" failed", args...)
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// notFoundAs converts a storage miss into a client-facing not-found error.
func notFoundAs(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}
