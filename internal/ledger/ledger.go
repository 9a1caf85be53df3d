// Package ledger maintains pairwise balances between group members.
//
// Every balance change goes through a Ledger, which keeps at most one directed
// edge per unordered user pair in a group. Opposing debts are netted as they
// are applied, so the stored edge is always the net amount one member owes the
// other.
//
// Updates to a pair are serialized in-process with a keyed mutex held until
// the storage transaction commits. Stores that implement storage.PairLocker
// additionally take a lock inside the transaction so separate processes
// sharing one database serialize too.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// Debt says From owes To Amount.
type Debt struct {
	From   string
	To     string
	Amount money.Cents
}

// Ledger applies debts and settlements to a storage.Store.
type Ledger struct {
	store storage.Store
	locks *pairLocks
}

// New creates a Ledger backed by store.
func New(store storage.Store) *Ledger {
	return &Ledger{store: store, locks: newPairLocks()}
}

// ApplyDebt records that fromUser owes toUser amount in groupID, netting it
// against any existing edge between the two. A non-positive amount, or a debt
// to oneself, changes nothing.
func (l *Ledger) ApplyDebt(ctx context.Context, groupID, fromUser, toUser string, amount money.Cents) error {
	return l.Post(ctx, groupID, []Debt{{From: fromUser, To: toUser, Amount: amount}}, nil)
}

// Post applies several debts as one unit of work. before, when non-nil, runs
// first inside the same transaction; if it or any debt fails nothing is
// committed. The pair locks for every debt are held for the whole unit.
func (l *Ledger) Post(ctx context.Context, groupID string, debts []Debt, before func(tx storage.Store) error) error {
	var keys []string
	for _, d := range debts {
		if applies(d) {
			keys = append(keys, PairKey(groupID, d.From, d.To))
		}
	}

	unlock := l.locks.lock(keys)
	defer unlock()

	return l.store.WithTx(ctx, func(tx storage.Store) error {
		if err := lockInTx(ctx, tx, keys); err != nil {
			return err
		}
		if before != nil {
			if err := before(tx); err != nil {
				return err
			}
		}
		for _, d := range debts {
			if !applies(d) {
				continue
			}
			if err := applyDebt(ctx, tx, groupID, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// Settle records a payment of amount from fromUser to toUser, reducing the
// edge fromUser→toUser. Only that direction is considered; a settlement never
// creates or touches the reverse edge.
func (l *Ledger) Settle(ctx context.Context, groupID, fromUser, toUser string, amount money.Cents) (*models.SettlementResult, error) {
	if amount <= 0 {
		metrics.Settlements.WithLabelValues("rejected").Inc()
		return nil, apperr.Validation("Settlement amount must be positive")
	}

	keys := []string{PairKey(groupID, fromUser, toUser)}
	unlock := l.locks.lock(keys)
	defer unlock()

	var result *models.SettlementResult
	err := l.store.WithTx(ctx, func(tx storage.Store) error {
		if err := lockInTx(ctx, tx, keys); err != nil {
			return err
		}

		edge, err := tx.GetBalance(ctx, groupID, fromUser, toUser)
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("No balance found to settle")
		}
		if err != nil {
			return err
		}

		switch {
		case amount > edge.Amount:
			return apperr.Validation("Settlement amount exceeds balance")
		case amount == edge.Amount:
			if err := tx.DeleteBalance(ctx, edge.ID); err != nil {
				return err
			}
			result = &models.SettlementResult{Message: models.SettledCompletely}
		default:
			remaining := edge.Amount - amount
			if err := tx.UpdateBalanceAmount(ctx, edge.ID, remaining); err != nil {
				return err
			}
			result = &models.SettlementResult{Message: models.SettledPartially, Remaining: &remaining}
		}
		return nil
	})
	if err != nil {
		metrics.Settlements.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if result.Full() {
		metrics.Settlements.WithLabelValues("full").Inc()
	} else {
		metrics.Settlements.WithLabelValues("partial").Inc()
	}
	slog.Debug("Balance settled",
		"group_id", groupID,
		"from_user", fromUser,
		"to_user", toUser,
		"amount", amount.String(),
		"full", result.Full(),
	)
	return result, nil
}

// Balances returns every edge in a group. An unknown group has no edges.
func (l *Ledger) Balances(ctx context.Context, groupID string) ([]*models.Balance, error) {
	return l.store.ListBalancesByGroup(ctx, groupID)
}

func applies(d Debt) bool {
	return d.Amount > 0 && d.From != d.To
}

func lockInTx(ctx context.Context, tx storage.Store, keys []string) error {
	locker, ok := tx.(storage.PairLocker)
	if !ok {
		return nil
	}
	for _, k := range dedupeSorted(keys) {
		if err := locker.LockPair(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// applyDebt nets d against the pair's edges inside tx.
//
// With F = existing same-direction amount + d.Amount and R = reverse amount:
// R == 0 leaves a single forward edge of F; R > F shrinks the reverse edge to
// R-F; R < F replaces it with a forward edge of F-R; R == F clears the pair.
// Any same-direction edge that should not survive is deleted, so a pair that
// somehow held both directions ends up consistent again.
func applyDebt(ctx context.Context, tx storage.Store, groupID string, d Debt) error {
	same, err := findEdge(ctx, tx, groupID, d.From, d.To)
	if err != nil {
		return err
	}
	reverse, err := findEdge(ctx, tx, groupID, d.To, d.From)
	if err != nil {
		return err
	}

	forward := d.Amount
	if same != nil {
		forward += same.Amount
	}
	var back money.Cents
	if reverse != nil {
		back = reverse.Amount
	}

	var outcome string
	switch {
	case back == 0:
		if same != nil {
			err = tx.UpdateBalanceAmount(ctx, same.ID, forward)
			outcome = "increased"
		} else {
			err = createEdge(ctx, tx, groupID, d.From, d.To, forward)
			outcome = "created"
		}
	case back > forward:
		err = tx.UpdateBalanceAmount(ctx, reverse.ID, back-forward)
		if err == nil && same != nil {
			err = tx.DeleteBalance(ctx, same.ID)
		}
		outcome = "reduced"
	case back < forward:
		err = tx.DeleteBalance(ctx, reverse.ID)
		if err == nil {
			if same != nil {
				err = tx.UpdateBalanceAmount(ctx, same.ID, forward-back)
			} else {
				err = createEdge(ctx, tx, groupID, d.From, d.To, forward-back)
			}
		}
		outcome = "flipped"
	default:
		err = tx.DeleteBalance(ctx, reverse.ID)
		if err == nil && same != nil {
			err = tx.DeleteBalance(ctx, same.ID)
		}
		outcome = "cleared"
	}
	if err != nil {
		return fmt.Errorf("failed to apply debt %s→%s: %w", d.From, d.To, err)
	}

	metrics.BalanceUpdates.WithLabelValues(outcome).Inc()
	return nil
}

func findEdge(ctx context.Context, tx storage.Store, groupID, from, to string) (*models.Balance, error) {
	b, err := tx.GetBalance(ctx, groupID, from, to)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

func createEdge(ctx context.Context, tx storage.Store, groupID, from, to string, amount money.Cents) error {
	return tx.CreateBalance(ctx, &models.Balance{
		GroupID:  groupID,
		FromUser: from,
		ToUser:   to,
		Amount:   amount,
	})
}
