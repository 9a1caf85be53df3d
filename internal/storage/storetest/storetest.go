// Package storetest holds a behavioural test suite shared by every storage.Store backend.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()

	t.Run("CreateUser generates ID and timestamp", func(t *testing.T) {
		store := newStore(t)
		user := &models.User{Name: "Alice", Email: "alice@example.com"}
		require.NoError(t, store.CreateUser(ctx, user))
		assert.NotEmpty(t, user.ID)
		assert.NotZero(t, user.CreatedAt)

		got, err := store.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user, got)
	})

	t.Run("GetUser returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetUser(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListUsers and GetUsersByIDs", func(t *testing.T) {
		store := newStore(t)
		a := mustUser(t, store, "Alice")
		b := mustUser(t, store, "Bob")

		all, err := store.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		byID, err := store.GetUsersByIDs(ctx, []string{a.ID, b.ID, "ghost"})
		require.NoError(t, err)
		assert.Len(t, byID, 2)
		assert.Equal(t, "Bob", byID[b.ID].Name)

		empty, err := store.GetUsersByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("group membership is idempotent", func(t *testing.T) {
		store := newStore(t)
		a := mustUser(t, store, "Alice")
		b := mustUser(t, store, "Bob")

		group := &models.Group{Name: "Trip"}
		require.NoError(t, store.CreateGroup(ctx, group))
		assert.NotEmpty(t, group.ID)

		require.NoError(t, store.AddGroupMember(ctx, group.ID, a.ID))
		require.NoError(t, store.AddGroupMember(ctx, group.ID, b.ID))
		require.NoError(t, store.AddGroupMember(ctx, group.ID, a.ID))

		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Trip", got.Name)
		assert.ElementsMatch(t, []string{a.ID, b.ID}, got.Members)

		_, err = store.GetGroup(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("expenses round-trip newest first", func(t *testing.T) {
		store := newStore(t)
		a := mustUser(t, store, "Alice")
		b := mustUser(t, store, "Bob")
		group := mustGroup(t, store, a.ID, b.ID)

		first := &models.Expense{
			GroupID: group.ID, Title: "Dinner", PaidBy: a.ID, Amount: money.MustParse("30"),
			Participants: []string{a.ID, b.ID}, SplitType: models.SplitEqual, CreatedAt: 100,
		}
		second := &models.Expense{
			GroupID: group.ID, Title: "Taxi", PaidBy: b.ID, Amount: money.MustParse("12.50"),
			Participants: []string{a.ID, b.ID}, SplitType: models.SplitExact, CreatedAt: 200,
			Splits: map[string]decimal.Decimal{
				a.ID: decimal.RequireFromString("10.25"),
				b.ID: decimal.RequireFromString("2.25"),
			},
		}
		require.NoError(t, store.CreateExpense(ctx, first))
		require.NoError(t, store.CreateExpense(ctx, second))

		list, err := store.ListExpensesByGroup(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Taxi", list[0].Title)
		assert.Equal(t, money.MustParse("12.50"), list[0].Amount)
		assert.Equal(t, []string{a.ID, b.ID}, list[0].Participants)
		assert.True(t, decimal.RequireFromString("10.25").Equal(list[0].Splits[a.ID]))
		assert.Equal(t, "Dinner", list[1].Title)
		assert.Empty(t, list[1].Splits)

		none, err := store.ListExpensesByGroup(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("balance edge lifecycle", func(t *testing.T) {
		store := newStore(t)
		a := mustUser(t, store, "Alice")
		b := mustUser(t, store, "Bob")
		group := mustGroup(t, store, a.ID, b.ID)

		edge := &models.Balance{GroupID: group.ID, FromUser: a.ID, ToUser: b.ID, Amount: 3000}
		require.NoError(t, store.CreateBalance(ctx, edge))
		assert.NotEmpty(t, edge.ID)

		dup := &models.Balance{GroupID: group.ID, FromUser: a.ID, ToUser: b.ID, Amount: 100}
		assert.ErrorIs(t, store.CreateBalance(ctx, dup), storage.ErrConflict)

		got, err := store.GetBalance(ctx, group.ID, a.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Cents(3000), got.Amount)

		_, err = store.GetBalance(ctx, group.ID, b.ID, a.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, store.UpdateBalanceAmount(ctx, edge.ID, 1250))
		list, err := store.ListBalancesByGroup(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, money.Cents(1250), list[0].Amount)

		require.NoError(t, store.DeleteBalance(ctx, edge.ID))
		assert.ErrorIs(t, store.DeleteBalance(ctx, edge.ID), storage.ErrNotFound)
		assert.ErrorIs(t, store.UpdateBalanceAmount(ctx, edge.ID, 1), storage.ErrNotFound)

		list, err = store.ListBalancesByGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("WithTx rolls back on error", func(t *testing.T) {
		store := newStore(t)
		a := mustUser(t, store, "Alice")
		b := mustUser(t, store, "Bob")
		group := mustGroup(t, store, a.ID, b.ID)

		boom := errors.New("boom")
		err := store.WithTx(ctx, func(tx storage.Store) error {
			if err := tx.CreateBalance(ctx, &models.Balance{GroupID: group.ID, FromUser: a.ID, ToUser: b.ID, Amount: 500}); err != nil {
				return err
			}
			if err := tx.CreateExpense(ctx, &models.Expense{
				GroupID: group.ID, Title: "Lunch", PaidBy: b.ID, Amount: 1000,
				Participants: []string{a.ID, b.ID}, SplitType: models.SplitEqual,
			}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		balances, err := store.ListBalancesByGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Empty(t, balances)
		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Empty(t, expenses)
	})

	t.Run("WithTx commits and nests", func(t *testing.T) {
		store := newStore(t)
		a := mustUser(t, store, "Alice")
		b := mustUser(t, store, "Bob")
		group := mustGroup(t, store, a.ID, b.ID)

		err := store.WithTx(ctx, func(tx storage.Store) error {
			return tx.WithTx(ctx, func(inner storage.Store) error {
				return inner.CreateBalance(ctx, &models.Balance{GroupID: group.ID, FromUser: b.ID, ToUser: a.ID, Amount: 700})
			})
		})
		require.NoError(t, err)

		got, err := store.GetBalance(ctx, group.ID, b.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Cents(700), got.Amount)
	})
}

func mustUser(t *testing.T, store storage.Store, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func mustGroup(t *testing.T, store storage.Store, members ...string) *models.Group {
	t.Helper()
	group := &models.Group{Name: "Group", Members: members}
	require.NoError(t, store.CreateGroup(context.Background(), group))
	return group
}
