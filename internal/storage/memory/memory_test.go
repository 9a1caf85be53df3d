package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return New() })
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := New()
	group := &models.Group{Name: "Flat", Members: []string{"a"}}
	require.NoError(t, store.CreateGroup(ctx, group))

	got, err := store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	got.Members = append(got.Members, "intruder")
	group.Members[0] = "changed"

	again, err := store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Members)
}

func TestConcurrentTransactionsSerialize(t *testing.T) {
	ctx := context.Background()
	store := New()
	group := &models.Group{Name: "Flat"}
	require.NoError(t, store.CreateGroup(ctx, group))
	edge := &models.Balance{GroupID: group.ID, FromUser: "a", ToUser: "b", Amount: 1}
	require.NoError(t, store.CreateBalance(ctx, edge))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithTx(ctx, func(tx storage.Store) error {
				b, err := tx.GetBalance(ctx, group.ID, "a", "b")
				if err != nil {
					return err
				}
				return tx.UpdateBalanceAmount(ctx, b.ID, b.Amount+1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b, err := store.GetBalance(ctx, group.ID, "a", "b")
	require.NoError(t, err)
	assert.EqualValues(t, 51, b.Amount)
}
