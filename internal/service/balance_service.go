package service

import (
	"context"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// BalanceService reads group balances.
type BalanceService struct {
	store  storage.Store
	ledger *ledger.Ledger
}

// NewBalanceService creates a BalanceService. The ledger must share store.
func NewBalanceService(store storage.Store, l *ledger.Ledger) *BalanceService {
	return &BalanceService{store: store, ledger: l}
}

// GroupBalances returns a group's edges with user names resolved.
// An unknown group has no balances.
func (s *BalanceService) GroupBalances(ctx context.Context, groupID string) ([]models.BalanceView, error) {
	if groupID == "" {
		return nil, apperr.Validation("groupId is required")
	}

	edges, err := s.ledger.Balances(ctx, groupID)
	if err != nil {
		logFailure(ctx, "GroupBalances", err, "group_id", groupID)
		return nil, err
	}

	ids := make([]string, 0, 2*len(edges))
	for _, e := range edges {
		ids = append(ids, e.FromUser, e.ToUser)
	}
	users, err := s.store.GetUsersByIDs(ctx, dedupe(ids))
	if err != nil {
		logFailure(ctx, "GroupBalances", err, "group_id", groupID)
		return nil, err
	}

	views := make([]models.BalanceView, 0, len(edges))
	for _, e := range edges {
		views = append(views, models.BalanceView{
			ID:       e.ID,
			GroupID:  e.GroupID,
			FromUser: userRef(users, e.FromUser),
			ToUser:   userRef(users, e.ToUser),
			Amount:   e.Amount,
		})
	}
	return views, nil
}

// SimplifiedDebts returns the fewest transfers that would clear the group.
// It is a read-only view and does not change any balance.
func (s *BalanceService) SimplifiedDebts(ctx context.Context, groupID string) ([]calculator.Transfer, error) {
	if groupID == "" {
		return nil, apperr.Validation("groupId is required")
	}

	edges, err := s.ledger.Balances(ctx, groupID)
	if err != nil {
		logFailure(ctx, "SimplifiedDebts", err, "group_id", groupID)
		return nil, err
	}

	values := make([]models.Balance, len(edges))
	for i, e := range edges {
		values[i] = *e
	}
	transfers := calculator.SimplifyDebts(values)
	if transfers == nil {
		transfers = []calculator.Transfer{}
	}
	return transfers, nil
}

func userRef(users map[string]*models.User, id string) models.UserRef {
	ref := models.UserRef{ID: id}
	if u, ok := users[id]; ok {
		ref.Name = u.Name
	}
	return ref
}
