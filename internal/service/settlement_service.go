package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/contracts"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// SettlementService records payments between group members.
type SettlementService struct {
	ledger    *ledger.Ledger
	publisher events.Publisher
}

func NewSettlementService(l *ledger.Ledger, publisher events.Publisher) *SettlementService {
	return &SettlementService{ledger: l, publisher: publisher}
}

type settlementEvent struct {
	FromUser  string       `json:"fromUser"`
	ToUser    string       `json:"toUser"`
	Amount    money.Cents  `json:"amount"`
	Remaining *money.Cents `json:"remaining,omitempty"`
}

// Settle pays down the balance fromUser owes toUser.
func (s *SettlementService) Settle(ctx context.Context, req contracts.SettleRequest) (*models.SettlementResult, error) {
	if req.GroupID == "" || req.FromUser == "" || req.ToUser == "" {
		return nil, apperr.Validation("groupId, fromUser and toUser are required")
	}

	amount, err := money.FromDecimal(req.Amount)
	if err != nil {
		if errors.Is(err, money.ErrTooPrecise) {
			return nil, apperr.Validation("Amount must have at most 2 decimal places")
		}
		return nil, apperr.Validation("Invalid amount")
	}

	result, err := s.ledger.Settle(ctx, req.GroupID, req.FromUser, req.ToUser, amount)
	if err != nil {
		logFailure(ctx, "Settle", err,
			"group_id", req.GroupID,
			"from_user", req.FromUser,
			"to_user", req.ToUser,
		)
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.SettlementRecorded, req.GroupID, uuid.NewString(), settlementEvent{
		FromUser:  req.FromUser,
		ToUser:    req.ToUser,
		Amount:    amount,
		Remaining: result.Remaining,
	})
	return result, nil
}
