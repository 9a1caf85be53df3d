package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/contracts"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// ExpenseService records expenses and their effect on group balances.
type ExpenseService struct {
	store     storage.Store
	ledger    *ledger.Ledger
	publisher events.Publisher
}

// NewExpenseService creates an ExpenseService. The ledger must share store.
func NewExpenseService(store storage.Store, l *ledger.Ledger, publisher events.Publisher) *ExpenseService {
	return &ExpenseService{store: store, ledger: l, publisher: publisher}
}

// CreateExpense validates an expense, splits it and, in one transaction,
// stores it and posts a debt from every non-payer participant to the payer.
// Nothing is written unless every check passes.
func (s *ExpenseService) CreateExpense(ctx context.Context, req contracts.CreateExpenseRequest) (*models.Expense, error) {
	expense, debts, err := s.prepare(ctx, req)
	if err != nil {
		logFailure(ctx, "CreateExpense", err, "group_id", req.GroupID)
		return nil, err
	}

	err = s.ledger.Post(ctx, expense.GroupID, debts, func(tx storage.Store) error {
		return tx.CreateExpense(ctx, expense)
	})
	if err != nil {
		logFailure(ctx, "CreateExpense", err, "group_id", expense.GroupID)
		return nil, err
	}

	metrics.ExpensesCreated.WithLabelValues(string(expense.SplitType)).Inc()
	slog.InfoContext(ctx, "Expense created",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"amount", expense.Amount.String(),
		"split_type", expense.SplitType,
		"debts", len(debts),
	)
	events.Emit(ctx, s.publisher, events.ExpenseCreated, expense.GroupID, expense.ID, expense)
	return expense, nil
}

func (s *ExpenseService) prepare(ctx context.Context, req contracts.CreateExpenseRequest) (*models.Expense, []ledger.Debt, error) {
	switch {
	case req.GroupID == "":
		return nil, nil, apperr.Validation("groupId is required")
	case strings.TrimSpace(req.Title) == "":
		return nil, nil, apperr.Validation("Title is required")
	case req.PaidBy == "":
		return nil, nil, apperr.Validation("paidBy is required")
	case len(req.Participants) == 0:
		return nil, nil, apperr.Validation("Participants are required")
	}

	participants := dedupe(req.Participants)

	group, err := s.store.GetGroup(ctx, req.GroupID)
	if err != nil {
		return nil, nil, notFoundAs(err, "Group not found")
	}
	for _, p := range participants {
		if !group.HasMember(p) {
			return nil, nil, apperr.Validation("Participant not in group")
		}
	}
	if !group.HasMember(req.PaidBy) {
		return nil, nil, apperr.Validation("Payer not in group")
	}

	amount, err := money.FromDecimal(req.Amount)
	if err != nil {
		if errors.Is(err, money.ErrTooPrecise) {
			return nil, nil, apperr.Validation("Amount must have at most 2 decimal places")
		}
		return nil, nil, apperr.Validation("Invalid amount")
	}
	if amount <= 0 {
		return nil, nil, apperr.Validation("Amount must be positive")
	}

	splitType := models.SplitType(req.SplitType)
	if !splitType.Valid() {
		return nil, nil, apperr.Validation("Invalid split type")
	}

	allocations := req.Splits
	if splitType == models.SplitEqual {
		allocations = nil
	}
	shares, err := calculator.Split(amount, participants, splitType, allocations)
	if err != nil {
		return nil, nil, err
	}

	debts := make([]ledger.Debt, 0, len(participants))
	for _, p := range participants {
		if p == req.PaidBy {
			continue
		}
		share, ok := shares[p]
		if !ok {
			return nil, nil, apperr.Validationf("Split missing for user %s", p)
		}
		debts = append(debts, ledger.Debt{From: p, To: req.PaidBy, Amount: share})
	}

	expense := &models.Expense{
		GroupID:      req.GroupID,
		Title:        strings.TrimSpace(req.Title),
		PaidBy:       req.PaidBy,
		Amount:       amount,
		Participants: participants,
		SplitType:    splitType,
		Splits:       allocations,
	}
	return expense, debts, nil
}
