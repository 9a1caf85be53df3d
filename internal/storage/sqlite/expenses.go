package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateExpense persists an expense, its participants and its allocations.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	return s.WithTx(ctx, func(tx storage.Store) error {
		q := tx.(*SQLiteStore).q

		_, err := q.ExecContext(ctx,
			`INSERT INTO expenses (id, group_id, title, paid_by, amount, split_type, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.GroupID, expense.Title, expense.PaidBy,
			int64(expense.Amount), string(expense.SplitType), expense.CreatedAt,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for i, userID := range expense.Participants {
			_, err = q.ExecContext(ctx,
				"INSERT INTO expense_participants (expense_id, user_id, position) VALUES (?, ?, ?)",
				expense.ID, userID, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert participant: %w", err)
			}
		}

		for userID, value := range expense.Splits {
			_, err = q.ExecContext(ctx,
				"INSERT INTO expense_splits (expense_id, user_id, value) VALUES (?, ?, ?)",
				expense.ID, userID, value.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert split: %w", err)
			}
		}
		return nil
	})
}

// ListExpensesByGroup retrieves all expenses for a group, newest first.
// Participants and splits are loaded with one query each rather than per expense.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, group_id, title, paid_by, amount, split_type, created_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		e := &models.Expense{Participants: []string{}}
		var amount int64
		var splitType string
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Title, &e.PaidBy, &amount, &splitType, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Amount = money.Cents(amount)
		e.SplitType = models.SplitType(splitType)
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	if err := s.loadParticipants(ctx, groupID, byID); err != nil {
		return nil, err
	}
	if err := s.loadSplits(ctx, groupID, byID); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *SQLiteStore) loadParticipants(ctx context.Context, groupID string, byID map[string]*models.Expense) error {
	rows, err := s.q.QueryContext(ctx,
		`SELECT p.expense_id, p.user_id FROM expense_participants p
		 JOIN expenses e ON e.id = p.expense_id
		 WHERE e.group_id = ? ORDER BY p.expense_id, p.position`,
		groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, userID string
		if err := rows.Scan(&expenseID, &userID); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Participants = append(e.Participants, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadSplits(ctx context.Context, groupID string, byID map[string]*models.Expense) error {
	rows, err := s.q.QueryContext(ctx,
		`SELECT sp.expense_id, sp.user_id, sp.value FROM expense_splits sp
		 JOIN expenses e ON e.id = sp.expense_id
		 WHERE e.group_id = ?`,
		groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, userID, raw string
		if err := rows.Scan(&expenseID, &userID, &raw); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("failed to parse split %q: %w", raw, err)
		}
		e, ok := byID[expenseID]
		if !ok {
			continue
		}
		if e.Splits == nil {
			e.Splits = make(map[string]decimal.Decimal)
		}
		e.Splits[userID] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}
	return nil
}
