package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

func (s *PostgresStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	return s.WithTx(ctx, func(tx storage.Store) error {
		q := tx.(*PostgresStore).q

		_, err := q.Exec(ctx,
			`INSERT INTO expenses (id, group_id, title, paid_by, amount, split_type, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, e.GroupID, e.Title, e.PaidBy, int64(e.Amount), string(e.SplitType), e.CreatedAt,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("expense %s: %w", e.ID, storage.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		batch := &pgx.Batch{}
		for i, userID := range e.Participants {
			batch.Queue(`INSERT INTO expense_participants (expense_id, user_id, position) VALUES ($1, $2, $3)`,
				e.ID, userID, i)
		}
		for userID, v := range e.Splits {
			batch.Queue(`INSERT INTO expense_splits (expense_id, user_id, value) VALUES ($1, $2, $3)`,
				e.ID, userID, v.String())
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.(*PostgresStore).tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert expense details: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, group_id, title, paid_by, amount, split_type, created_at,
		        COALESCE((SELECT array_agg(p.user_id ORDER BY p.position)
		                    FROM expense_participants p WHERE p.expense_id = e.id), '{}') AS participants
		   FROM expenses e
		  WHERE group_id = $1
		  ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}
	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Expense, error) {
		e := &models.Expense{}
		var amount int64
		var splitType string
		err := row.Scan(&e.ID, &e.GroupID, &e.Title, &e.PaidBy, &amount, &splitType, &e.CreatedAt, &e.Participants)
		e.Amount = money.Cents(amount)
		e.SplitType = models.SplitType(splitType)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	byID := make(map[string]*models.Expense, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
	}

	splitRows, err := s.q.Query(ctx,
		`SELECT sp.expense_id, sp.user_id, sp.value
		   FROM expense_splits sp JOIN expenses e ON e.id = sp.expense_id
		  WHERE e.group_id = $1`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var expenseID, userID, raw string
		if err := splitRows.Scan(&expenseID, &userID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse split %q: %w", raw, err)
		}
		if e, ok := byID[expenseID]; ok {
			if e.Splits == nil {
				e.Splits = make(map[string]decimal.Decimal)
			}
			e.Splits[userID] = value
		}
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return expenses, nil
}
