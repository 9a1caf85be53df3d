package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

const balanceColumns = "id, group_id, from_user, to_user, amount, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBalance(row rowScanner) (*models.Balance, error) {
	b := &models.Balance{}
	var amount int64
	if err := row.Scan(&b.ID, &b.GroupID, &b.FromUser, &b.ToUser, &amount, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Amount = money.Cents(amount)
	return b, nil
}

// GetBalance returns the directed edge from→to within a group.
func (s *SQLiteStore) GetBalance(ctx context.Context, groupID, fromUser, toUser string) (*models.Balance, error) {
	b, err := scanBalance(s.q.QueryRowContext(ctx,
		"SELECT "+balanceColumns+" FROM balances WHERE group_id = ? AND from_user = ? AND to_user = ?",
		groupID, fromUser, toUser,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("balance %s→%s: %w", fromUser, toUser, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return b, nil
}

// ListBalancesByGroup returns a group's edges, oldest first.
func (s *SQLiteStore) ListBalancesByGroup(ctx context.Context, groupID string) ([]*models.Balance, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+balanceColumns+" FROM balances WHERE group_id = ? ORDER BY created_at, from_user, to_user",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var balances []*models.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}

// CreateBalance inserts a new directed edge.
func (s *SQLiteStore) CreateBalance(ctx context.Context, b *models.Balance) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if b.CreatedAt == 0 {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		"INSERT INTO balances ("+balanceColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.GroupID, b.FromUser, b.ToUser, int64(b.Amount), b.CreatedAt, b.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("balance %s→%s: %w", b.FromUser, b.ToUser, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert balance: %w", err)
	}
	return nil
}

// UpdateBalanceAmount overwrites the amount of an existing edge.
func (s *SQLiteStore) UpdateBalanceAmount(ctx context.Context, id string, amount money.Cents) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE balances SET amount = ?, updated_at = ? WHERE id = ?",
		int64(amount), time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return expectOneRow(res, "balance "+id)
}

// DeleteBalance removes an edge by ID.
func (s *SQLiteStore) DeleteBalance(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM balances WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}
	return expectOneRow(res, "balance "+id)
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}
