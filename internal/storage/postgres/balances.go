package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

const balanceColumns = `id, group_id, from_user, to_user, amount, created_at, updated_at`

func scanBalance(row pgx.Row) (*models.Balance, error) {
	b := &models.Balance{}
	var amount int64
	if err := row.Scan(&b.ID, &b.GroupID, &b.FromUser, &b.ToUser, &amount, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Amount = money.Cents(amount)
	return b, nil
}

func (s *PostgresStore) GetBalance(ctx context.Context, groupID, fromUser, toUser string) (*models.Balance, error) {
	b, err := scanBalance(s.q.QueryRow(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE group_id = $1 AND from_user = $2 AND to_user = $3`,
		groupID, fromUser, toUser,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("balance %s→%s: %w", fromUser, toUser, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) ListBalancesByGroup(ctx context.Context, groupID string) ([]*models.Balance, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE group_id = $1 ORDER BY created_at, from_user, to_user`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	balances, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Balance, error) {
		return scanBalance(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan balances: %w", err)
	}
	return balances, nil
}

func (s *PostgresStore) CreateBalance(ctx context.Context, b *models.Balance) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().Unix()
	if b.CreatedAt == 0 {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	_, err := s.q.Exec(ctx,
		`INSERT INTO balances (`+balanceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
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

func (s *PostgresStore) UpdateBalanceAmount(ctx context.Context, id string, amount money.Cents) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE balances SET amount = $2, updated_at = $3 WHERE id = $1`,
		id, int64(amount), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return expectOneRow(tag, "balance "+id)
}

func (s *PostgresStore) DeleteBalance(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM balances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}
	return expectOneRow(tag, "balance "+id)
}
