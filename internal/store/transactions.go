package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mywallet-io/mywallet/internal/models"
)

// InsertTransaction appends a ledger entry. ID and CreatedAt are filled in
// when empty.
func (s *Store) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO transactions (id, user_id, amount, description, day, is_deposit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		tx.ID, tx.UserID, tx.Value, tx.Description, tx.Date, tx.IsDeposit, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns every entry of a user in insertion order.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	err := s.db.SelectContext(ctx, &txs, s.q(`
		SELECT seq, id, user_id, amount, description, day, is_deposit, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY seq`), userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
