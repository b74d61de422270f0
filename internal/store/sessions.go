package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mywallet-io/mywallet/internal/models"
)

// UpsertSession stores digest as the only active session of userID. An
// existing session row is rotated in place by the same statement, so two
// concurrent logins resolve as last write wins.
func (s *Store) UpsertSession(ctx context.Context, userID, digest string) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO sessions (id, user_id, token_digest, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET token_digest = excluded.token_digest, updated_at = excluded.updated_at`),
		uuid.NewString(), userID, digest, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// GetSessionByDigest looks a session up by the digest of its token.
func (s *Store) GetSessionByDigest(ctx context.Context, digest string) (*models.Session, error) {
	var session models.Session
	err := s.db.GetContext(ctx, &session, s.q(
		"SELECT id, user_id, token_digest, created_at, updated_at FROM sessions WHERE token_digest = ?"), digest)
	if err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

// DeleteSessionsBefore removes sessions last rotated before cutoff.
func (s *Store) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM sessions WHERE updated_at < ?"), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
