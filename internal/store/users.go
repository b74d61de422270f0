package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mywallet-io/mywallet/internal/models"
)

// CreateUser stores a new user. The email must not be registered yet.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}

	_, err := s.db.ExecContext(ctx, s.q(
		"INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)"),
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.q(
		"SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?"), email)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by id
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.q(
		"SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
