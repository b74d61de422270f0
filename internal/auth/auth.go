package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mywallet-io/mywallet/internal/apperr"
	"github.com/mywallet-io/mywallet/internal/models"
	"github.com/mywallet-io/mywallet/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Client-facing messages for rejected payloads.
const (
	MsgInvalidSignUp = "Algum dado está inválido"
	MsgInvalidLogin  = "Usuário ou senha inválidos"
	MsgEmailTaken    = "Esse usuário já existe"
)

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrUnknownSession = errors.New("unknown session")
	ErrSessionExpired = errors.New("session has expired")
	ErrBadCredentials = errors.New("invalid email or password")
)

// Store is the persistence the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertSession(ctx context.Context, userID, digest string) error
	GetSessionByDigest(ctx context.Context, digest string) (*models.Session, error)
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config tunes hashing and session lifetime.
type Config struct {
	BcryptCost int
	// SessionTTL of zero means sessions never expire on their own.
	SessionTTL time.Duration
}

type SignUpInput struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,notblank"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// Service validates credentials and issues, rotates and resolves sessions.
type Service struct {
	store    Store
	cfg      Config
	log      logrus.FieldLogger
	validate *validator.Validate
	now      func() time.Time
	newToken func() string
}

func NewService(s Store, cfg Config, log logrus.FieldLogger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:    s,
		cfg:      cfg,
		log:      log.WithField("component", "auth"),
		validate: newValidator(),
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// SignUp registers a new user. Success carries no payload.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) error {
	in = in.normalized()
	if err := s.validate.Struct(in); err != nil {
		return apperr.InvalidInput(MsgInvalidSignUp, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		s.log.WithError(err).Error("failed to hash password")
		return apperr.Internal(err)
	}

	user, err := s.store.CreateUser(ctx, in.Name, in.Email, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return apperr.Conflict(MsgEmailTaken, err)
		}
		s.log.WithError(err).Error("failed to create user")
		return apperr.Internal(err)
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return nil
}

// Login checks the credentials and rotates the user's single session token.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.InvalidInput(MsgInvalidLogin, err)
	}

	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthorized(ErrBadCredentials)
		}
		s.log.WithError(err).Error("failed to look up user")
		return nil, apperr.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperr.Unauthorized(ErrBadCredentials)
	}

	token := s.newToken()
	if err := s.store.UpsertSession(ctx, user.ID, Digest(token)); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Error("failed to store session")
		return nil, apperr.Internal(err)
	}

	return &LoginResult{Token: token, Name: user.Name}, nil
}

// ResolveSession returns the id of the user owning token.
func (s *Service) ResolveSession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperr.Unauthorized(ErrMissingToken)
	}

	digest := Digest(token)
	session, err := s.store.GetSessionByDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apperr.Unauthorized(ErrUnknownSession)
		}
		s.log.WithError(err).Error("failed to look up session")
		return "", apperr.Internal(err)
	}

	if subtle.ConstantTimeCompare([]byte(session.TokenDigest), []byte(digest)) != 1 {
		return "", apperr.Unauthorized(ErrUnknownSession)
	}

	if s.cfg.SessionTTL > 0 && s.now().Sub(session.UpdatedAt) > s.cfg.SessionTTL {
		return "", apperr.Unauthorized(ErrSessionExpired)
	}

	return session.UserID, nil
}

// PurgeExpired deletes sessions older than the TTL. It is a no-op when
// sessions do not expire.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	if s.cfg.SessionTTL <= 0 {
		return 0, nil
	}
	n, err := s.store.DeleteSessionsBefore(ctx, s.now().Add(-s.cfg.SessionTTL))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.WithField("count", n).Info("purged expired sessions")
	}
	return n, nil
}

// SessionTTL reports the configured session lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.cfg.SessionTTL
}
