package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mywallet-io/mywallet/internal/apperr"
	"github.com/mywallet-io/mywallet/internal/config"
	"github.com/mywallet-io/mywallet/internal/database"
	"github.com/mywallet-io/mywallet/internal/models"
	"github.com/mywallet-io/mywallet/internal/store"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthTestSuite struct {
	suite.Suite
	store *store.Store
	svc   *Service
	ctx   context.Context
}

func (s *AuthTestSuite) SetupTest() {
	logger, _ := test.NewNullLogger()
	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Type: database.DialectSQLite,
		Path: ":memory:",
	}, logger)
	require.NoError(s.T(), err)
	s.T().Cleanup(func() { db.Close() })

	s.store = store.New(db)
	s.svc = NewService(s.store, Config{BcryptCost: bcrypt.MinCost}, logger)
	s.ctx = context.Background()
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}

func ana() SignUpInput {
	return SignUpInput{
		Name:            "Ana",
		Email:           "ana@x.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
}

func (s *AuthTestSuite) TestSignUpThenLogin() {
	require.NoError(s.T(), s.svc.SignUp(s.ctx, ana()))

	res, err := s.svc.Login(s.ctx, LoginInput{Email: "ana@x.com", Password: "secret123"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Ana", res.Name)
	assert.Len(s.T(), res.Token, 36)

	userID, err := s.svc.ResolveSession(s.ctx, res.Token)
	require.NoError(s.T(), err)
	user, err := s.store.GetUserByEmail(s.ctx, "ana@x.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, userID)
}

func (s *AuthTestSuite) TestSignUpStoresHashNotPassword() {
	require.NoError(s.T(), s.svc.SignUp(s.ctx, ana()))

	user, err := s.store.GetUserByEmail(s.ctx, "ana@x.com")
	require.NoError(s.T(), err)
	assert.NotEqual(s.T(), "secret123", user.PasswordHash)
	assert.NoError(s.T(), bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
}

func (s *AuthTestSuite) TestSignUpTrimsName() {
	in := ana()
	in.Name = "  Ana  "
	require.NoError(s.T(), s.svc.SignUp(s.ctx, in))

	user, err := s.store.GetUserByEmail(s.ctx, "ana@x.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Ana", user.Name)
}

func (s *AuthTestSuite) TestSignUpDuplicateEmailConflicts() {
	require.NoError(s.T(), s.svc.SignUp(s.ctx, ana()))

	in := ana()
	in.Name = "Outra Ana"
	err := s.svc.SignUp(s.ctx, in)
	require.Error(s.T(), err)
	assert.Equal(s.T(), apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(s.T(), MsgEmailTaken, apperr.MessageOf(err))
}

func (s *AuthTestSuite) TestSignUpValidation() {
	tests := []struct {
		name   string
		mutate func(in *SignUpInput)
	}{
		{"blank name", func(in *SignUpInput) { in.Name = "   " }},
		{"missing email", func(in *SignUpInput) { in.Email = "" }},
		{"malformed email", func(in *SignUpInput) { in.Email = "ana.at.x" }},
		{"blank password", func(in *SignUpInput) { in.Password, in.ConfirmPassword = "  ", "  " }},
		{"missing confirmation", func(in *SignUpInput) { in.ConfirmPassword = "" }},
		{"mismatched confirmation", func(in *SignUpInput) { in.ConfirmPassword = "secret124" }},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			in := ana()
			tt.mutate(&in)
			err := s.svc.SignUp(s.ctx, in)
			require.Error(s.T(), err)
			assert.Equal(s.T(), apperr.KindInvalidInput, apperr.KindOf(err))
			assert.Equal(s.T(), MsgInvalidSignUp, apperr.MessageOf(err))
		})
	}

	_, err := s.store.GetUserByEmail(s.ctx, "ana@x.com")
	assert.ErrorIs(s.T(), err, store.ErrNotFound)
}

func (s *AuthTestSuite) TestLoginFailures() {
	require.NoError(s.T(), s.svc.SignUp(s.ctx, ana()))

	_, err := s.svc.Login(s.ctx, LoginInput{Email: "ana@x.com", Password: "wrong"})
	assert.Equal(s.T(), apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = s.svc.Login(s.ctx, LoginInput{Email: "bia@x.com", Password: "secret123"})
	assert.Equal(s.T(), apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = s.svc.Login(s.ctx, LoginInput{Email: "not-an-email", Password: "secret123"})
	assert.Equal(s.T(), apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Equal(s.T(), MsgInvalidLogin, apperr.MessageOf(err))

	_, err = s.svc.Login(s.ctx, LoginInput{Email: "ana@x.com"})
	assert.Equal(s.T(), apperr.KindInvalidInput, apperr.KindOf(err))
}

func (s *AuthTestSuite) TestSecondLoginInvalidatesFirstToken() {
	require.NoError(s.T(), s.svc.SignUp(s.ctx, ana()))
	creds := LoginInput{Email: "ana@x.com", Password: "secret123"}

	first, err := s.svc.Login(s.ctx, creds)
	require.NoError(s.T(), err)
	second, err := s.svc.Login(s.ctx, creds)
	require.NoError(s.T(), err)
	assert.NotEqual(s.T(), first.Token, second.Token)

	_, err = s.svc.ResolveSession(s.ctx, first.Token)
	assert.Equal(s.T(), apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = s.svc.ResolveSession(s.ctx, second.Token)
	assert.NoError(s.T(), err)
}

func (s *AuthTestSuite) TestResolveSessionRejectsUnknownTokens() {
	_, err := s.svc.ResolveSession(s.ctx, "")
	assert.ErrorIs(s.T(), err, ErrMissingToken)
	assert.Equal(s.T(), apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = s.svc.ResolveSession(s.ctx, "d4b8c1a6-0000-4000-8000-000000000000")
	assert.ErrorIs(s.T(), err, ErrUnknownSession)
}

func (s *AuthTestSuite) TestSessionTTL() {
	require.NoError(s.T(), s.svc.SignUp(s.ctx, ana()))
	res, err := s.svc.Login(s.ctx, LoginInput{Email: "ana@x.com", Password: "secret123"})
	require.NoError(s.T(), err)

	s.svc.cfg.SessionTTL = time.Hour
	s.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = s.svc.ResolveSession(s.ctx, res.Token)
	assert.ErrorIs(s.T(), err, ErrSessionExpired)

	n, err := s.svc.PurgeExpired(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)

	_, err = s.svc.ResolveSession(s.ctx, res.Token)
	assert.ErrorIs(s.T(), err, ErrUnknownSession)
}

func (s *AuthTestSuite) TestPurgeExpiredWithoutTTL() {
	n, err := s.svc.PurgeExpired(s.ctx)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), n)
}

type failingStore struct {
	Store
	err error
}

func (f failingStore) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, f.err
}

func (f failingStore) GetSessionByDigest(context.Context, string) (*models.Session, error) {
	return nil, f.err
}

func TestStoreFailuresAreInternal(t *testing.T) {
	logger, hook := test.NewNullLogger()
	svc := NewService(failingStore{err: errors.New("connection reset")}, Config{}, logger)

	_, err := svc.Login(context.Background(), LoginInput{Email: "ana@x.com", Password: "secret123"})
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Empty(t, apperr.MessageOf(err))

	_, err = svc.ResolveSession(context.Background(), "token")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	assert.Len(t, hook.AllEntries(), 2)
}
