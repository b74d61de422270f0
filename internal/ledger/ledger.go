// Package ledger records deposits and withdrawals and builds the wallet view.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mywallet-io/mywallet/internal/apperr"
	"github.com/mywallet-io/mywallet/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// MsgInvalidEntry is returned to clients for a rejected transaction body.
const MsgInvalidEntry = "Algum dado está inválido"

var (
	ErrMissingValue       = errors.New("value is required")
	ErrNonPositiveValue   = errors.New("value must be greater than zero")
	ErrMissingDescription = errors.New("description is required")
	ErrUnknownKind        = errors.New("unknown transaction kind")
)

type Store interface {
	InsertTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
}

// RecordInput is the body of a deposit or withdraw request. Value accepts
// a JSON number or a numeric string.
type RecordInput struct {
	Value       *decimal.Decimal `json:"value"`
	Description string           `json:"description"`
}

// Wallet is the view returned by GET /wallet. Entries holds deposits and
// withdrawals alike, in the order they were recorded.
type Wallet struct {
	Entries []models.Transaction `json:"depositsArray"`
	Balance decimal.Decimal      `json:"balance"`
}

type Service struct {
	store Store
	log   logrus.FieldLogger
	loc   *time.Location
	now   func() time.Time
}

// NewService builds a ledger service stamping entries with the calendar day
// in loc.
func NewService(s Store, loc *time.Location, log logrus.FieldLogger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store: s,
		log:   log.WithField("component", "ledger"),
		loc:   loc,
		now:   time.Now,
	}
}

func (in RecordInput) validate() error {
	if in.Value == nil {
		return ErrMissingValue
	}
	if !in.Value.IsPositive() {
		return ErrNonPositiveValue
	}
	if strings.TrimSpace(in.Description) == "" {
		return ErrMissingDescription
	}
	return nil
}

// Record appends a transaction of the given kind for userID. There is no
// balance check; a wallet may go negative.
func (s *Service) Record(ctx context.Context, userID string, kind models.Kind, in RecordInput) (*models.Transaction, error) {
	if !kind.Valid() {
		return nil, apperr.Internal(ErrUnknownKind)
	}
	if err := in.validate(); err != nil {
		return nil, apperr.InvalidInput(MsgInvalidEntry, err)
	}

	tx := &models.Transaction{
		UserID:      userID,
		Value:       *in.Value,
		Description: strings.TrimSpace(in.Description),
		Date:        s.now().In(s.loc).Format(models.DateLayout),
		IsDeposit:   kind == models.KindDeposit,
	}
	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"kind":    kind,
		}).Error("failed to record transaction")
		return nil, apperr.Internal(err)
	}
	return tx, nil
}

// Wallet lists every entry of userID with the running balance.
func (s *Service) Wallet(ctx context.Context, userID string) (*Wallet, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to list transactions")
		return nil, apperr.Internal(err)
	}

	balance := decimal.Zero
	for _, tx := range txs {
		balance = balance.Add(tx.Signed())
	}
	return &Wallet{Entries: txs, Balance: balance}, nil
}
