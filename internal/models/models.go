package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// wallet clients read value and balance as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// DateLayout is the calendar-day format stored on ledger entries.
const DateLayout = "2006-01-02"

// Kind tells deposits and withdrawals apart.
type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
)

// Valid reports whether k is a known transaction kind.
func (k Kind) Valid() bool {
	return k == KindDeposit || k == KindWithdraw
}

// User represents a registered account.
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // bcrypt hash, never sent to client
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Session is the single active login of a user. Only the SHA-256 digest of
// the bearer token is persisted.
type Session struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	TokenDigest string    `json:"-" db:"token_digest"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	Seq         int64           `json:"-" db:"seq"`
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"-" db:"user_id"`
	Value       decimal.Decimal `json:"value" db:"amount"`
	Description string          `json:"description" db:"description"`
	Date        string          `json:"date" db:"day"`
	IsDeposit   bool            `json:"isDeposit" db:"is_deposit"`
	CreatedAt   time.Time       `json:"-" db:"created_at"`
}

// Kind returns the transaction kind derived from IsDeposit.
func (t Transaction) Kind() Kind {
	if t.IsDeposit {
		return KindDeposit
	}
	return KindWithdraw
}

// Signed returns the value with the sign it contributes to the balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.IsDeposit {
		return t.Value
	}
	return t.Value.Neg()
}
