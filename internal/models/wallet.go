package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionDeposit          TransactionType = "DEPOSIT"
	TransactionWithdrawal       TransactionType = "WITHDRAWAL"
	TransactionInvestment       TransactionType = "INVESTMENT"
	TransactionInvestmentReturn TransactionType = "INVESTMENT_RETURN"
	TransactionBuy              TransactionType = "BUY"
	TransactionSell             TransactionType = "SELL"
)

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// ErrAppendOnly is returned when something tries to modify a ledger entry.
var ErrAppendOnly = errors.New("transactions are append-only")

// Wallet holds a user's balances. There is exactly one wallet per user.
type Wallet struct {
	Base
	UserID       string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
	TokenBalance decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0" json:"tokenBalance"`
	Currency     string          `gorm:"size:10;not null;default:'USD'" json:"currency"`
}

// Transaction is an immutable ledger entry recording one balance mutation.
type Transaction struct {
	ID          string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string            `gorm:"type:varchar(36);not null;index" json:"userId"`
	Type        TransactionType   `gorm:"type:varchar(30);not null;index" json:"type"`
	Amount      decimal.Decimal   `gorm:"type:numeric(20,2);not null" json:"amount"`
	Currency    string            `gorm:"size:10;not null;default:'USD'" json:"currency"`
	Status      TransactionStatus `gorm:"type:varchar(20);not null" json:"status"`
	Description string            `gorm:"type:text" json:"description"`
	Reference   string            `gorm:"type:varchar(36);index" json:"reference,omitempty"`
	Metadata    datatypes.JSON    `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"createdAt"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrAppendOnly
}
