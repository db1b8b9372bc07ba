package investment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cryptovest/internal/apperr"
	"cryptovest/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
)

// lockWallet loads the user's wallet with a row lock held until tx ends.
func lockWallet(tx *gorm.DB, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("wallet not found for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet of user %s: %w", userID, err)
	}
	wallet.Balance = wallet.Balance.Round(moneyPlaces)
	return &wallet, nil
}

// debit subtracts amount from a wallet locked by lockWallet. The new balance is
// computed in decimal and written back, so it stays on the currency scale
// regardless of how the driver stores numeric columns.
func debit(tx *gorm.DB, wallet *models.Wallet, amount decimal.Decimal) error {
	if wallet.Balance.LessThan(amount) {
		return apperr.InsufficientFunds("insufficient wallet balance")
	}
	return setBalance(tx, wallet, wallet.Balance.Sub(amount))
}

// credit adds amount to a wallet locked by lockWallet.
func credit(tx *gorm.DB, wallet *models.Wallet, amount decimal.Decimal) error {
	return setBalance(tx, wallet, wallet.Balance.Add(amount))
}

func setBalance(tx *gorm.DB, wallet *models.Wallet, balance decimal.Decimal) error {
	balance = balance.Round(moneyPlaces)
	res := tx.Model(&models.Wallet{}).
		Where("id = ?", wallet.ID).
		Update("balance", balance)
	if res.Error != nil {
		return fmt.Errorf("failed to update balance of wallet %s: %w", wallet.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("wallet %s disappeared while updating its balance", wallet.ID)
	}
	wallet.Balance = balance
	return nil
}

// appendLedger writes the ledger row that accompanies a balance mutation.
func appendLedger(tx *gorm.DB, entry *models.Transaction, metadata map[string]any) error {
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to encode ledger metadata: %w", err)
		}
		entry.Metadata = datatypes.JSON(raw)
	}
	if entry.Status == "" {
		entry.Status = models.TransactionCompleted
	}
	if entry.Currency == "" {
		entry.Currency = "USD"
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append %s transaction: %w", entry.Type, err)
	}
	return nil
}

// GetWallet returns the wallet of a user.
func (s *Service) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	var wallet models.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("wallet not found for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet of user %s: %w", userID, err)
	}
	wallet.Balance = wallet.Balance.Round(moneyPlaces)
	return &wallet, nil
}

// ListTransactions returns a user's ledger, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}

	transactions := make([]models.Transaction, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions of user %s: %w", userID, err)
	}
	return transactions, nil
}
