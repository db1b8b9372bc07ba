// Package investment implements plan catalog management, investment creation
// against a plan's bounds, and the scheduled maturity of due investments.
package investment

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// moneyPlaces is the scale of fiat amounts in storage.
const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Service drives the investment lifecycle. Every multi-write operation runs
// inside one database transaction with the user's wallet row locked.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests that need to move past an end date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new investment Service.
func NewService(db *gorm.DB, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		db:     db,
		logger: logger.Named("investment"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// ExpectedReturn is principal plus profit, rounded to the storage scale.
func ExpectedReturn(invested, profitPercentage decimal.Decimal) decimal.Decimal {
	profit := invested.Mul(profitPercentage).Div(hundred)
	return invested.Add(profit).Round(moneyPlaces)
}
