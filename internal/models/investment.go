package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentStatus is the lifecycle state of an Investment.
type InvestmentStatus string

const (
	InvestmentActive    InvestmentStatus = "ACTIVE"
	InvestmentCompleted InvestmentStatus = "COMPLETED"
)

// InvestmentPlan is an administrator-defined product template.
type InvestmentPlan struct {
	Base
	Name              string          `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description,omitempty"`
	MinimumInvestment decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"minimumInvestment"`
	MaximumInvestment decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"maximumInvestment"`
	ProfitPercentage  decimal.Decimal `gorm:"type:numeric(7,2);not null" json:"profitPercentage"`
	DurationDays      int             `gorm:"not null" json:"durationDays"`
	IsActive          bool            `gorm:"not null;default:true" json:"isActive"`
}

// Investment is one user's commitment to a plan.
// ExpectedReturn is frozen at creation and is what maturity pays out.
type Investment struct {
	Base
	UserID         string           `gorm:"type:varchar(36);not null;index" json:"userId"`
	PlanID         string           `gorm:"type:varchar(36);not null;index" json:"planId"`
	InvestedAmount decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"investedAmount"`
	ExpectedReturn decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"expectedReturn"`
	ActualReturn   *decimal.Decimal `gorm:"type:numeric(20,2)" json:"actualReturn,omitempty"`
	StartDate      time.Time        `gorm:"not null" json:"startDate"`
	EndDate        time.Time        `gorm:"not null;index:idx_investment_due,priority:2" json:"endDate"`
	Status         InvestmentStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index:idx_investment_due,priority:1" json:"status"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`

	Plan *InvestmentPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	User *User           `gorm:"foreignKey:UserID" json:"-"`
}
