package investment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cryptovest/internal/apperr"
	"cryptovest/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlanInput describes a plan an administrator wants to publish.
type PlanInput struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	MinimumInvestment decimal.Decimal `json:"minimumInvestment"`
	MaximumInvestment decimal.Decimal `json:"maximumInvestment"`
	ProfitPercentage  decimal.Decimal `json:"profitPercentage"`
	DurationDays      int             `json:"durationDays"`
	IsActive          *bool           `json:"isActive"`
}

func (in *PlanInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return apperr.Validation("name is required")
	case !in.MinimumInvestment.IsPositive():
		return apperr.Validation("minimumInvestment must be positive")
	case in.MaximumInvestment.LessThan(in.MinimumInvestment):
		return apperr.Validation("maximumInvestment must not be below minimumInvestment")
	case in.ProfitPercentage.IsNegative():
		return apperr.Validation("profitPercentage must not be negative")
	case in.DurationDays <= 0:
		return apperr.Validation("durationDays must be positive")
	}
	return nil
}

// CreatePlan validates and stores a new plan.
func (s *Service) CreatePlan(ctx context.Context, in PlanInput) (*models.InvestmentPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var existing int64
	if err := db.Model(&models.InvestmentPlan{}).Where("name = ?", in.Name).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check plan name: %w", err)
	}
	if existing > 0 {
		return nil, apperr.Validation("a plan named %q already exists", in.Name)
	}

	plan := models.InvestmentPlan{
		Name:              in.Name,
		Description:       in.Description,
		MinimumInvestment: in.MinimumInvestment.Round(moneyPlaces),
		MaximumInvestment: in.MaximumInvestment.Round(moneyPlaces),
		ProfitPercentage:  in.ProfitPercentage.Round(2),
		DurationDays:      in.DurationDays,
		IsActive:          true,
	}
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}
	// Select keeps an explicit IsActive=false from being replaced by the column default.
	if err := db.Select("*").Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.logger.Info("Investment plan created",
		zap.String("plan_id", plan.ID),
		zap.String("name", plan.Name),
		zap.String("profit_percentage", plan.ProfitPercentage.String()),
		zap.Int("duration_days", plan.DurationDays))
	return &plan, nil
}

// ListPlans returns the catalog ordered by minimum investment.
func (s *Service) ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error) {
	q := s.db.WithContext(ctx).Order("minimum_investment asc, name asc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	plans := make([]models.InvestmentPlan, 0)
	if err := q.Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// GetPlan returns a single plan.
func (s *Service) GetPlan(ctx context.Context, id string) (*models.InvestmentPlan, error) {
	return findPlan(s.db.WithContext(ctx), id)
}

// SetPlanActive opens or closes a plan for new investments. Existing investments are not affected.
func (s *Service) SetPlanActive(ctx context.Context, id string, active bool) (*models.InvestmentPlan, error) {
	db := s.db.WithContext(ctx)
	plan, err := findPlan(db, id)
	if err != nil {
		return nil, err
	}
	if err := db.Model(plan).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("failed to update plan %s: %w", id, err)
	}
	plan.IsActive = active

	s.logger.Info("Investment plan status changed", zap.String("plan_id", id), zap.Bool("active", active))
	return plan, nil
}

func findPlan(db *gorm.DB, id string) (*models.InvestmentPlan, error) {
	if id == "" {
		return nil, apperr.Validation("planId is required")
	}
	var plan models.InvestmentPlan
	err := db.First(&plan, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("investment plan not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %s: %w", id, err)
	}
	return &plan, nil
}
