package investment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cryptovest/internal/apperr"
	"cryptovest/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateInvestmentInput is a user's request to invest in a plan.
type CreateInvestmentInput struct {
	UserID         string
	PlanID         string
	InvestedAmount decimal.Decimal
}

func (in *CreateInvestmentInput) validate() error {
	in.UserID = strings.TrimSpace(in.UserID)
	in.PlanID = strings.TrimSpace(in.PlanID)
	switch {
	case in.UserID == "":
		return apperr.Validation("userId is required")
	case in.PlanID == "":
		return apperr.Validation("planId is required")
	case !in.InvestedAmount.IsPositive():
		return apperr.Validation("investedAmount must be a positive number")
	case !in.InvestedAmount.Equal(in.InvestedAmount.Round(moneyPlaces)):
		return apperr.Validation("investedAmount supports at most %d decimal places", moneyPlaces)
	}
	return nil
}

// CreateInvestment debits the wallet and opens an ACTIVE investment. The investment
// row, the debit and the INVESTMENT ledger entry commit together or not at all.
func (s *Service) CreateInvestment(ctx context.Context, in CreateInvestmentInput) (*models.Investment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	amount := in.InvestedAmount

	var investment models.Investment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := findPlan(tx, in.PlanID)
		if err != nil {
			return err
		}
		if !plan.IsActive {
			return apperr.InvalidState("investment plan %q is not active", plan.Name)
		}
		if amount.LessThan(plan.MinimumInvestment) || amount.GreaterThan(plan.MaximumInvestment) {
			return apperr.OutOfRange("investment amount must be between %s and %s",
				plan.MinimumInvestment.StringFixed(moneyPlaces), plan.MaximumInvestment.StringFixed(moneyPlaces))
		}

		wallet, err := lockWallet(tx, in.UserID)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(amount) {
			return apperr.InsufficientFunds("insufficient wallet balance")
		}

		now := s.clock()
		investment = models.Investment{
			UserID:         in.UserID,
			PlanID:         plan.ID,
			InvestedAmount: amount,
			ExpectedReturn: ExpectedReturn(amount, plan.ProfitPercentage),
			StartDate:      now,
			EndDate:        now.AddDate(0, 0, plan.DurationDays),
			Status:         models.InvestmentActive,
		}
		if err := tx.Create(&investment).Error; err != nil {
			return fmt.Errorf("failed to create investment: %w", err)
		}

		if err := debit(tx, wallet, amount); err != nil {
			return err
		}

		entry := models.Transaction{
			UserID:      in.UserID,
			Type:        models.TransactionInvestment,
			Amount:      amount,
			Description: fmt.Sprintf("Investment in %s plan", plan.Name),
			Reference:   investment.ID,
		}
		if err := appendLedger(tx, &entry, map[string]any{
			"investmentId": investment.ID,
			"planId":       plan.ID,
			"endDate":      investment.EndDate,
		}); err != nil {
			return err
		}

		investment.Plan = plan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Investment created",
		zap.String("investment_id", investment.ID),
		zap.String("user_id", investment.UserID),
		zap.String("plan_id", investment.PlanID),
		zap.String("amount", amount.String()),
		zap.String("expected_return", investment.ExpectedReturn.String()),
		zap.Time("end_date", investment.EndDate))
	return &investment, nil
}

// ListInvestments returns a user's investments newest first, optionally filtered by status.
func (s *Service) ListInvestments(ctx context.Context, userID string, status models.InvestmentStatus) ([]models.Investment, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("userId is required")
	}

	q := s.db.WithContext(ctx).Preload("Plan").Where("user_id = ?", userID)
	switch status {
	case "":
	case models.InvestmentActive, models.InvestmentCompleted:
		q = q.Where("status = ?", status)
	default:
		return nil, apperr.Validation("unknown investment status %q", status)
	}

	investments := make([]models.Investment, 0)
	if err := q.Order("created_at desc").Find(&investments).Error; err != nil {
		return nil, fmt.Errorf("failed to list investments of user %s: %w", userID, err)
	}
	return investments, nil
}

// MaturedInvestment summarizes one investment closed by a maturity run.
type MaturedInvestment struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	PlanID       string          `json:"planId"`
	ReturnAmount decimal.Decimal `json:"returnAmount"`
	CompletedAt  time.Time       `json:"completedAt"`
}

// MaturityReport is the outcome of one maturity run.
type MaturityReport struct {
	Updated     int                 `json:"updated"`
	Failed      int                 `json:"failed"`
	Investments []MaturedInvestment `json:"investments"`
}

// MatureInvestments completes every ACTIVE investment whose end date has passed,
// crediting the frozen expected return to the owner's wallet. Running it again
// with nothing newly due updates nothing.
func (s *Service) MatureInvestments(ctx context.Context) (*MaturityReport, error) {
	now := s.clock()

	var due []models.Investment
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Where("status = ? AND end_date <= ?", models.InvestmentActive, now).
		Order("end_date asc").
		Find(&due).Error
	if err != nil {
		return nil, fmt.Errorf("failed to select due investments: %w", err)
	}

	report := &MaturityReport{Investments: make([]MaturedInvestment, 0, len(due))}
	for i := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		inv := &due[i]
		l := s.logger.With(zap.String("investment_id", inv.ID), zap.String("user_id", inv.UserID))

		matured, err := s.matureOne(ctx, inv, now)
		if err != nil {
			report.Failed++
			l.Error("Failed to mature investment", zap.Error(err))
			continue
		}
		if matured == nil {
			l.Debug("Investment already completed by another run")
			continue
		}
		report.Updated++
		report.Investments = append(report.Investments, *matured)
		l.Info("Investment matured", zap.String("return_amount", matured.ReturnAmount.String()))
	}

	if len(due) > 0 {
		s.logger.Info("Maturity run finished",
			zap.Int("due", len(due)),
			zap.Int("updated", report.Updated),
			zap.Int("failed", report.Failed))
	}
	return report, nil
}

// matureOne flips one investment to COMPLETED and credits the wallet in a single
// transaction. It returns nil, nil when the investment was no longer ACTIVE.
func (s *Service) matureOne(ctx context.Context, inv *models.Investment, now time.Time) (*MaturedInvestment, error) {
	returnAmount := inv.ExpectedReturn.Round(moneyPlaces)
	var matured *MaturedInvestment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Investment{}).
			Where("id = ? AND status = ?", inv.ID, models.InvestmentActive).
			Updates(map[string]any{
				"status":        models.InvestmentCompleted,
				"actual_return": returnAmount,
				"completed_at":  now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to complete investment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		wallet, err := lockWallet(tx, inv.UserID)
		if err != nil {
			return err
		}
		if err := credit(tx, wallet, returnAmount); err != nil {
			return err
		}

		planName := inv.PlanID
		if inv.Plan != nil {
			planName = inv.Plan.Name
		}
		entry := models.Transaction{
			UserID:      inv.UserID,
			Type:        models.TransactionInvestmentReturn,
			Amount:      returnAmount,
			Description: fmt.Sprintf("Return from %s plan investment", planName),
			Reference:   inv.ID,
		}
		if err := appendLedger(tx, &entry, map[string]any{
			"investmentId":   inv.ID,
			"planId":         inv.PlanID,
			"investedAmount": inv.InvestedAmount,
			"profit":         returnAmount.Sub(inv.InvestedAmount),
		}); err != nil {
			return err
		}

		matured = &MaturedInvestment{
			ID:           inv.ID,
			UserID:       inv.UserID,
			PlanID:       inv.PlanID,
			ReturnAmount: returnAmount,
			CompletedAt:  now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matured, nil
}
