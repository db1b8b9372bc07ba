package api

import (
	"strings"

	"cryptovest/internal/investment"
	"cryptovest/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// createInvestmentRequest accepts investedAmount as a JSON string or number.
type createInvestmentRequest struct {
	UserID         string          `json:"userId"`
	PlanID         string          `json:"planId"`
	InvestedAmount decimal.Decimal `json:"investedAmount"`
}

func (s *Server) createInvestment(c *gin.Context) {
	var req createInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, invalidBody(err))
		return
	}

	inv, err := s.investments.CreateInvestment(c.Request.Context(), investment.CreateInvestmentInput{
		UserID:         req.UserID,
		PlanID:         req.PlanID,
		InvestedAmount: req.InvestedAmount,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, inv)
}

func (s *Server) listInvestments(c *gin.Context) {
	status := models.InvestmentStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	investments, err := s.investments.ListInvestments(c.Request.Context(), c.Query("userId"), status)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, investments)
}

func (s *Server) matureInvestments(c *gin.Context) {
	report, err := s.investments.MatureInvestments(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, report)
}
