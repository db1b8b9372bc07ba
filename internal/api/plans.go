package api

import (
	"cryptovest/internal/apperr"
	"cryptovest/internal/investment"

	"github.com/gin-gonic/gin"
)

func (s *Server) createPlan(c *gin.Context) {
	var in investment.PlanInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.fail(c, invalidBody(err))
		return
	}
	plan, err := s.investments.CreatePlan(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, plan)
}

func (s *Server) listPlans(c *gin.Context) {
	activeOnly, err := boolQuery(c, "active", false)
	if err != nil {
		s.fail(c, err)
		return
	}
	plans, err := s.investments.ListPlans(c.Request.Context(), activeOnly)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, plans)
}

func (s *Server) getPlan(c *gin.Context) {
	plan, err := s.investments.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, plan)
}

type planStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

func (s *Server) setPlanStatus(c *gin.Context) {
	var req planStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		s.fail(c, apperr.Validation("isActive is required"))
		return
	}
	plan, err := s.investments.SetPlanActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, plan)
}
