package api

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) getWallet(c *gin.Context) {
	wallet, err := s.investments.GetWallet(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, wallet)
}

func (s *Server) listTransactions(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	transactions, err := s.investments.ListTransactions(c.Request.Context(), c.Query("userId"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, transactions)
}
