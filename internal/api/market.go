package api

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) orderBook(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	book, err := s.market.OrderBook(c.Request.Context(), c.Query("tradingPair"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, book)
}

func (s *Server) recentTrades(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	trades, err := s.market.RecentTrades(c.Request.Context(), c.Query("tradingPair"), limit, c.Query("viewerId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, trades)
}

func (s *Server) ticker(c *gin.Context) {
	ticker, err := s.market.Ticker(c.Request.Context(), c.Query("tradingPair"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, ticker)
}
