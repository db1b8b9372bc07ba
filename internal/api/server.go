// Package api exposes the investment and market services over HTTP with gin.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"cryptovest/internal/apperr"
	"cryptovest/internal/investment"
	"cryptovest/internal/market"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	investments *investment.Service
	market      *market.Aggregator
	db          *gorm.DB
	logger      *zap.Logger
}

// NewServer creates a new Server.
func NewServer(investments *investment.Service, agg *market.Aggregator, db *gorm.DB, logger *zap.Logger) *Server {
	return &Server{
		investments: investments,
		market:      agg,
		db:          db,
		logger:      logger.Named("api"),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(s.logger))

	engine.GET("/healthz", s.health)
	engine.GET("/readyz", s.ready)

	inv := engine.Group("/investments")
	inv.POST("", s.createInvestment)
	inv.GET("", s.listInvestments)
	inv.POST("/update-status", s.matureInvestments)

	plans := engine.Group("/investment-plans")
	plans.POST("", s.createPlan)
	plans.GET("", s.listPlans)
	plans.GET("/:id", s.getPlan)
	plans.PATCH("/:id/status", s.setPlanStatus)

	engine.GET("/wallets/:userId", s.getWallet)
	engine.GET("/transactions", s.listTransactions)

	engine.GET("/orders/orderbook", s.orderBook)
	engine.GET("/orders/trades", s.recentTrades)
	engine.GET("/market/ticker", s.ticker)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope{Success: false, Error: "route not found"})
	})
	return engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error"})
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// intQuery reads an optional integer query parameter.
func intQuery(c *gin.Context, key string, def int) (int, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return def, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", key)
	}
	return i, nil
}

func boolQuery(c *gin.Context, key string, def bool) (bool, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, apperr.Validation("%s must be true or false", key)
	}
	return b, nil
}
