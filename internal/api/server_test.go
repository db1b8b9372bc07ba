package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cryptovest/internal/config"
	"cryptovest/internal/database"
	"cryptovest/internal/investment"
	"cryptovest/internal/market"
	"cryptovest/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	now    time.Time
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupTest(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	env := &testEnv{db: db, now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := investment.NewService(db, zap.NewNop(), investment.WithClock(func() time.Time { return env.now }))
	agg := market.NewAggregator(db, zap.NewNop(), config.Market{DefaultLimit: 20, MaxLimit: 100}, nil)
	env.router = NewServer(svc, agg, db, zap.NewNop()).Router()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, response) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (e *testEnv) createUser(t *testing.T, email, balance string) models.User {
	t.Helper()
	user := models.User{Name: email, Email: email}
	require.NoError(t, e.db.Create(&user).Error)
	require.NoError(t, e.db.Create(&models.Wallet{UserID: user.ID, Balance: decimal.RequireFromString(balance), Currency: "USD"}).Error)
	return user
}

func (e *testEnv) createPlan(t *testing.T) models.InvestmentPlan {
	t.Helper()
	code, resp := e.do(t, http.MethodPost, "/investment-plans", map[string]any{
		"name":              "Starter",
		"minimumInvestment": "100",
		"maximumInvestment": 1000,
		"profitPercentage":  "10",
		"durationDays":      30,
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	return decode[models.InvestmentPlan](t, resp.Data)
}

func TestHealthEndpoints(t *testing.T) {
	env := setupTest(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestInvestmentFlow(t *testing.T) {
	env := setupTest(t)
	plan := env.createPlan(t)
	user := env.createUser(t, "alice@example.com", "600")

	code, resp := env.do(t, http.MethodPost, "/investments", map[string]any{
		"userId": user.ID, "planId": plan.ID, "investedAmount": 500,
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	assert.True(t, resp.Success)
	inv := decode[models.Investment](t, resp.Data)
	assert.True(t, decimal.RequireFromString("550").Equal(inv.ExpectedReturn))
	require.NotNil(t, inv.Plan)
	assert.Equal(t, plan.ID, inv.Plan.ID)

	code, resp = env.do(t, http.MethodGet, "/wallets/"+user.ID, nil)
	require.Equal(t, http.StatusOK, code)
	wallet := decode[models.Wallet](t, resp.Data)
	assert.True(t, decimal.RequireFromString("100").Equal(wallet.Balance))

	env.now = env.now.AddDate(0, 0, 31)
	code, resp = env.do(t, http.MethodPost, "/investments/update-status", nil)
	require.Equal(t, http.StatusOK, code)
	report := decode[investment.MaturityReport](t, resp.Data)
	assert.Equal(t, 1, report.Updated)
	require.Len(t, report.Investments, 1)
	assert.Equal(t, inv.ID, report.Investments[0].ID)

	code, resp = env.do(t, http.MethodPost, "/investments/update-status", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, decode[investment.MaturityReport](t, resp.Data).Updated)

	code, resp = env.do(t, http.MethodGet, "/investments?userId="+user.ID+"&status=completed", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.Investment](t, resp.Data), 1)

	code, resp = env.do(t, http.MethodGet, "/transactions?userId="+user.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.Transaction](t, resp.Data), 2)

	code, resp = env.do(t, http.MethodGet, "/wallets/"+user.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decimal.RequireFromString("650").Equal(decode[models.Wallet](t, resp.Data).Balance))
}

func TestCreateInvestment_Errors(t *testing.T) {
	env := setupTest(t)
	plan := env.createPlan(t)
	user := env.createUser(t, "bob@example.com", "300")

	testCases := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{name: "below minimum", body: map[string]any{"userId": user.ID, "planId": plan.ID, "investedAmount": "50"}, status: http.StatusBadRequest, message: "investment amount must be between 100.00 and 1000.00"},
		{name: "insufficient funds", body: map[string]any{"userId": user.ID, "planId": plan.ID, "investedAmount": "500"}, status: http.StatusBadRequest, message: "insufficient wallet balance"},
		{name: "unknown plan", body: map[string]any{"userId": user.ID, "planId": "nope", "investedAmount": "200"}, status: http.StatusNotFound, message: "investment plan not found"},
		{name: "missing user", body: map[string]any{"planId": plan.ID, "investedAmount": "200"}, status: http.StatusBadRequest, message: "userId is required"},
		{name: "non-numeric amount", body: map[string]any{"userId": user.ID, "planId": plan.ID, "investedAmount": "lots"}, status: http.StatusBadRequest, message: "invalid request body"},
		{name: "malformed json", body: "{", status: http.StatusBadRequest, message: "invalid request body"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, resp := env.do(t, http.MethodPost, "/investments", tc.body)
			assert.Equal(t, tc.status, code)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.message, resp.Error)
		})
	}

	code, resp := env.do(t, http.MethodGet, "/wallets/"+user.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decimal.RequireFromString("300").Equal(decode[models.Wallet](t, resp.Data).Balance))
}

func TestListInvestments_RequiresUser(t *testing.T) {
	env := setupTest(t)
	code, resp := env.do(t, http.MethodGet, "/investments", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "userId is required", resp.Error)
}

func TestPlanEndpoints(t *testing.T) {
	env := setupTest(t)
	plan := env.createPlan(t)

	code, resp := env.do(t, http.MethodGet, "/investment-plans/"+plan.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Starter", decode[models.InvestmentPlan](t, resp.Data).Name)

	code, resp = env.do(t, http.MethodPatch, "/investment-plans/"+plan.ID+"/status", map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[models.InvestmentPlan](t, resp.Data).IsActive)

	code, resp = env.do(t, http.MethodGet, "/investment-plans?active=true", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]models.InvestmentPlan](t, resp.Data))

	code, resp = env.do(t, http.MethodGet, "/investment-plans", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.InvestmentPlan](t, resp.Data), 1)

	code, _ = env.do(t, http.MethodPatch, "/investment-plans/"+plan.ID+"/status", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodGet, "/investment-plans/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = env.do(t, http.MethodPost, "/investment-plans", map[string]any{
		"name": "Broken", "minimumInvestment": "500", "maximumInvestment": "100", "durationDays": 10,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "maximumInvestment")
}

func TestMarketEndpoints(t *testing.T) {
	env := setupTest(t)
	require.NoError(t, database.SeedTradingPairs(context.Background(), env.db, []config.TradingPair{
		{Symbol: "BTC/USDT", BaseAsset: "BTC", QuoteAsset: "USDT", PricePrecision: 2, AmountPrecision: 6},
	}, zap.NewNop()))
	var pair models.TradingPair
	require.NoError(t, env.db.First(&pair, "symbol = ?", "BTC/USDT").Error)

	for _, p := range []string{"10", "12", "11"} {
		require.NoError(t, env.db.Create(&models.Order{
			UserID: "u1", TradingPairID: pair.ID, Side: models.OrderSideBuy, Type: models.OrderTypeLimit,
			Price: decimal.RequireFromString(p), Amount: decimal.NewFromInt(1), Status: models.OrderPending,
		}).Error)
	}

	code, resp := env.do(t, http.MethodGet, "/orders/orderbook?tradingPair=BTC/USDT&limit=10", nil)
	require.Equal(t, http.StatusOK, code)
	book := decode[market.OrderBook](t, resp.Data)
	require.Len(t, book.BuyOrders, 3)
	assert.Equal(t, "12", book.BuyOrders[0].Price.String())
	assert.Empty(t, book.SellOrders)

	code, resp = env.do(t, http.MethodGet, "/orders/orderbook?tradingPair=UNKNOWN", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"buyOrders":[],"sellOrders":[]}`, string(resp.Data))

	code, resp = env.do(t, http.MethodGet, "/orders/trades?tradingPair=UNKNOWN", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"trades":[]}`, string(resp.Data))

	code, resp = env.do(t, http.MethodGet, "/orders/orderbook?tradingPair=BTC/USDT&limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "limit must be an integer", resp.Error)

	code, resp = env.do(t, http.MethodGet, "/market/ticker?tradingPair=BTC/USDT", nil)
	require.Equal(t, http.StatusOK, code)
	ticker := decode[market.Ticker](t, resp.Data)
	require.NotNil(t, ticker.BestBid)
	assert.Equal(t, "12", ticker.BestBid.String())
	assert.Nil(t, ticker.ReferencePrice)

	code, _ = env.do(t, http.MethodGet, "/market/ticker?tradingPair=UNKNOWN", nil)
	assert.Equal(t, http.StatusNotFound, code)

	for _, path := range []string{"/orders/orderbook", "/orders/trades?tradingPair=", "/market/ticker?tradingPair=%20"} {
		code, resp = env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, code, path)
		assert.False(t, resp.Success, path)
		assert.Equal(t, "tradingPair is required", resp.Error, path)
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	env := setupTest(t)
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	code, resp := env.do(t, http.MethodGet, "/investment-plans", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "internal server error", resp.Error)
}

func TestNoRoute(t *testing.T) {
	env := setupTest(t)
	code, resp := env.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
}
