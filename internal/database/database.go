package database

import (
	"context"
	"fmt"

	"cryptovest/internal/config"
	"cryptovest/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDatabase opens the configured store, sizes the connection pool and migrates the schema.
// The returned handle is meant to be built once per process and passed to every component.
func NewDatabase(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the tables for every model. Existing data is kept.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Transaction{},
		&models.InvestmentPlan{},
		&models.Investment{},
		&models.TradingPair{},
		&models.Order{},
		&models.Trade{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// SeedTradingPairs makes sure every pair listed in the config exists in the catalog.
// Pairs already present are left untouched.
func SeedTradingPairs(ctx context.Context, db *gorm.DB, pairs []config.TradingPair, log *zap.Logger) error {
	for _, p := range pairs {
		if p.Symbol == "" || p.BaseAsset == "" || p.QuoteAsset == "" {
			return fmt.Errorf("trading pair %q is missing symbol or assets", p.Symbol)
		}
		pair := models.TradingPair{
			Symbol:          p.Symbol,
			BaseAsset:       p.BaseAsset,
			QuoteAsset:      p.QuoteAsset,
			PricePrecision:  p.PricePrecision,
			AmountPrecision: p.AmountPrecision,
			MakerFee:        decimal.NewFromFloat(p.MakerFee),
			TakerFee:        decimal.NewFromFloat(p.TakerFee),
			IsActive:        true,
		}
		res := db.WithContext(ctx).Where(models.TradingPair{Symbol: p.Symbol}).FirstOrCreate(&pair)
		if res.Error != nil {
			return fmt.Errorf("failed to populate trading pair '%s': %w", p.Symbol, res.Error)
		}
		if res.RowsAffected > 0 {
			log.Info("Trading pair registered", zap.String("symbol", p.Symbol))
		}
	}
	return nil
}
