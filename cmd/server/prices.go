package main

import (
	"context"
	"time"

	"cryptovest/internal/market"

	"go.uber.org/zap"
)

const connectivityTimeout = 15 * time.Second

// exchangeClient is the part of the Binance client used at startup.
type exchangeClient interface {
	market.PriceSource
	GetServerTime(ctx context.Context) (int64, error)
}

// referencePrices checks that the exchange answers before using it as the
// ticker price source. An unreachable exchange leaves reference prices off.
func referencePrices(ctx context.Context, client exchangeClient, log *zap.Logger) market.PriceSource {
	ctx, cancel := context.WithTimeout(ctx, connectivityTimeout)
	defer cancel()

	serverTime, err := client.GetServerTime(ctx)
	if err != nil {
		log.Warn("Binance unreachable, reference prices disabled", zap.Error(err))
		return nil
	}

	skew := time.Since(time.UnixMilli(serverTime))
	log.Info("Binance reference prices enabled", zap.Duration("clock_skew", skew))
	return client
}
