// Package venue defines the read-only trading-venue surface the tracker
// consumes, and its Binance implementation.
package venue

import (
	"context"
	"time"
)

// Balance is one spot-wallet asset balance.
type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}

// EarnPosition is a flexible or locked yield-product position.
type EarnPosition struct {
	Asset  string
	Amount float64
}

// PlanHolding is one target asset held inside a recurring-buy plan.
type PlanHolding struct {
	Asset  string
	Amount float64
}

// Payment is a fiat purchase or crypto deposit credited to the account.
type Payment struct {
	Asset  string
	Amount float64
	Time   time.Time
}

// Kline is one candlestick of a monthly series.
type Kline struct {
	OpenTime time.Time
	Close    float64
	Volume   float64
}

// API is the read-only venue surface consumed during gathering.
type API interface {
	// Balances returns the current spot wallet balances.
	Balances(ctx context.Context) ([]Balance, error)
	// FlexiblePositions returns all flexible earn positions.
	FlexiblePositions(ctx context.Context) ([]EarnPosition, error)
	// LockedPositions returns all locked earn positions.
	LockedPositions(ctx context.Context) ([]EarnPosition, error)
	// FlexibleProductAvailable reports whether the asset has a flexible earn
	// product that is not sold out.
	FlexibleProductAvailable(ctx context.Context, asset string) (bool, error)
	// LockedProductAvailable reports whether the asset has a locked earn
	// product that is not sold out.
	LockedProductAvailable(ctx context.Context, asset string) (bool, error)
	// PlanHoldings returns the per-asset holdings of all recurring-buy plans.
	PlanHoldings(ctx context.Context) ([]PlanHolding, error)
	// FiatPurchases returns completed fiat buy transactions.
	FiatPurchases(ctx context.Context) ([]Payment, error)
	// Deposits returns crypto deposit history.
	Deposits(ctx context.Context) ([]Payment, error)
	// Prices returns the full ticker list as pairSymbol -> last price.
	Prices(ctx context.Context) (map[string]float64, error)
	// MonthKlines returns up to limit monthly candles for the pair symbol.
	MonthKlines(ctx context.Context, symbol string, limit int) ([]Kline, error)
}
