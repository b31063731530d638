package venue

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	earnPageSize    = 100
	productPageSize = 20

	fiatTransactionBuy = "0"
)

// Binance adapts the venue interface onto the Binance spot account API.
// Endpoints covered by the SDK go through it; the simple-earn, auto-invest
// and fiat endpoints are called through a signed sapi helper.
type Binance struct {
	client *binance.Client
	sapi   *sapiClient
	logger *zap.Logger
}

// NewBinance builds the adapter for the given credential pair.
func NewBinance(apiKey, apiSecret string, logger *zap.Logger) *Binance {
	return &Binance{
		client: binance.NewClient(apiKey, apiSecret),
		sapi:   newSAPIClient(apiKey, apiSecret),
		logger: logger,
	}
}

func parseAmount(field, s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s %q", field, s)
	}
	f, _ := d.Float64()
	return f, nil
}

// Balances returns the current spot wallet balances.
func (b *Binance) Balances(ctx context.Context) ([]Balance, error) {
	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "binance account")
	}

	balances := make([]Balance, 0, len(account.Balances))
	for _, bal := range account.Balances {
		free, err := parseAmount("free", bal.Free)
		if err != nil {
			return nil, err
		}
		locked, err := parseAmount("locked", bal.Locked)
		if err != nil {
			return nil, err
		}
		balances = append(balances, Balance{Asset: bal.Asset, Free: free, Locked: locked})
	}

	return balances, nil
}

// Prices returns the full ticker list as pairSymbol -> last price.
func (b *Binance) Prices(ctx context.Context) (map[string]float64, error) {
	prices, err := b.client.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "binance ticker prices")
	}

	table := make(map[string]float64, len(prices))
	for _, p := range prices {
		price, err := parseAmount("price", p.Price)
		if err != nil {
			return nil, err
		}
		table[p.Symbol] = price
	}

	b.logger.Debug("gathered ticker prices", zap.Int("pairs", len(table)))
	return table, nil
}

// MonthKlines returns up to limit monthly candles for the pair symbol.
func (b *Binance) MonthKlines(ctx context.Context, symbol string, limit int) ([]Kline, error) {
	raw, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval("1M").
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "binance klines %s", symbol)
	}

	klines := make([]Kline, 0, len(raw))
	for _, k := range raw {
		closePrice, err := parseAmount("close", k.Close)
		if err != nil {
			return nil, err
		}
		volume, err := parseAmount("volume", k.Volume)
		if err != nil {
			return nil, err
		}
		klines = append(klines, Kline{
			OpenTime: time.UnixMilli(k.OpenTime),
			Close:    closePrice,
			Volume:   volume,
		})
	}

	return klines, nil
}

// Deposits returns crypto deposit history.
func (b *Binance) Deposits(ctx context.Context) ([]Payment, error) {
	deposits, err := b.client.NewListDepositsService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "binance deposit history")
	}

	payments := make([]Payment, 0, len(deposits))
	for _, d := range deposits {
		amount, err := parseAmount("amount", d.Amount)
		if err != nil {
			return nil, err
		}
		payments = append(payments, Payment{
			Asset:  d.Coin,
			Amount: amount,
			Time:   time.UnixMilli(d.InsertTime),
		})
	}

	return payments, nil
}

type earnPositionRows struct {
	Rows []struct {
		Asset       string `json:"asset"`
		Amount      string `json:"amount"`
		TotalAmount string `json:"totalAmount"`
	} `json:"rows"`
	Total int `json:"total"`
}

func (b *Binance) earnPositions(ctx context.Context, path, amountField string) ([]EarnPosition, error) {
	var positions []EarnPosition

	for current, pages := 1, 1; current <= pages; current++ {
		params := url.Values{}
		params.Set("current", strconv.Itoa(current))
		params.Set("size", strconv.Itoa(earnPageSize))

		var page earnPositionRows
		if err := b.sapi.get(ctx, path, params, &page); err != nil {
			return nil, err
		}
		pages = (page.Total + earnPageSize - 1) / earnPageSize

		for _, row := range page.Rows {
			raw := row.TotalAmount
			if amountField == "amount" {
				raw = row.Amount
			}
			amount, err := parseAmount(amountField, raw)
			if err != nil {
				return nil, err
			}
			positions = append(positions, EarnPosition{Asset: row.Asset, Amount: amount})
		}
	}

	return positions, nil
}

// FlexiblePositions returns all flexible earn positions.
func (b *Binance) FlexiblePositions(ctx context.Context) ([]EarnPosition, error) {
	return b.earnPositions(ctx, "/sapi/v1/simple-earn/flexible/position", "totalAmount")
}

// LockedPositions returns all locked earn positions.
func (b *Binance) LockedPositions(ctx context.Context) ([]EarnPosition, error) {
	return b.earnPositions(ctx, "/sapi/v1/simple-earn/locked/position", "amount")
}

// FlexibleProductAvailable reports whether the asset has a flexible earn
// product that is not sold out.
func (b *Binance) FlexibleProductAvailable(ctx context.Context, asset string) (bool, error) {
	params := url.Values{}
	params.Set("asset", asset)
	params.Set("size", strconv.Itoa(productPageSize))

	var list struct {
		Rows []struct {
			IsSoldOut bool `json:"isSoldOut"`
		} `json:"rows"`
		Total int `json:"total"`
	}
	if err := b.sapi.get(ctx, "/sapi/v1/simple-earn/flexible/list", params, &list); err != nil {
		return false, err
	}

	soldOut := 0
	for _, row := range list.Rows {
		if row.IsSoldOut {
			soldOut++
		}
	}

	return list.Total > 0 && soldOut < list.Total, nil
}

// LockedProductAvailable reports whether the asset has a locked earn product
// that is not sold out.
func (b *Binance) LockedProductAvailable(ctx context.Context, asset string) (bool, error) {
	params := url.Values{}
	params.Set("asset", asset)
	params.Set("size", strconv.Itoa(productPageSize))

	var list struct {
		Rows []struct {
			Detail struct {
				IsSoldOut bool `json:"isSoldOut"`
			} `json:"detail"`
		} `json:"rows"`
		Total int `json:"total"`
	}
	if err := b.sapi.get(ctx, "/sapi/v1/simple-earn/locked/list", params, &list); err != nil {
		return false, err
	}

	soldOut := 0
	for _, row := range list.Rows {
		if row.Detail.IsSoldOut {
			soldOut++
		}
	}

	return list.Total > 0 && soldOut < list.Total, nil
}

// PlanHoldings returns the per-asset holdings of all recurring-buy plans.
func (b *Binance) PlanHoldings(ctx context.Context) ([]PlanHolding, error) {
	params := url.Values{}
	params.Set("planType", "PORTFOLIO")

	var plans struct {
		Plans []struct {
			PlanID json.Number `json:"planId"`
		} `json:"plans"`
	}
	if err := b.sapi.get(ctx, "/sapi/v1/lending/auto-invest/plan/list", params, &plans); err != nil {
		return nil, err
	}

	var holdings []PlanHolding
	for _, plan := range plans.Plans {
		params := url.Values{}
		params.Set("planId", plan.PlanID.String())

		var details struct {
			Details []struct {
				TargetAsset     string      `json:"targetAsset"`
				PurchasedAmount json.Number `json:"purchasedAmount"`
			} `json:"details"`
		}
		if err := b.sapi.get(ctx, "/sapi/v1/lending/auto-invest/plan/id", params, &details); err != nil {
			return nil, err
		}

		for _, detail := range details.Details {
			amount, err := detail.PurchasedAmount.Float64()
			if err != nil {
				return nil, errors.Wrapf(err, "parse purchasedAmount %q", detail.PurchasedAmount)
			}
			holdings = append(holdings, PlanHolding{Asset: detail.TargetAsset, Amount: amount})
		}
	}

	return holdings, nil
}

// FiatPurchases returns completed fiat buy transactions.
func (b *Binance) FiatPurchases(ctx context.Context) ([]Payment, error) {
	params := url.Values{}
	params.Set("transactionType", fiatTransactionBuy)

	var history struct {
		Data []struct {
			CryptoCurrency string      `json:"cryptoCurrency"`
			ObtainAmount   string      `json:"obtainAmount"`
			UpdateTime     json.Number `json:"updateTime"`
		} `json:"data"`
	}
	if err := b.sapi.get(ctx, "/sapi/v1/fiat/payments", params, &history); err != nil {
		return nil, err
	}

	payments := make([]Payment, 0, len(history.Data))
	for _, data := range history.Data {
		amount, err := parseAmount("obtainAmount", data.ObtainAmount)
		if err != nil {
			return nil, err
		}
		ms, err := data.UpdateTime.Int64()
		if err != nil {
			return nil, errors.Wrapf(err, "parse updateTime %q", data.UpdateTime)
		}
		payments = append(payments, Payment{
			Asset:  data.CryptoCurrency,
			Amount: amount,
			Time:   time.UnixMilli(ms),
		})
	}

	return payments, nil
}
