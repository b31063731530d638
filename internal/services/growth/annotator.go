// Package growth produces trailing price/volume trend annotations from
// monthly candlestick series.
package growth

import (
	"context"
	"fmt"
	"strings"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"go.uber.org/zap"

	"binance-portfolio-tracker/internal/domain"
	"binance-portfolio-tracker/internal/services/venue"
)

const (
	klineLimit = 14
	emaPeriod  = 3
)

var horizons = []int{3, 6, 12}

// Annotator fills a position's growth annotation and month series from the
// venue's monthly candles. Annotation failures are never fatal to a gather.
type Annotator struct {
	api    venue.API
	logger *zap.Logger
}

// NewAnnotator builds an annotator over the given venue.
func NewAnnotator(api venue.API, logger *zap.Logger) *Annotator {
	return &Annotator{api: api, logger: logger}
}

// Annotate fetches up to 14 monthly candles for the position's asset, quoted
// in USDC with a BTC fallback, and renders the 3/6/12 month price and volume
// trend. When no candle series exists the annotation stays "none".
func (a *Annotator) Annotate(ctx context.Context, pos *domain.Position) {
	var (
		klines []venue.Kline
		quote  string
	)
	for _, q := range []string{"USDC", "BTC"} {
		if pos.Asset == q {
			continue
		}
		k, err := a.api.MonthKlines(ctx, pos.Asset+q, klineLimit)
		if err != nil {
			a.logger.Debug("month klines unavailable",
				zap.String("symbol", pos.Asset+q), zap.Error(err))
			continue
		}
		if len(k) > 0 {
			klines, quote = k, q
			break
		}
	}
	if len(klines) == 0 {
		return
	}

	// The newest candle covers the running month and is incomplete.
	klines = klines[:len(klines)-1]
	if len(klines) == 0 {
		return
	}

	closes := make([]float64, len(klines))
	volumes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
		volumes[i] = k.Volume
	}

	pos.Months = domain.MonthSeries{Symbol: quote, Closes: closes, Volumes: volumes}
	pos.Growth = fmt.Sprintf("Price: %s%s\nVolume: %s",
		trendLine(closes, false), emaDirection(closes), trendLine(volumes, true))
}

// trendLine renders percent change over each horizon, e.g.
// "3M +12.3% | 6M -4.0% | 12M n/a".
func trendLine(series []float64, withAbs bool) string {
	parts := make([]string, 0, len(horizons))
	for _, m := range horizons {
		last := len(series) - 1
		if m > last || series[last-m] == 0 {
			parts = append(parts, fmt.Sprintf("%dM n/a", m))
			continue
		}
		pct := (series[last] - series[last-m]) / series[last-m] * 100
		part := fmt.Sprintf("%dM %+.1f%%", m, pct)
		if withAbs {
			part += fmt.Sprintf(" (%s)", withSuffix(series[last]))
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " | ")
}

func withSuffix(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.2fK", v/1_000)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// emaDirection reports the short EMA slope over closes as a suffix like
// " | EMA3 up", or an empty string when the series is too short.
func emaDirection(closes []float64) string {
	if len(closes) <= emaPeriod {
		return ""
	}

	ema := trend.NewEmaWithPeriod[float64](emaPeriod)
	values := helper.ChanToSlice(ema.Compute(helper.SliceToChan(closes)))
	if len(values) < 2 {
		return ""
	}

	latest, previous := values[len(values)-1], values[len(values)-2]
	switch {
	case latest > previous:
		return " | EMA3 up"
	case latest < previous:
		return " | EMA3 down"
	default:
		return " | EMA3 flat"
	}
}
