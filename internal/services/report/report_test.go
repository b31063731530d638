package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"binance-portfolio-tracker/internal/domain"
)

func TestRowPercent(t *testing.T) {
	require.InDelta(t, 21, Row{Newer: 1.21, Older: 1.0}.Percent(), 1e-9)
	require.InDelta(t, 10, Row{Newer: 1.21, Older: 1.1}.Percent(), 1e-9)
	require.InDelta(t, -50, Row{Newer: 0.5, Older: 1.0}.Percent(), 1e-9)
	require.Zero(t, Row{Newer: 5, Older: 0}.Percent(), "new assets have no base to grow from")
}

func TestRowPercentPerDay(t *testing.T) {
	r := Row{Newer: 1.21, Older: 1.1}
	require.InDelta(t, 1.0, r.PercentPerDay(10), 1e-9)
	require.InDelta(t, 0.5, r.PercentPerDay(20), 1e-9)
	require.InDelta(t, 10, r.PercentPerDay(0), 1e-9, "same-day comparisons use one day")
	require.InDelta(t, 10, r.PercentPerDay(0.4), 1e-9)
}

func snapshotWithTotal(ts time.Time, asset string, wallet float64) *domain.Snapshot {
	s := domain.NewSnapshot(ts)
	s.GetOrCreate(asset).AddWallet(wallet, 0)
	return s
}

func TestCompareTotals(t *testing.T) {
	older := snapshotWithTotal(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), "ETH", 1.0)
	newer := snapshotWithTotal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), "ETH", 1.21)

	older.Totals["BTC"] = &domain.ConvertedTotal{Name: "BTC", Total: 1.0, Deposit: 0.1}
	newer.Totals["BTC"] = &domain.ConvertedTotal{Name: "BTC", Total: 1.21, Deposit: 0.2}

	c := Compare(newer, older, []string{"BTC"})
	require.InDelta(t, 10, c.Days, 1e-9)
	require.Len(t, c.Assets, 1)

	total := c.Assets[0].Rows[0]
	require.Equal(t, "Total", total.Label)
	require.InDelta(t, 0.21, total.Diff(), 1e-9)
	require.InDelta(t, 21, total.Percent(), 1e-9)
	require.InDelta(t, 2.1, total.PercentPerDay(c.Days), 1e-9)

	require.Len(t, c.Anchors, 1)
	sum := c.Anchors[0]
	require.Equal(t, "Sum BTC", sum.All.Label)
	require.InDelta(t, 0.21, sum.All.Diff(), 1e-9)
	require.InDelta(t, 1.21-0.2, sum.ExcludingDeposits.Newer, 1e-9)
	require.InDelta(t, 1.0-0.1, sum.ExcludingDeposits.Older, 1e-9)
}

func TestCompareNewAssetAgainstZero(t *testing.T) {
	older := domain.NewSnapshot(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	newer := snapshotWithTotal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), "SOL", 5)

	c := Compare(newer, older, nil)
	require.Len(t, c.Assets, 1)

	total := c.Assets[0].Rows[0]
	require.InDelta(t, 5, total.Newer, 1e-9)
	require.Zero(t, total.Older)
	require.Zero(t, total.Percent())
}

func TestCompareConditionalRows(t *testing.T) {
	older := domain.NewSnapshot(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	newer := domain.NewSnapshot(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))

	pos := newer.GetOrCreate("ETH")
	pos.AddWallet(1, 0)
	pos.AddFlexible(2)
	pos.AddDeposit(3)
	older.GetOrCreate("ETH").AddWallet(1, 0)

	c := Compare(newer, older, nil)
	labels := make([]string, 0)
	var deposit Row
	for _, row := range c.Assets[0].Rows {
		labels = append(labels, row.Label)
		if row.Label == "Deposit" {
			deposit = row
		}
	}

	require.Contains(t, labels, "Total")
	require.Contains(t, labels, "Total-Plan")
	require.Contains(t, labels, "Spot+Order")
	require.Contains(t, labels, "Earn-Flexible")
	require.Contains(t, labels, "Deposit")
	require.NotContains(t, labels, "Earn-Locked")
	require.NotContains(t, labels, "Liquidity")
	require.NotContains(t, labels, "Withdraw")
	require.False(t, deposit.WithDays, "flow rows carry no per-day rate")
}

func TestCompareHints(t *testing.T) {
	older := domain.NewSnapshot(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	newer := domain.NewSnapshot(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))

	pos := newer.GetOrCreate("ETH")
	pos.AddWallet(1, 0)
	pos.HasFlexible = true
	pos.AddFlexible(2)
	pos.HasLocked = true

	c := Compare(newer, older, nil)
	require.Len(t, c.Assets[0].Hints, 2)
	require.Contains(t, c.Assets[0].Hints[0], "Earn-Flexible")
	require.Contains(t, c.Assets[0].Hints[1], "Earn-Locked")
}

func TestCompareGrowthAnnotation(t *testing.T) {
	older := domain.NewSnapshot(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	newer := domain.NewSnapshot(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))

	newer.GetOrCreate("ETH").Growth = "Price: 3M +1.0%"
	newer.GetOrCreate("BNB")

	c := Compare(newer, older, nil)
	require.Equal(t, "BNB", c.Assets[0].Asset)
	require.Empty(t, c.Assets[0].Growth, `the "none" placeholder is not rendered`)
	require.Equal(t, "Price: 3M +1.0%", c.Assets[1].Growth)
}

func TestRenderWritesAllSections(t *testing.T) {
	older := snapshotWithTotal(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), "ETH", 1.0)
	newer := snapshotWithTotal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), "ETH", 1.21)
	newer.Totals["BTC"] = &domain.ConvertedTotal{Name: "BTC", Total: 1.21}
	older.Totals["BTC"] = &domain.ConvertedTotal{Name: "BTC", Total: 1.0}

	var buf bytes.Buffer
	Render(&buf, "Lifetime growth", Compare(newer, older, []string{"BTC"}))

	out := buf.String()
	require.Contains(t, out, "Lifetime growth")
	require.Contains(t, out, "ETH")
	require.Contains(t, out, "Total")
	require.Contains(t, out, "Sum BTC")
	require.Contains(t, out, "Sum BTC -depo")
	require.Contains(t, out, "Newer")
	require.Contains(t, out, "%/day")
}
