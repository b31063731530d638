// Package report computes and renders growth comparisons between two
// snapshots.
package report

import (
	"binance-portfolio-tracker/internal/domain"
)

const secondsPerDay = 24 * 60 * 60

// Row compares one metric between the newer and older snapshot.
type Row struct {
	Label string
	Newer float64
	Older float64
	// Flow rows (deposit, withdraw) are window totals; a per-day rate is
	// meaningless for them.
	WithDays bool
}

// Diff returns the absolute difference.
func (r Row) Diff() float64 {
	return r.Newer - r.Older
}

// Percent returns the percentage change, zero when the older value is zero.
func (r Row) Percent() float64 {
	if r.Older <= 0 {
		return 0
	}
	return r.Newer/r.Older*100 - 100
}

// PercentPerDay spreads the percentage change over the given number of days,
// floored at one day so same-day comparisons stay finite.
func (r Row) PercentPerDay(days float64) float64 {
	if days < 1 {
		days = 1
	}
	return r.Percent() / days
}

// AssetDiff is the comparison of one asset's buckets.
type AssetDiff struct {
	Asset string
	Rows  []Row
	// Hints flag unused yield opportunities on the newer snapshot.
	Hints []string
	// Growth carries the newer position's trend annotation, empty when
	// unavailable.
	Growth string
}

// AnchorDiff is the portfolio-level comparison in one anchor currency, with
// and without the capital deposited along the way.
type AnchorDiff struct {
	Anchor            string
	All               Row
	ExcludingDeposits Row
}

// Comparison is the full diff of two snapshots.
type Comparison struct {
	NewerTime string
	OlderTime string
	Days      float64
	Assets    []AssetDiff
	Anchors   []AnchorDiff
}

// Compare diffs every asset present in the newer snapshot against the older
// one, substituting a zero-valued position when the asset is new, and
// aggregates portfolio totals per anchor currency.
func Compare(newer, older *domain.Snapshot, anchors []string) Comparison {
	c := Comparison{
		NewerTime: newer.Time,
		OlderTime: older.Time,
		Days:      float64(newer.Timestamp-older.Timestamp) / secondsPerDay,
	}

	for _, asset := range newer.SortedAssets() {
		n := newer.Assets[asset]
		o, ok := older.Assets[asset]
		if !ok {
			o = domain.NewPosition(asset)
		}
		c.Assets = append(c.Assets, compareAsset(n, o))
	}

	for _, anchor := range anchors {
		nt := newer.TotalFor(anchor)
		ot := older.TotalFor(anchor)
		c.Anchors = append(c.Anchors, AnchorDiff{
			Anchor: anchor,
			All: Row{
				Label:    "Sum " + anchor,
				Newer:    nt.Total,
				Older:    ot.Total,
				WithDays: true,
			},
			ExcludingDeposits: Row{
				Label:    "Sum " + anchor + " -depo",
				Newer:    nt.Total - nt.Deposit,
				Older:    ot.Total - ot.Deposit,
				WithDays: true,
			},
		})
	}

	return c
}

func compareAsset(n, o *domain.Position) AssetDiff {
	diff := AssetDiff{Asset: n.Asset}

	add := func(label string, newer, older float64, withDays bool) {
		diff.Rows = append(diff.Rows, Row{
			Label:    label,
			Newer:    newer,
			Older:    older,
			WithDays: withDays,
		})
	}

	add("Total", n.Total(), o.Total(), true)
	add("Total-Plan", n.Total()-n.Plan, o.Total()-o.Plan, true)
	add("Spot+Order", n.WalletTotal, o.WalletTotal, true)

	if n.WalletLocked > 0 || o.WalletLocked > 0 {
		add("Order-Locked", n.WalletLocked, o.WalletLocked, true)
	}
	if n.Flexible > 0 || o.Flexible > 0 {
		add("Earn-Flexible", n.Flexible, o.Flexible, true)
	}
	if n.Locked > 0 || o.Locked > 0 {
		add("Earn-Locked", n.Locked, o.Locked, true)
	}
	if n.Liquidity > 0 || o.Liquidity > 0 {
		add("Liquidity", n.Liquidity, o.Liquidity, true)
	}
	if n.Plan > 0 || o.Plan > 0 {
		add("Plan", n.Plan, o.Plan, true)
	}
	if n.PaymentDeposit > 0 || o.PaymentDeposit > 0 {
		add("Deposit", n.PaymentDeposit, o.PaymentDeposit, false)
	}
	if n.PaymentWithdraw > 0 || o.PaymentWithdraw > 0 {
		add("Withdraw", n.PaymentWithdraw, o.PaymentWithdraw, false)
	}

	if n.WalletFree > 0 && n.HasFlexible {
		diff.Hints = append(diff.Hints, "Earn-Flexible is available, but not used")
	}
	if n.Flexible > 0 && n.HasLocked {
		diff.Hints = append(diff.Hints, "Earn-Locked is available, but not used")
	}

	if n.Growth != "none" {
		diff.Growth = n.Growth
	}

	return diff
}
