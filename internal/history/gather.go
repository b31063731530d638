package history

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"binance-portfolio-tracker/internal/domain"
	"binance-portfolio-tracker/internal/services/valuation"
)

// GatherIfDue builds one new snapshot from the venue unless the newest
// recorded snapshot is younger than the gather interval. It reports whether
// a snapshot was gathered. On any venue failure the partial snapshot is
// discarded and the recorded history stays untouched.
func (h *History) GatherIfDue(ctx context.Context) (bool, error) {
	var last int64
	for _, snap := range h.snapshots {
		if snap.Timestamp > last {
			last = snap.Timestamp
		}
	}

	now := h.now()
	if age := now.Unix() - last; age < int64(h.cfg.GatherInterval.Seconds()) {
		h.logger.Info("newest snapshot is fresh, not gathering",
			zap.Int64("age_seconds", age),
			zap.Duration("gather_interval", h.cfg.GatherInterval))
		return false, nil
	}

	snap := domain.NewSnapshot(now)
	if err := h.gather(ctx, snap, last); err != nil {
		return false, err
	}

	h.snapshots = append(h.snapshots, snap)
	h.sortByTime()
	h.logger.Info("gathered new snapshot",
		zap.String("id", snap.ID), zap.Int("assets", len(snap.Assets)))

	return true, nil
}

func (h *History) gather(ctx context.Context, snap *domain.Snapshot, since int64) error {
	h.logger.Info("gathering spot wallet balances")
	balances, err := h.api.Balances(ctx)
	if err != nil {
		return err
	}
	for _, bal := range balances {
		// LD-prefixed assets mirror flexible-earn positions and are
		// accounted for by the earn gathering below.
		if bal.Free+bal.Locked <= 0 || strings.HasPrefix(bal.Asset, "LD") {
			continue
		}
		pos := snap.GetOrCreate(bal.Asset)
		pos.AddWallet(bal.Free, bal.Locked)

		available, err := h.api.FlexibleProductAvailable(ctx, bal.Asset)
		if err != nil {
			return errors.Wrapf(err, "flexible product list for %s", bal.Asset)
		}
		pos.HasFlexible = available
	}

	h.logger.Info("gathering locked earn positions")
	locked, err := h.api.LockedPositions(ctx)
	if err != nil {
		return err
	}
	for _, position := range locked {
		snap.GetOrCreate(position.Asset).AddLocked(position.Amount)
	}

	h.logger.Info("gathering flexible earn positions")
	flexible, err := h.api.FlexiblePositions(ctx)
	if err != nil {
		return err
	}
	for _, position := range flexible {
		pos := snap.GetOrCreate(position.Asset)
		pos.AddFlexible(position.Amount)

		available, err := h.api.LockedProductAvailable(ctx, position.Asset)
		if err != nil {
			return errors.Wrapf(err, "locked product list for %s", position.Asset)
		}
		pos.HasLocked = available
	}

	h.logger.Info("gathering recurring-plan holdings")
	holdings, err := h.api.PlanHoldings(ctx)
	if err != nil {
		return err
	}
	for _, holding := range holdings {
		snap.GetOrCreate(holding.Asset).AddPlan(holding.Amount)
	}

	h.logger.Info("gathering fiat purchases")
	purchases, err := h.api.FiatPurchases(ctx)
	if err != nil {
		return err
	}
	for _, payment := range purchases {
		if h.inWindow(payment.Time.Unix(), since, snap.Timestamp) {
			snap.GetOrCreate(payment.Asset).AddDeposit(payment.Amount)
		}
	}

	h.logger.Info("gathering crypto deposits")
	deposits, err := h.api.Deposits(ctx)
	if err != nil {
		return err
	}
	for _, payment := range deposits {
		if h.inWindow(payment.Time.Unix(), since, snap.Timestamp) {
			snap.GetOrCreate(payment.Asset).AddDeposit(payment.Amount)
		}
	}

	if h.annotate != nil {
		h.logger.Info("annotating price and volume growth")
		for _, asset := range snap.SortedAssets() {
			h.annotate.Annotate(ctx, snap.Assets[asset])
		}
	}

	h.logger.Info("valuing snapshot in anchor currencies",
		zap.Strings("anchors", h.cfg.Anchors))
	prices, err := h.api.Prices(ctx)
	if err != nil {
		return err
	}

	// The price table is time-sensitive and scoped to this one snapshot.
	resolver := valuation.NewResolver(prices, h.cfg.RouteAnchors)
	for asset, convErr := range snap.ComputeTotals(resolver, h.cfg.Anchors) {
		h.logger.Warn("skipping asset valuation",
			zap.String("asset", asset), zap.Error(convErr))
	}

	return nil
}

// Deposits count toward a snapshot when they happened between the previous
// snapshot and this one.
func (h *History) inWindow(ts, since, until int64) bool {
	return since <= ts && ts <= until
}
