package history

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"binance-portfolio-tracker/internal/domain"
	"binance-portfolio-tracker/internal/services/venue"
)

type fakeAPI struct {
	balances  []venue.Balance
	flexible  []venue.EarnPosition
	locked    []venue.EarnPosition
	plans     []venue.PlanHolding
	fiat      []venue.Payment
	deposits  []venue.Payment
	prices    map[string]float64
	flexAvail bool
	lockAvail bool
}

func (f *fakeAPI) Balances(context.Context) ([]venue.Balance, error) { return f.balances, nil }
func (f *fakeAPI) FlexiblePositions(context.Context) ([]venue.EarnPosition, error) {
	return f.flexible, nil
}
func (f *fakeAPI) LockedPositions(context.Context) ([]venue.EarnPosition, error) {
	return f.locked, nil
}
func (f *fakeAPI) FlexibleProductAvailable(context.Context, string) (bool, error) {
	return f.flexAvail, nil
}
func (f *fakeAPI) LockedProductAvailable(context.Context, string) (bool, error) {
	return f.lockAvail, nil
}
func (f *fakeAPI) PlanHoldings(context.Context) ([]venue.PlanHolding, error) { return f.plans, nil }
func (f *fakeAPI) FiatPurchases(context.Context) ([]venue.Payment, error)    { return f.fiat, nil }
func (f *fakeAPI) Deposits(context.Context) ([]venue.Payment, error)         { return f.deposits, nil }
func (f *fakeAPI) Prices(context.Context) (map[string]float64, error)        { return f.prices, nil }
func (f *fakeAPI) MonthKlines(context.Context, string, int) ([]venue.Kline, error) {
	return nil, nil
}

type memStore struct {
	doc domain.Document
}

func (m *memStore) Load() (domain.Document, error) { return m.doc, nil }
func (m *memStore) Save(doc domain.Document) error { m.doc = doc; return nil }

func newTestHistory(api venue.API) *History {
	return New(Config{
		Anchors:      []string{"BTC", "USDC"},
		RouteAnchors: []string{"USDC", "USDT"},
	}, api, &memStore{}, nil, zap.NewNop())
}

func snapshotAt(ts time.Time) *domain.Snapshot {
	return domain.NewSnapshot(ts)
}

func TestGatherIfDueThrottles(t *testing.T) {
	api := &fakeAPI{
		balances: []venue.Balance{{Asset: "ETH", Free: 2}},
		prices:   map[string]float64{"ETHBTC": 0.05, "ETHUSDC": 2000},
	}
	h := newTestHistory(api)

	start := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return start }

	gathered, err := h.GatherIfDue(context.Background())
	require.NoError(t, err)
	require.True(t, gathered)
	require.Equal(t, 1, h.Len())

	// a second run inside the gather interval must be a no-op
	h.now = func() time.Time { return start.Add(30 * time.Minute) }
	gathered, err = h.GatherIfDue(context.Background())
	require.NoError(t, err)
	require.False(t, gathered)
	require.Equal(t, 1, h.Len())

	h.now = func() time.Time { return start.Add(2 * time.Hour) }
	gathered, err = h.GatherIfDue(context.Background())
	require.NoError(t, err)
	require.True(t, gathered)
	require.Equal(t, 2, h.Len())
}

func TestGatherBuildsPositions(t *testing.T) {
	start := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		balances: []venue.Balance{
			{Asset: "ETH", Free: 1, Locked: 0.5},
			{Asset: "LDETH", Free: 3},
			{Asset: "DUST", Free: 0},
		},
		flexible:  []venue.EarnPosition{{Asset: "ETH", Amount: 3}},
		locked:    []venue.EarnPosition{{Asset: "BNB", Amount: 7}},
		plans:     []venue.PlanHolding{{Asset: "ETH", Amount: 0.25}},
		fiat:      []venue.Payment{{Asset: "ETH", Amount: 2, Time: start.Add(-time.Minute)}},
		deposits:  []venue.Payment{{Asset: "BNB", Amount: 1, Time: start.Add(time.Hour)}},
		prices:    map[string]float64{"ETHBTC": 0.05, "ETHUSDC": 2000, "BNBBTC": 0.01, "BNBUSDC": 400},
		flexAvail: true,
		lockAvail: true,
	}

	h := newTestHistory(api)
	h.now = func() time.Time { return start }

	gathered, err := h.GatherIfDue(context.Background())
	require.NoError(t, err)
	require.True(t, gathered)

	snap := h.Latest()
	require.NotContains(t, snap.Assets, "LDETH", "earn mirror balances are skipped")
	require.NotContains(t, snap.Assets, "DUST")

	eth := snap.Assets["ETH"]
	require.InDelta(t, 1.5, eth.WalletTotal, 1e-8)
	require.InDelta(t, 3, eth.Flexible, 1e-8)
	require.InDelta(t, 0.25, eth.Plan, 1e-8)
	require.InDelta(t, 2, eth.PaymentDeposit, 1e-8)
	require.True(t, eth.HasFlexible)
	require.True(t, eth.HasLocked)

	bnb := snap.Assets["BNB"]
	require.InDelta(t, 7, bnb.Locked, 1e-8)
	require.Zero(t, bnb.PaymentDeposit, "deposits after the snapshot instant are not counted")

	// ETH total 4.75 * 0.05 + BNB 7 * 0.01
	require.InDelta(t, 0.3075, snap.TotalFor("BTC").Total, 1e-8)
	require.InDelta(t, 12300, snap.TotalFor("USDC").Total, 1e-6)
}

func TestGatherDepositWindowStartsAtPreviousSnapshot(t *testing.T) {
	start := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		balances: []venue.Balance{{Asset: "ETH", Free: 1}},
		prices:   map[string]float64{"ETHBTC": 0.05, "ETHUSDC": 2000},
	}
	h := newTestHistory(api)

	h.now = func() time.Time { return start }
	_, err := h.GatherIfDue(context.Background())
	require.NoError(t, err)

	api.deposits = []venue.Payment{
		{Asset: "ETH", Amount: 5, Time: start.Add(-time.Hour)}, // before previous snapshot
		{Asset: "ETH", Amount: 2, Time: start.Add(time.Hour)},  // inside the new window
	}
	h.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = h.GatherIfDue(context.Background())
	require.NoError(t, err)

	require.InDelta(t, 2, h.Latest().Assets["ETH"].PaymentDeposit, 1e-8)
}

func TestFindByDate(t *testing.T) {
	h := newTestHistory(&fakeAPI{})

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	t3 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	h.snapshots = []*domain.Snapshot{snapshotAt(t2), snapshotAt(t1), snapshotAt(t3)}

	require.Nil(t, h.FindByDate(t1.Add(-time.Second)), "date before all snapshots")
	require.Equal(t, t1.Unix(), h.FindByDate(t1).Timestamp, "exact match")
	require.Equal(t, t2.Unix(), h.FindByDate(t2.Add(24*time.Hour)).Timestamp)
	require.Equal(t, t3.Unix(), h.FindByDate(t3.Add(365*24*time.Hour)).Timestamp)
}

func TestComparisonSets(t *testing.T) {
	h := newTestHistory(&fakeAPI{})

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	t3 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	h.snapshots = []*domain.Snapshot{snapshotAt(t1), snapshotAt(t2), snapshotAt(t3)}

	earliest, before, latest, err := h.ComparisonSets(nil, 0)
	require.NoError(t, err)
	require.Equal(t, t1.Unix(), earliest.Timestamp)
	require.Equal(t, t2.Unix(), before.Timestamp)
	require.Equal(t, t3.Unix(), latest.Timestamp)

	override := t2.Add(-24 * time.Hour)
	_, before, _, err = h.ComparisonSets(&override, 0)
	require.NoError(t, err)
	require.Equal(t, t1.Unix(), before.Timestamp)

	_, before, _, err = h.ComparisonSets(nil, 100)
	require.NoError(t, err)
	require.Equal(t, t2.Unix(), before.Timestamp)

	tooEarly := t1.Add(-24 * time.Hour)
	_, _, _, err = h.ComparisonSets(&tooEarly, 0)
	var notFound *DateNotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, t1.Unix(), notFound.Earliest.Unix())
}

func TestComparisonSetsSingleSnapshot(t *testing.T) {
	h := newTestHistory(&fakeAPI{})
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.snapshots = []*domain.Snapshot{snapshotAt(t1)}

	earliest, before, latest, err := h.ComparisonSets(nil, 0)
	require.NoError(t, err)
	require.Same(t, earliest, latest)
	require.Same(t, before, latest)
}

func TestComparisonSetsEmptyHistory(t *testing.T) {
	h := newTestHistory(&fakeAPI{})
	_, _, _, err := h.ComparisonSets(nil, 0)
	require.Error(t, err)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	store := &memStore{}
	api := &fakeAPI{
		balances: []venue.Balance{{Asset: "ETH", Free: 2}},
		prices:   map[string]float64{"ETHBTC": 0.05, "ETHUSDC": 2000},
	}
	h := New(Config{Anchors: []string{"BTC"}}, api, store, nil, zap.NewNop())
	h.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }

	_, err := h.GatherIfDue(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.Save())
	require.Equal(t, domain.DocumentVersion, store.doc.Version)

	reloaded := New(Config{Anchors: []string{"BTC"}}, api, store, nil, zap.NewNop())
	require.NoError(t, reloaded.Load())
	require.Equal(t, 1, reloaded.Len())
	require.Equal(t, h.Latest().ID, reloaded.Latest().ID)
	require.InDelta(t, h.Latest().TotalFor("BTC").Total, reloaded.Latest().TotalFor("BTC").Total, 1e-8)
}
