// Package domain defines the core data structures of the portfolio tracker.
package domain

// ConvertedTotal holds a position's value expressed in one anchor currency.
type ConvertedTotal struct {
	Name    string
	Total   float64
	Deposit float64
}

// Converter converts an amount of one asset into another.
type Converter interface {
	Convert(from string, amount float64, to string) (float64, error)
}

// MonthSeries holds trailing month-candle closes and volumes for one asset,
// quoted in Symbol.
type MonthSeries struct {
	Symbol  string
	Closes  []float64
	Volumes []float64
}

// Position accumulates one asset's balances across wallet categories for a
// single snapshot. All buckets grow only through the Add methods while the
// snapshot is being gathered.
type Position struct {
	Asset string

	// Spot/order wallet balance.
	WalletFree   float64
	WalletLocked float64
	WalletTotal  float64

	// Yield and position buckets.
	Liquidity float64
	Flexible  float64
	Locked    float64
	Plan      float64

	// Inflow/outflow observed within the snapshot's time window.
	PaymentDeposit  float64
	PaymentWithdraw float64

	// Unused yield opportunity markers.
	HasFlexible bool
	HasLocked   bool

	// Growth is a trailing price/volume trend annotation, "none" when unavailable.
	Growth string

	Months MonthSeries

	// ConvertedTotals is filled once per snapshot by ComputeTotals.
	ConvertedTotals []ConvertedTotal
}

// NewPosition returns a zero-valued position for the given asset symbol.
func NewPosition(asset string) *Position {
	return &Position{
		Asset:  asset,
		Growth: "none",
		Months: MonthSeries{Symbol: "USDC"},
	}
}

// AddWallet adds free and locked spot wallet balance.
func (p *Position) AddWallet(free, locked float64) {
	p.WalletFree += free
	p.WalletLocked += locked
	p.WalletTotal += free + locked
}

// AddLiquidity adds a liquidity position amount.
func (p *Position) AddLiquidity(amount float64) {
	p.Liquidity += amount
}

// AddFlexible adds a flexible earn position amount.
func (p *Position) AddFlexible(amount float64) {
	p.Flexible += amount
}

// AddLocked adds a locked earn position amount.
func (p *Position) AddLocked(amount float64) {
	p.Locked += amount
}

// AddPlan adds a recurring-plan holding amount.
func (p *Position) AddPlan(amount float64) {
	p.Plan += amount
}

// AddDeposit adds an observed fiat or crypto inflow.
func (p *Position) AddDeposit(amount float64) {
	p.PaymentDeposit += amount
}

// AddWithdraw adds an observed outflow.
func (p *Position) AddWithdraw(amount float64) {
	p.PaymentWithdraw += amount
}

// Total returns the wealth sum of the position: wallet, liquidity, flexible,
// locked and plan buckets. Deposits and withdrawals are flows, not wealth.
func (p *Position) Total() float64 {
	return p.WalletTotal + p.Liquidity + p.Flexible + p.Locked + p.Plan
}

// UpdateTotalIn values the position's total and accumulated deposit in the
// given anchor currency and records the result. On conversion failure the
// position's buckets are untouched and nothing is recorded.
func (p *Position) UpdateTotalIn(conv Converter, anchor string) (ConvertedTotal, error) {
	total, err := conv.Convert(p.Asset, p.Total(), anchor)
	if err != nil {
		return ConvertedTotal{}, err
	}

	deposit, err := conv.Convert(p.Asset, p.PaymentDeposit, anchor)
	if err != nil {
		return ConvertedTotal{}, err
	}

	ct := ConvertedTotal{Name: anchor, Total: total, Deposit: deposit}
	p.ConvertedTotals = append(p.ConvertedTotals, ct)

	return ct, nil
}

// ConvertedTotalFor returns the recorded converted total for the given anchor.
func (p *Position) ConvertedTotalFor(anchor string) (ConvertedTotal, bool) {
	for _, ct := range p.ConvertedTotals {
		if ct.Name == anchor {
			return ct, true
		}
	}
	return ConvertedTotal{}, false
}
