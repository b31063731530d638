package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DocumentVersion is the schema revision written by ToDocument. Decoding
// accepts every earlier revision through presence-keyed field checks; when a
// legacy field and its successor are both present, the successor wins.
const DocumentVersion = 7

// Document is the persisted form of the full snapshot history.
type Document struct {
	Version   int                `json:"version"`
	Snapshots []SnapshotDocument `json:"snapshots"`
}

// SnapshotDocument is the serialized shape of one snapshot.
type SnapshotDocument struct {
	UUID      string                            `json:"uuid,omitempty"`
	Timestamp string                            `json:"timestamp"`
	Time      string                            `json:"time"`
	Crypto    []PositionDocument                `json:"crypto"`
	Totals    map[string]ConvertedTotalDocument `json:"totals,omitempty"`

	// Single-anchor total written before the totals mapping existed.
	LegacyTotalBTC *LegacyAmount `json:"totalBTC,omitempty"`
}

// LegacyAmount decodes the oldest documents' totalBTC value, which appears
// as a bare JSON number in some revisions and as an 8-decimal string in
// others.
type LegacyAmount float64

func (a *LegacyAmount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Wrapf(err, "parse totalBTC value %s", data)
	}
	*a = LegacyAmount(v)
	return nil
}

// PositionDocument is the serialized shape of one asset position.
type PositionDocument struct {
	Asset        string `json:"asset"`
	WalletFree   string `json:"orderWalletFree"`
	WalletLocked string `json:"orderWalletLocked"`
	WalletTotal  string `json:"orderWalletTotal"`
	Liquidity    string `json:"liquidSwapValue"`
	TotalValue   string `json:"totalValue"`

	PaymentDeposit  *string `json:"paymentDeposit,omitempty"`
	PaymentWithdraw *string `json:"paymentWithdraw,omitempty"`

	Plan            *string                  `json:"earnPlan,omitempty"`
	ConvertedTotals []ConvertedTotalDocument `json:"convertedTotal,omitempty"`
	Flexible        *string                  `json:"earnFlexible,omitempty"`
	Locked          *string                  `json:"earnLocked,omitempty"`
	Growth          *string                  `json:"growth,omitempty"`
	Klines          *MonthSeriesDocument     `json:"klines,omitempty"`

	// Superseded fields, read for backward compatibility only:
	// savingsWalletFlexible was renamed to earnFlexible, earnStaking to
	// earnLocked, and totalBTCValue migrated into the convertedTotal list.
	LegacySavingsFlexible *string `json:"savingsWalletFlexible,omitempty"`
	LegacyEarnStaking     *string `json:"earnStaking,omitempty"`
	LegacyTotalBTCValue   *string `json:"totalBTCValue,omitempty"`
}

// ConvertedTotalDocument is the serialized shape of one anchor valuation.
type ConvertedTotalDocument struct {
	Name    string `json:"name"`
	Total   string `json:"total"`
	Deposit string `json:"deposit"`
}

// MonthSeriesDocument is the serialized shape of the trailing candle series.
type MonthSeriesDocument struct {
	Symbol  string    `json:"symbol"`
	Closes  []float64 `json:"closes"`
	Volumes []float64 `json:"volumes"`
}

// Amounts are serialized with 8 decimal places; in-memory values keep full
// double precision.
func fmtAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

func parseAmount(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s value %q", field, s)
	}
	return v, nil
}

func (d ConvertedTotalDocument) toTotal() (ConvertedTotal, error) {
	total, err := parseAmount("total", d.Total)
	if err != nil {
		return ConvertedTotal{}, err
	}
	deposit, err := parseAmount("deposit", d.Deposit)
	if err != nil {
		return ConvertedTotal{}, err
	}
	return ConvertedTotal{Name: d.Name, Total: total, Deposit: deposit}, nil
}

func totalDocument(ct ConvertedTotal) ConvertedTotalDocument {
	return ConvertedTotalDocument{
		Name:    ct.Name,
		Total:   fmtAmount(ct.Total),
		Deposit: fmtAmount(ct.Deposit),
	}
}

// ToDocument serializes the position in the current schema revision.
func (p *Position) ToDocument() PositionDocument {
	deposit := fmtAmount(p.PaymentDeposit)
	withdraw := fmtAmount(p.PaymentWithdraw)
	plan := fmtAmount(p.Plan)
	flexible := fmtAmount(p.Flexible)
	locked := fmtAmount(p.Locked)
	growth := p.Growth

	totals := make([]ConvertedTotalDocument, 0, len(p.ConvertedTotals))
	for _, ct := range p.ConvertedTotals {
		totals = append(totals, totalDocument(ct))
	}

	return PositionDocument{
		Asset:           p.Asset,
		WalletFree:      fmtAmount(p.WalletFree),
		WalletLocked:    fmtAmount(p.WalletLocked),
		WalletTotal:     fmtAmount(p.WalletTotal),
		Liquidity:       fmtAmount(p.Liquidity),
		TotalValue:      fmtAmount(p.Total()),
		PaymentDeposit:  &deposit,
		PaymentWithdraw: &withdraw,
		Plan:            &plan,
		ConvertedTotals: totals,
		Flexible:        &flexible,
		Locked:          &locked,
		Growth:          &growth,
		Klines: &MonthSeriesDocument{
			Symbol:  p.Months.Symbol,
			Closes:  p.Months.Closes,
			Volumes: p.Months.Volumes,
		},
	}
}

// PositionFromDocument rebuilds a position from any supported revision.
func PositionFromDocument(doc PositionDocument) (*Position, error) {
	p := NewPosition(doc.Asset)

	var err error
	if p.WalletFree, err = parseAmount("orderWalletFree", doc.WalletFree); err != nil {
		return nil, err
	}
	if p.WalletLocked, err = parseAmount("orderWalletLocked", doc.WalletLocked); err != nil {
		return nil, err
	}
	if p.WalletTotal, err = parseAmount("orderWalletTotal", doc.WalletTotal); err != nil {
		return nil, err
	}
	if p.Liquidity, err = parseAmount("liquidSwapValue", doc.Liquidity); err != nil {
		return nil, err
	}

	if doc.LegacySavingsFlexible != nil {
		if p.Flexible, err = parseAmount("savingsWalletFlexible", *doc.LegacySavingsFlexible); err != nil {
			return nil, err
		}
	}
	if doc.LegacyTotalBTCValue != nil {
		total, err := parseAmount("totalBTCValue", *doc.LegacyTotalBTCValue)
		if err != nil {
			return nil, err
		}
		p.ConvertedTotals = append(p.ConvertedTotals, ConvertedTotal{Name: "BTC", Total: total})
	}

	if doc.PaymentDeposit != nil {
		if p.PaymentDeposit, err = parseAmount("paymentDeposit", *doc.PaymentDeposit); err != nil {
			return nil, err
		}
	}
	if doc.PaymentWithdraw != nil {
		if p.PaymentWithdraw, err = parseAmount("paymentWithdraw", *doc.PaymentWithdraw); err != nil {
			return nil, err
		}
	}

	if doc.LegacyEarnStaking != nil {
		if p.Locked, err = parseAmount("earnStaking", *doc.LegacyEarnStaking); err != nil {
			return nil, err
		}
	}
	if doc.Plan != nil {
		if p.Plan, err = parseAmount("earnPlan", *doc.Plan); err != nil {
			return nil, err
		}
	}

	if len(doc.ConvertedTotals) > 0 {
		p.ConvertedTotals = p.ConvertedTotals[:0]
		for _, ctDoc := range doc.ConvertedTotals {
			ct, err := ctDoc.toTotal()
			if err != nil {
				return nil, err
			}
			p.ConvertedTotals = append(p.ConvertedTotals, ct)
		}
	}

	if doc.Flexible != nil {
		if p.Flexible, err = parseAmount("earnFlexible", *doc.Flexible); err != nil {
			return nil, err
		}
	}
	if doc.Locked != nil {
		if p.Locked, err = parseAmount("earnLocked", *doc.Locked); err != nil {
			return nil, err
		}
	}

	if doc.Growth != nil {
		p.Growth = *doc.Growth
	}
	if doc.Klines != nil {
		p.Months = MonthSeries{
			Symbol:  doc.Klines.Symbol,
			Closes:  doc.Klines.Closes,
			Volumes: doc.Klines.Volumes,
		}
	}

	return p, nil
}

// ToDocument serializes the snapshot in the current schema revision.
func (s *Snapshot) ToDocument() SnapshotDocument {
	crypto := make([]PositionDocument, 0, len(s.Assets))
	for _, asset := range s.SortedAssets() {
		crypto = append(crypto, s.Assets[asset].ToDocument())
	}

	totals := make(map[string]ConvertedTotalDocument, len(s.Totals))
	for anchor, ct := range s.Totals {
		totals[anchor] = totalDocument(*ct)
	}

	return SnapshotDocument{
		UUID:      s.ID,
		Timestamp: strconv.FormatInt(s.Timestamp, 10),
		Time:      s.Time,
		Crypto:    crypto,
		Totals:    totals,
	}
}

// SnapshotFromDocument rebuilds a snapshot from any supported revision.
func SnapshotFromDocument(doc SnapshotDocument) (*Snapshot, error) {
	s := &Snapshot{
		ID:     doc.UUID,
		Time:   doc.Time,
		Assets: make(map[string]*Position),
		Totals: make(map[string]*ConvertedTotal),
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	// Early revisions stored fractional-second timestamps.
	ts, err := strconv.ParseFloat(doc.Timestamp, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "parse snapshot timestamp %q", doc.Timestamp)
	}
	s.Timestamp = int64(ts)

	for _, posDoc := range doc.Crypto {
		p, err := PositionFromDocument(posDoc)
		if err != nil {
			return nil, errors.Wrapf(err, "snapshot %s: asset %s", s.ID, posDoc.Asset)
		}
		s.Assets[p.Asset] = p
	}

	if doc.LegacyTotalBTC != nil {
		s.Totals["BTC"] = &ConvertedTotal{Name: "BTC", Total: float64(*doc.LegacyTotalBTC)}
	}
	for _, anchor := range []string{"BTC", "USDT", "USDC"} {
		ctDoc, ok := doc.Totals[anchor]
		if !ok {
			continue
		}
		ct, err := ctDoc.toTotal()
		if err != nil {
			return nil, errors.Wrapf(err, "snapshot %s: total %s", s.ID, anchor)
		}
		// USDT totals predate the switch to USDC and fill the same slot.
		if anchor == "USDT" {
			ct.Name = "USDC"
			s.Totals["USDC"] = &ct
			continue
		}
		s.Totals[anchor] = &ct
	}

	return s, nil
}
