package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the human-readable rendering of snapshot timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// Snapshot is a timestamped record of all positions and their anchor-currency
// valuations at one instant. It is immutable after ComputeTotals, except when
// rebuilt from a persisted document.
type Snapshot struct {
	ID        string
	Timestamp int64
	Time      string
	Assets    map[string]*Position
	Totals    map[string]*ConvertedTotal
}

// NewSnapshot creates an empty snapshot stamped with the given instant.
func NewSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		Timestamp: now.Unix(),
		Time:      now.Format(TimeLayout),
		Assets:    make(map[string]*Position),
		Totals:    make(map[string]*ConvertedTotal),
	}
}

// GetOrCreate returns the position for the given asset symbol, registering a
// new zero-valued one when the asset is seen for the first time.
func (s *Snapshot) GetOrCreate(asset string) *Position {
	if p, ok := s.Assets[asset]; ok {
		return p
	}
	p := NewPosition(asset)
	s.Assets[asset] = p
	return p
}

// SortedAssets returns the held asset symbols in lexical order.
func (s *Snapshot) SortedAssets() []string {
	names := make([]string, 0, len(s.Assets))
	for name := range s.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TotalFor returns the snapshot-level aggregate for the given anchor, or a
// zero total when ComputeTotals has not produced one.
func (s *Snapshot) TotalFor(anchor string) ConvertedTotal {
	if t, ok := s.Totals[anchor]; ok {
		return *t
	}
	return ConvertedTotal{Name: anchor}
}

// ComputeTotals values every position in each anchor currency and sums the
// results into the snapshot-level totals. A position whose conversion fails
// is skipped; the failures are returned keyed by asset symbol so the caller
// can log them without aborting the rest of the snapshot.
func (s *Snapshot) ComputeTotals(conv Converter, anchors []string) map[string]error {
	failed := make(map[string]error)

	for _, anchor := range anchors {
		sum := &ConvertedTotal{Name: anchor}
		for _, asset := range s.SortedAssets() {
			ct, err := s.Assets[asset].UpdateTotalIn(conv, anchor)
			if err != nil {
				failed[asset] = err
				continue
			}
			sum.Total += ct.Total
			sum.Deposit += ct.Deposit
		}
		s.Totals[anchor] = sum
	}

	return failed
}
