// Package valuation converts asset amounts between currencies using a sparse
// table of trading-pair prices.
package valuation

import (
	"fmt"
	"sort"
	"strings"
)

// defaultRouteAnchors returns the priority order of stable assets used for
// routed conversion when no direct or reverse pair exists. Each call returns
// a fresh slice so callers cannot mutate the default.
func defaultRouteAnchors() []string {
	return []string{"USDC", "USDT"}
}

// ConversionError reports a conversion that exhausted direct, reverse and
// routed lookups. Candidates lists every priced pair involving From, as a
// diagnostic aid.
type ConversionError struct {
	From       string
	To         string
	Candidates []string
}

func (e *ConversionError) Error() string {
	candidates := "none"
	if len(e.Candidates) > 0 {
		candidates = strings.Join(e.Candidates, ", ")
	}
	return fmt.Sprintf("cannot convert %s to %s, possible pairs: %s", e.From, e.To, candidates)
}

// Resolver resolves conversions against one snapshot's price table. The
// table is time-sensitive and must not be reused across snapshots.
type Resolver struct {
	prices       map[string]float64
	routeAnchors []string
}

// NewResolver builds a resolver over a table of pairSymbol -> last price.
// An empty routeAnchors falls back to the USDC-then-USDT default.
func NewResolver(prices map[string]float64, routeAnchors []string) *Resolver {
	if len(routeAnchors) == 0 {
		routeAnchors = defaultRouteAnchors()
	}
	return &Resolver{prices: prices, routeAnchors: routeAnchors}
}

// Convert converts amount of from into to, trying in order: identity, direct
// pair, reverse pair, and a single routed hop over each route anchor.
func (r *Resolver) Convert(from string, amount float64, to string) (float64, error) {
	return r.convert(from, amount, to, true)
}

// Routing is disabled on recursive calls, bounding the lookup to one
// intermediate hop; unbounded routing would recurse between anchors forever.
func (r *Resolver) convert(from string, amount float64, to string, allowRoute bool) (float64, error) {
	if from == to {
		return amount, nil
	}

	if price, ok := r.prices[from+to]; ok {
		return amount * price, nil
	}

	if price, ok := r.prices[to+from]; ok {
		return amount / price, nil
	}

	if allowRoute {
		for _, anchor := range r.routeAnchors {
			if from == anchor || to == anchor {
				continue
			}
			hop, err := r.convert(from, amount, anchor, false)
			if err != nil {
				continue
			}
			value, err := r.convert(anchor, hop, to, false)
			if err != nil {
				continue
			}
			return value, nil
		}
	}

	return 0, &ConversionError{From: from, To: to, Candidates: r.candidates(from)}
}

func (r *Resolver) candidates(asset string) []string {
	var pairs []string
	for symbol := range r.prices {
		if strings.HasPrefix(symbol, asset) || strings.HasSuffix(symbol, asset) {
			pairs = append(pairs, symbol)
		}
	}
	sort.Strings(pairs)
	return pairs
}
