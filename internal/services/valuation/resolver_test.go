package valuation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertIdentity(t *testing.T) {
	r := NewResolver(map[string]float64{}, nil)

	for _, amount := range []float64{0, 1, -3.5, 0.00000001, 12345.6789} {
		got, err := r.Convert("BTC", amount, "BTC")
		require.NoError(t, err)
		require.Equal(t, amount, got)
	}
}

func TestConvertDirectPair(t *testing.T) {
	r := NewResolver(map[string]float64{"ETHBTC": 0.0327}, nil)

	got, err := r.Convert("ETH", 2, "BTC")
	require.NoError(t, err)
	require.InDelta(t, 0.0654, got, 1e-12)
}

func TestConvertReversePair(t *testing.T) {
	r := NewResolver(map[string]float64{"ETHBTC": 0.0327}, nil)

	got, err := r.Convert("BTC", 0.0654, "ETH")
	require.NoError(t, err)
	require.InDelta(t, 2, got, 1e-12)
}

func TestConvertDirectWinsOverReverse(t *testing.T) {
	r := NewResolver(map[string]float64{
		"ETHBTC": 0.05,
		"BTCETH": 10, // inconsistent on purpose, direct lookup must win
	}, nil)

	got, err := r.Convert("ETH", 1, "BTC")
	require.NoError(t, err)
	require.InDelta(t, 0.05, got, 1e-12)
}

func TestConvertRoutedOverAnchor(t *testing.T) {
	// XYZ has no pair against BTC, only against USDC.
	r := NewResolver(map[string]float64{
		"XYZUSDC": 2.5,
		"BTCUSDC": 50000,
	}, nil)

	got, err := r.Convert("XYZ", 100, "BTC")
	require.NoError(t, err)
	require.InDelta(t, 100*2.5/50000, got, 1e-12)
}

func TestConvertRoutedSecondAnchor(t *testing.T) {
	// USDC route unavailable, USDT route priced on both legs.
	r := NewResolver(map[string]float64{
		"XYZUSDT": 4,
		"BTCUSDT": 40000,
	}, nil)

	got, err := r.Convert("XYZ", 10, "BTC")
	require.NoError(t, err)
	require.InDelta(t, 10*4/40000, got, 1e-12)
}

func TestConvertRoutingMatchesHopComposition(t *testing.T) {
	prices := map[string]float64{
		"ABCUSDC": 1.7,
		"USDCDEF": 0.9, // reverse leg for DEF
	}
	r := NewResolver(prices, nil)

	leg1, err := r.Convert("ABC", 5, "USDC")
	require.NoError(t, err)
	leg2, err := r.Convert("USDC", leg1, "DEF")
	require.NoError(t, err)

	routed, err := r.Convert("ABC", 5, "DEF")
	require.NoError(t, err)
	require.InDelta(t, leg2, routed, 1e-12)
}

func TestConvertFailureListsCandidates(t *testing.T) {
	r := NewResolver(map[string]float64{
		"XYZBNB":  1,
		"ABCXYZ":  2,
		"ETHBTC":  3,
		"BTCUSDC": 4,
	}, nil)

	_, err := r.Convert("XYZ", 100, "BTC")
	require.Error(t, err)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	require.Equal(t, "XYZ", convErr.From)
	require.Equal(t, "BTC", convErr.To)
	require.Equal(t, []string{"ABCXYZ", "XYZBNB"}, convErr.Candidates)
	require.Contains(t, convErr.Error(), "ABCXYZ, XYZBNB")
}

func TestConvertFailureWithoutCandidates(t *testing.T) {
	r := NewResolver(map[string]float64{}, nil)

	_, err := r.Convert("XYZ", 1, "BTC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "possible pairs: none")
}

func TestConvertNoUnboundedRecursionBetweenAnchors(t *testing.T) {
	// Nothing priced at all: routing must terminate after one hop per anchor.
	r := NewResolver(map[string]float64{}, []string{"USDC", "USDT"})

	_, err := r.Convert("USDC", 1, "USDT")
	require.Error(t, err)
}
