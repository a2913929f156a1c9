package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-screener-backend/internal/config"
	"stock-screener-backend/internal/domain"
)

func testScreenerConfig() config.ScreenerConfig {
	return config.Default().Screener
}

func tradingDay(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// trendSeries builds n bars with linearly rising closes: close = base + step*i,
// open half a unit below close, a 2-unit daily range, and constant volume.
func trendSeries(t *testing.T, symbol string, n int, base, step, volume float64) *domain.Series {
	t.Helper()
	bars := make([]domain.PricePoint, n)
	for i := 0; i < n; i++ {
		c := base + step*float64(i)
		bars[i] = domain.PricePoint{
			Symbol: symbol,
			Date:   tradingDay(i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: volume,
		}
	}
	s, err := domain.NewSeries(symbol, bars)
	require.NoError(t, err)
	return s
}

func TestScreenSymbolModerateSlopeSurvives(t *testing.T) {
	cfg := testScreenerConfig()
	// Rising trend at slope 0.6 per bar, priced high enough that the candle
	// body stays inside the adaptive distance allowance of the lagging MA.
	s := trendSeries(t, "2330", 30, 400, 0.6, 2_000_000)

	res := ScreenSymbol(s, cfg)
	require.NotNil(t, res)

	assert.InDelta(t, 0.6, res.Slope, 1e-9)
	assert.Less(t, res.VolatilityPct, cfg.VolatilityMax)
	assert.False(t, res.IsLowestClose, "rising closes cannot end on the 5-bar low")

	picks := RankGroups([]domain.ScreenResult{*res}, cfg)
	require.Len(t, picks, 1)
	assert.Equal(t, domain.GroupStrong, picks[0].Group)
}

func TestScreenSymbolShallowSlopeGoesToWatchGroup(t *testing.T) {
	cfg := testScreenerConfig()
	s := trendSeries(t, "2603", 30, 400, 0.2, 2_000_000)

	res := ScreenSymbol(s, cfg)
	require.NotNil(t, res)
	assert.InDelta(t, 0.2, res.Slope, 1e-9)

	picks := RankGroups([]domain.ScreenResult{*res}, cfg)
	require.Len(t, picks, 1)
	assert.Equal(t, domain.GroupWatch, picks[0].Group)
}

func TestScreenSymbolLiquidityGate(t *testing.T) {
	cfg := testScreenerConfig()
	// Identical to the surviving series except mean volume is 500 lots,
	// under the 1000-lot floor. No other gate may rescue it.
	s := trendSeries(t, "9999", 30, 400, 0.6, 500_000)

	assert.Nil(t, ScreenSymbol(s, cfg))
}

func TestScreenSymbolSteepSlopeRejected(t *testing.T) {
	cfg := testScreenerConfig()
	s := trendSeries(t, "3008", 30, 400, 1.2, 2_000_000)

	assert.Nil(t, ScreenSymbol(s, cfg))
}

func TestScreenSymbolVolatilityGate(t *testing.T) {
	cfg := testScreenerConfig()

	bars := make([]domain.PricePoint, 30)
	for i := 0; i < 25; i++ {
		bars[i] = domain.PricePoint{
			Date: tradingDay(i), Open: 95, High: 96, Low: 94, Close: 95, Volume: 2_000_000,
		}
	}
	// Last five closes whip between 102 and 114: about 6% volatility, above
	// the 5% cap, while every other gate still passes.
	for i, c := range []float64{102, 114, 102, 114, 102} {
		bars[25+i] = domain.PricePoint{
			Date: tradingDay(25 + i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 2_000_000,
		}
	}
	s, err := domain.NewSeries("2454", bars)
	require.NoError(t, err)

	assert.Nil(t, ScreenSymbol(s, cfg))
}

func TestScreenSymbolSkipsShortHistory(t *testing.T) {
	cfg := testScreenerConfig()
	s := trendSeries(t, "1101", 9, 400, 0.6, 2_000_000)

	assert.Nil(t, ScreenSymbol(s, cfg))
}

func TestScreenSymbolZeroPriceExcluded(t *testing.T) {
	cfg := testScreenerConfig()

	bars := make([]domain.PricePoint, 30)
	for i := range bars {
		bars[i] = domain.PricePoint{Date: tradingDay(i), Volume: 2_000_000}
	}
	s, err := domain.NewSeries("0000", bars)
	require.NoError(t, err)

	// Must be excluded, not crash or emit NaN-bearing rows.
	assert.Nil(t, ScreenSymbol(s, cfg))
}

func TestScreenSymbolFlatRangeRejected(t *testing.T) {
	cfg := testScreenerConfig()

	bars := make([]domain.PricePoint, 30)
	for i := 0; i < 30; i++ {
		c := 400 + 0.2*float64(i)
		bars[i] = domain.PricePoint{
			Date: tradingDay(i), Open: c - 0.05, High: c + 0.1, Low: c - 0.1, Close: c, Volume: 2_000_000,
		}
	}
	s, err := domain.NewSeries("5880", bars)
	require.NoError(t, err)

	// Mean high-low range is 0.2, under the 1.0 floor.
	assert.Nil(t, ScreenSymbol(s, cfg))
}

func TestScreenSymbolDeterministic(t *testing.T) {
	cfg := testScreenerConfig()
	s := trendSeries(t, "2330", 30, 400, 0.6, 2_000_000)

	first := ScreenSymbol(s, cfg)
	second := ScreenSymbol(s, cfg)
	require.NotNil(t, first)
	assert.Equal(t, *first, *second)
}

func makeResult(symbol string, slope, avgDist float64, lowest bool) domain.ScreenResult {
	return domain.ScreenResult{
		Symbol:        symbol,
		Slope:         slope,
		AvgMADistance: avgDist,
		IsLowestClose: lowest,
	}
}

func TestRankGroupsDisjointAndCapped(t *testing.T) {
	cfg := testScreenerConfig()

	var results []domain.ScreenResult
	for i := 0; i < 8; i++ {
		results = append(results, makeResult(fmt.Sprintf("A%02d", i), 0.7, float64(i), false))
	}
	for i := 0; i < 8; i++ {
		results = append(results, makeResult(fmt.Sprintf("B%02d", i), 0.2, float64(i), false))
	}

	picks := RankGroups(results, cfg)

	seen := make(map[string]domain.Group)
	counts := make(map[domain.Group]int)
	for _, p := range picks {
		if prev, ok := seen[p.Symbol]; ok {
			t.Fatalf("%s appears in both %s and %s", p.Symbol, prev, p.Group)
		}
		seen[p.Symbol] = p.Group
		counts[p.Group]++
	}
	assert.LessOrEqual(t, counts[domain.GroupStrong], cfg.GroupCap)
	assert.LessOrEqual(t, counts[domain.GroupWatch], cfg.GroupCap)

	// Strong group rows come first in the concatenated output.
	assert.Equal(t, domain.GroupStrong, picks[0].Group)
	assert.Equal(t, domain.GroupWatch, picks[len(picks)-1].Group)
}

func TestCapGroupEvictsLowestCloseFirst(t *testing.T) {
	rows := []domain.ScreenResult{
		makeResult("S1", 0.7, 1.0, false),
		makeResult("S2", 0.7, 2.0, true),
		makeResult("S3", 0.7, 0.5, false),
		makeResult("S4", 0.7, 3.0, false),
		makeResult("S5", 0.7, 0.1, true),
		makeResult("S6", 0.7, 1.5, false),
		makeResult("S7", 0.7, 2.5, false),
		makeResult("S8", 0.7, 0.9, false),
	}

	capped := capGroup(rows, 6)
	require.Len(t, capped, 6)
	for _, r := range capped {
		assert.False(t, r.IsLowestClose, "flagged rows must be evicted when enough unflagged rows remain")
	}
}

func TestCapGroupKeepsScarceUnflagged(t *testing.T) {
	rows := []domain.ScreenResult{
		makeResult("S1", 0.7, 1.0, true),
		makeResult("S2", 0.7, 2.0, true),
		makeResult("S3", 0.7, 0.5, false),
		makeResult("S4", 0.7, 3.0, true),
		makeResult("S5", 0.7, 0.1, true),
		makeResult("S6", 0.7, 1.5, false),
		makeResult("S7", 0.7, 2.5, true),
		makeResult("S8", 0.7, 0.9, true),
	}

	// Only two unflagged rows exist; they are kept as-is instead of padding
	// the cap with flagged rows.
	capped := capGroup(rows, 6)
	require.Len(t, capped, 2)
	assert.Equal(t, "S3", capped[0].Symbol)
	assert.Equal(t, "S6", capped[1].Symbol)
}

func TestCapGroupAllFlaggedFallsBackToRanking(t *testing.T) {
	var rows []domain.ScreenResult
	for i := 0; i < 8; i++ {
		rows = append(rows, makeResult(fmt.Sprintf("S%d", i), 0.7, float64(8-i), true))
	}

	capped := capGroup(rows, 6)
	require.Len(t, capped, 6)
	for i := 1; i < len(capped); i++ {
		assert.LessOrEqual(t, capped[i-1].AvgMADistance, capped[i].AvgMADistance)
	}
}
