package usecase

import (
	"math"
	"sort"

	"stock-screener-backend/internal/config"
	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/infrastructure/indicators"
)

// ScreenSymbol runs the gate pipeline over one symbol and returns its screen
// row, or nil when any gate rejects. Gates run in a fixed order and
// short-circuit on the first failure:
//
//  1. mean 10-bar volume in lots above the liquidity floor
//  2. MA defined and (open+close)/2 above it on each of the last 5 bars
//  3. mean 10-bar high-low range above the flat-price floor
//  4. MA slope below the upper bound
//  5. 5-bar close volatility below the cap
//  6. average distance below MA within the adaptive allowance
//
// The returned row is ungrouped; RankGroups assigns groups and caps them.
func ScreenSymbol(s *domain.Series, cfg config.ScreenerConfig) *domain.ScreenResult {
	n := s.Len()
	if n < cfg.MinBars || n < cfg.LiquidityBars || n < cfg.TrendBars {
		return nil
	}

	opens, highs, lows := s.Opens(), s.Highs(), s.Lows()
	closes, volumes := s.Closes(), s.Volumes()
	ma := indicators.CalculateSMA(closes, cfg.MAWindow)

	liqFrom := n - cfg.LiquidityBars
	trendFrom := n - cfg.TrendBars

	// Gate 1: liquidity in board lots.
	avgLots := indicators.Mean(volumes[liqFrom:]) / cfg.SharesPerLot
	if !(avgLots >= cfg.MinAvgLots) {
		return nil
	}

	// Gate 2: every recent bar holds above a defined MA.
	for i := trendFrom; i < n; i++ {
		if math.IsNaN(ma[i]) || ma[i] <= 0 {
			return nil
		}
		if (opens[i]+closes[i])/2 <= ma[i] {
			return nil
		}
	}

	// Gate 3: excludes near-flat price action.
	ranges := make([]float64, 0, cfg.LiquidityBars)
	for i := liqFrom; i < n; i++ {
		ranges = append(ranges, highs[i]-lows[i])
	}
	if !(indicators.Mean(ranges) > cfg.MinAvgRange) {
		return nil
	}

	// Gate 4: per-bar MA slope over the trend window.
	slope := (ma[n-1] - ma[trendFrom]) / float64(cfg.TrendBars-1)
	if slope >= cfg.SlopeMax {
		return nil
	}

	// Gate 5: close volatility. A non-positive or non-finite mean close is
	// excluded here rather than allowed to poison later divisions.
	recentCloses := closes[trendFrom:]
	meanClose := indicators.Mean(recentCloses)
	if !(meanClose > 0) || math.IsInf(meanClose, 0) {
		return nil
	}
	volatilityPct := indicators.SampleStdDev(recentCloses) / meanClose * 100
	if math.IsNaN(volatilityPct) || volatilityPct > cfg.VolatilityMax {
		return nil
	}

	// Gate 6: adaptive distance between candle body low and MA.
	maxDistance := math.Max(cfg.BaseMaxDistance, volatilityPct*cfg.DistanceVolMult)
	distSum := 0.0
	maDistSum := 0.0
	for i := trendFrom; i < n; i++ {
		bodyLow := math.Min(opens[i], closes[i])
		distSum += (bodyLow - ma[i]) / ma[i] * 100
		maDistSum += math.Abs((opens[i]+closes[i])/2 - ma[i])
	}
	distancePct := distSum / float64(cfg.TrendBars)
	if distancePct > maxDistance {
		return nil
	}

	minClose := recentCloses[0]
	for _, c := range recentCloses {
		if c < minClose {
			minClose = c
		}
	}

	return &domain.ScreenResult{
		Symbol:        s.Symbol,
		Close:         closes[n-1],
		MA:            ma[n-1],
		Slope:         slope,
		DistancePct:   distancePct,
		MaxDistance:   maxDistance,
		VolatilityPct: volatilityPct,
		AvgMADistance: maDistSum / float64(cfg.TrendBars),
		IsLowestClose: closes[n-1] == minClose,
		Volume:        volumes[n-1],
	}
}

// RankGroups splits survivors by slope into the strong group (slope in
// [split, max)) and the watch group (slope below split), caps each group, and
// returns the concatenation, strong group first.
//
// Capping policy: rows flagged as closing at their 5-bar low are evicted
// first, but only while enough unflagged rows remain; whatever set is left is
// then ranked by tightness to the MA (smaller AvgMADistance wins).
func RankGroups(results []domain.ScreenResult, cfg config.ScreenerConfig) []domain.ScreenResult {
	var strong, watch []domain.ScreenResult
	for _, r := range results {
		switch {
		case r.Slope >= cfg.SlopeSplit && r.Slope < cfg.SlopeMax:
			r.Group = domain.GroupStrong
			strong = append(strong, r)
		case r.Slope < cfg.SlopeSplit:
			r.Group = domain.GroupWatch
			watch = append(watch, r)
		}
	}

	out := capGroup(strong, cfg.GroupCap)
	return append(out, capGroup(watch, cfg.GroupCap)...)
}

func capGroup(rows []domain.ScreenResult, limit int) []domain.ScreenResult {
	if len(rows) <= limit {
		return rows
	}

	var unflagged []domain.ScreenResult
	for _, r := range rows {
		if !r.IsLowestClose {
			unflagged = append(unflagged, r)
		}
	}

	switch {
	case len(unflagged) > limit:
		rows = unflagged
	case len(unflagged) > 0:
		// Not enough unflagged rows to fill the cap: keep exactly those.
		return unflagged
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AvgMADistance != rows[j].AvgMADistance {
			return rows[i].AvgMADistance < rows[j].AvgMADistance
		}
		return rows[i].Symbol < rows[j].Symbol
	})
	return rows[:limit]
}
