package usecase

import (
	"sort"

	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/infrastructure/indicators"
)

// FeatureSet holds the rolling indicators for one symbol, index-aligned with
// the series bars. NaN marks values whose window is not yet full; every value
// at index i derives only from bars 0..i.
type FeatureSet struct {
	MA      []float64
	TR      []float64
	ATR     []float64
	BoxHigh []float64
	BoxLow  []float64
}

// ComputeFeatures derives the indicator columns a screening or pattern pass
// needs from one validated series.
func ComputeFeatures(s *domain.Series, maWindow, atrPeriod, boxWindow int) *FeatureSet {
	highs, lows, closes := s.Highs(), s.Lows(), s.Closes()

	boxHigh, boxLow := indicators.CalculateRollingBox(highs, lows, boxWindow)
	return &FeatureSet{
		MA:      indicators.CalculateSMA(closes, maWindow),
		TR:      indicators.CalculateTrueRange(highs, lows, closes),
		ATR:     indicators.CalculateATR(highs, lows, closes, atrPeriod),
		BoxHigh: boxHigh,
		BoxLow:  boxLow,
	}
}

// BuildSeries groups raw rows per symbol, sorts each symbol by date, and
// validates the result. Row order on the wire is unspecified, so sorting
// happens here at the boundary; duplicate dates survive sorting and come back
// as data issues instead of series.
func BuildSeries(points []domain.PricePoint) (map[string]*domain.Series, []domain.DataIssue) {
	bySymbol := make(map[string][]domain.PricePoint)
	for _, p := range points {
		bySymbol[p.Symbol] = append(bySymbol[p.Symbol], p)
	}

	series := make(map[string]*domain.Series, len(bySymbol))
	var issues []domain.DataIssue
	for symbol, bars := range bySymbol {
		sort.SliceStable(bars, func(i, j int) bool {
			return bars[i].Date.Before(bars[j].Date)
		})
		s, err := domain.NewSeries(symbol, bars)
		if err != nil {
			issues = append(issues, domain.DataIssue{Symbol: symbol, Reason: err.Error()})
			continue
		}
		series[symbol] = s
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Symbol < issues[j].Symbol })
	return series, issues
}
