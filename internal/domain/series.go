package domain

import "fmt"

// Series is one symbol's bars in strictly ascending date order. Construction
// validates the order instead of fixing it: sorting raw rows is the ingestion
// layer's job, a Series that arrives out of order is a data defect.
type Series struct {
	Symbol string
	Bars   []PricePoint
}

// NewSeries validates that bars are strictly ascending by date. Duplicate
// dates and out-of-order bars both return a DataQualityError.
func NewSeries(symbol string, bars []PricePoint) (*Series, error) {
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Date, bars[i].Date
		if cur.Equal(prev) {
			return nil, &DataQualityError{
				Symbol: symbol,
				Reason: fmt.Sprintf("duplicate date %s", cur.Format("2006-01-02")),
			}
		}
		if cur.Before(prev) {
			return nil, &DataQualityError{
				Symbol: symbol,
				Reason: fmt.Sprintf("non-monotonic date %s after %s",
					cur.Format("2006-01-02"), prev.Format("2006-01-02")),
			}
		}
	}
	return &Series{Symbol: symbol, Bars: bars}, nil
}

func (s *Series) Len() int { return len(s.Bars) }

// Opens returns the open column, index-aligned with Bars.
func (s *Series) Opens() []float64 { return s.column(func(p PricePoint) float64 { return p.Open }) }

// Highs returns the high column, index-aligned with Bars.
func (s *Series) Highs() []float64 { return s.column(func(p PricePoint) float64 { return p.High }) }

// Lows returns the low column, index-aligned with Bars.
func (s *Series) Lows() []float64 { return s.column(func(p PricePoint) float64 { return p.Low }) }

// Closes returns the close column, index-aligned with Bars.
func (s *Series) Closes() []float64 { return s.column(func(p PricePoint) float64 { return p.Close }) }

// Volumes returns the volume column, index-aligned with Bars.
func (s *Series) Volumes() []float64 { return s.column(func(p PricePoint) float64 { return p.Volume }) }

func (s *Series) column(f func(PricePoint) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = f(b)
	}
	return out
}
