package domain

import "fmt"

// DataQualityError marks input that violates the (symbol, date) contract:
// duplicate dates or bars out of ascending order. It is distinct from "no
// signal" so callers can report bad feeds instead of swallowing them.
type DataQualityError struct {
	Symbol string
	Reason string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality: %s: %s", e.Symbol, e.Reason)
}
