package model

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// PriceBar represents a single candlestick bar.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered numeric series aligned one-to-one with the bars it was
// derived from. Values before an indicator's warm-up are NaN.
type Series []float64

// Undefined reports whether v is a warm-up placeholder.
func Undefined(v float64) bool { return math.IsNaN(v) }

// NewUndefinedSeries returns a series of n undefined values.
func NewUndefinedSeries(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// Last returns the final value of the series, or NaN when empty.
func (s Series) Last() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

// SortBars orders bars by time and drops later duplicates of the same timestamp.
func SortBars(bars []PriceBar) []PriceBar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for i, b := range bars {
		if i > 0 && b.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ValidateBars checks that bars are strictly increasing in time.
func ValidateBars(bars []PriceBar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar %d at %s is not after %s", i, bars[i].Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}
