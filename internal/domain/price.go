package domain

import (
	"dcabacktest/internal/util"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type AssetPrice struct {
	Symbol string
	Price  decimal.Decimal
	Date   time.Time
}

// PriceSeries is the daily price history of one asset, ordered by date
// with at most one sample per day. it is treated as a read-only lookup
// table once built.
type PriceSeries struct {
	Symbol  string
	samples []AssetPrice
}

// NewPriceSeries sorts the given prices and collapses same-day samples,
// keeping the last one seen for each day
func NewPriceSeries(symbol string, prices []AssetPrice) PriceSeries {
	samples := make([]AssetPrice, 0, len(prices))
	for _, p := range prices {
		samples = append(samples, AssetPrice{
			Symbol: symbol,
			Price:  p.Price,
			Date:   util.DateOnly(p.Date),
		})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Date.Before(samples[j].Date)
	})

	deduped := samples[:0]
	for _, s := range samples {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(s.Date) {
			deduped[n-1] = s
			continue
		}
		deduped = append(deduped, s)
	}

	return PriceSeries{
		Symbol:  symbol,
		samples: deduped,
	}
}

func (s PriceSeries) Len() int {
	return len(s.samples)
}

func (s PriceSeries) IsEmpty() bool {
	return len(s.samples) == 0
}

func (s PriceSeries) Samples() []AssetPrice {
	out := make([]AssetPrice, len(s.samples))
	copy(out, s.samples)
	return out
}

func (s PriceSeries) First() (AssetPrice, bool) {
	if s.IsEmpty() {
		return AssetPrice{}, false
	}
	return s.samples[0], true
}

func (s PriceSeries) Latest() (AssetPrice, bool) {
	if s.IsEmpty() {
		return AssetPrice{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// PriceOnOrBefore returns the sample on the given day, or the closest
// earlier one if that day has no sample. it never looks ahead.
func (s PriceSeries) PriceOnOrBefore(date time.Time) (AssetPrice, bool) {
	date = util.DateOnly(date)
	// index of first sample strictly after date
	i := sort.Search(len(s.samples), func(i int) bool {
		return s.samples[i].Date.After(date)
	})
	if i == 0 {
		return AssetPrice{}, false
	}
	return s.samples[i-1], true
}

// WithSample returns a copy of the series with p merged in
func (s PriceSeries) WithSample(p AssetPrice) PriceSeries {
	prices := append(s.Samples(), p)
	return NewPriceSeries(s.Symbol, prices)
}
