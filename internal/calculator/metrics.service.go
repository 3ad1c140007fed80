package calculator

import (
	"dcabacktest/internal/domain"
	"dcabacktest/internal/util"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

const daysPerYear = 365.25

// ComputeMetrics derives the summary figures for a finished ledger. it never
// fails: degenerate inputs (nothing invested, a single transaction) produce
// 0 for whatever can't be computed.
func ComputeMetrics(ledger domain.Ledger, totalInvested, currentValue decimal.Decimal, valuationDate time.Time) domain.Metrics {
	roi := calculateROI(totalInvested, currentValue)

	var firstDate time.Time
	if first := ledger.First(); first != nil {
		firstDate = first.Date
	}

	return domain.Metrics{
		ROI:         roi,
		CAGR:        calculateCAGR(totalInvested, currentValue, roi, firstDate, valuationDate),
		MaxDrawdown: calculateMaxDrawdown(ledger),
		Volatility:  calculateVolatility(ledger.PortfolioValues()),
	}
}

func calculateROI(totalInvested, currentValue decimal.Decimal) float64 {
	if !totalInvested.IsPositive() {
		return 0
	}
	return currentValue.Sub(totalInvested).Div(totalInvested).InexactFloat64()
}

// calculateCAGR annualizes over calendar days / 365.25 between the first
// contribution and the valuation date. it falls back to roi when no time
// has elapsed or when the annualized figure overflows a float64.
func calculateCAGR(totalInvested, currentValue decimal.Decimal, roi float64, firstDate, valuationDate time.Time) float64 {
	if !totalInvested.IsPositive() || firstDate.IsZero() {
		return 0
	}
	years := float64(util.DaysBetween(firstDate, valuationDate)) / daysPerYear
	if years <= 0 {
		return roi
	}

	ratio := currentValue.Div(totalInvested).InexactFloat64()
	if ratio <= 0 {
		return -1
	}
	cagr := math.Pow(ratio, 1/years) - 1
	if math.IsNaN(cagr) || math.IsInf(cagr, 0) {
		return roi
	}
	return cagr
}

// calculateMaxDrawdown does a single pass with a running peak. each
// transaction contributes two marks: the units already held valued at the
// new price (before the contribution lands), then the post-contribution
// portfolio value.
func calculateMaxDrawdown(ledger domain.Ledger) float64 {
	peak := 0.0
	maxDrawdown := 0.0

	observe := func(value float64) {
		if value > peak {
			peak = value
			return
		}
		if peak <= 0 {
			return
		}
		if dd := (peak - value) / peak; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	for _, t := range ledger {
		heldBefore := t.CumulativeUnits.Sub(t.Units)
		if heldBefore.IsPositive() {
			observe(heldBefore.Mul(t.Price).InexactFloat64())
		}
		observe(t.PortfolioValue.InexactFloat64())
	}

	return math.Min(math.Max(maxDrawdown, 0), 1)
}

// calculateVolatility is the population stdev of period-over-period
// fractional changes in the accumulating balance
func calculateVolatility(values []float64) float64 {
	returns := []float64{}
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		returns = append(returns, (values[i]-values[i-1])/values[i-1])
	}
	if len(returns) == 0 {
		return 0
	}

	stdev, err := stats.StandardDeviationPopulation(returns)
	if err != nil || math.IsNaN(stdev) {
		return 0
	}
	return stdev
}
