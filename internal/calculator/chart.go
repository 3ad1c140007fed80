package calculator

import (
	"dcabacktest/internal/domain"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const indexBaseline = 100

var hundred = decimal.NewFromInt(indexBaseline)

// ToIndexedSeries rebases each asset's portfolio value to 100 at its first
// contribution so differently priced assets share one axis. rows are the
// union of all transaction dates.
func ToIndexedSeries(results ...domain.SimulationResult) []domain.IndexedChartPoint {
	rows := mergeByDate(results, func(ledger domain.Ledger, i int) float64 {
		if i == 0 {
			return indexBaseline
		}
		first := ledger[0].PortfolioValue
		if !first.IsPositive() {
			return 0
		}
		return hundred.Mul(ledger[i].PortfolioValue).Div(first).InexactFloat64()
	})

	out := make([]domain.IndexedChartPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.IndexedChartPoint{
			Date:   r.date,
			Values: r.values,
		})
	}
	return out
}

// ToAbsoluteSeries passes portfolio value and cumulative invested through
// unchanged, merged by date the same way as ToIndexedSeries
func ToAbsoluteSeries(results ...domain.SimulationResult) []domain.AbsoluteChartPoint {
	rows := mergeByDate(results, func(ledger domain.Ledger, i int) domain.AbsoluteValue {
		return domain.AbsoluteValue{
			PortfolioValue: ledger[i].PortfolioValue,
			Invested:       ledger[i].CumulativeInvested,
		}
	})

	out := make([]domain.AbsoluteChartPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.AbsoluteChartPoint{
			Date:   r.date,
			Values: r.values,
		})
	}
	return out
}

type mergedRow[T any] struct {
	date   time.Time
	values map[string]T
}

// mergeByDate outer-joins every ledger on date. an asset with no
// transaction on a row's date carries its last value forward; before its
// first transaction it is simply absent from the row.
func mergeByDate[T any](results []domain.SimulationResult, project func(domain.Ledger, int) T) []mergedRow[T] {
	dateSet := map[time.Time]bool{}
	for _, r := range results {
		for _, t := range r.Ledger {
			dateSet[t.Date] = true
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	cursors := make([]int, len(results))
	last := make([]*T, len(results))

	out := make([]mergedRow[T], 0, len(dates))
	for _, date := range dates {
		row := mergedRow[T]{
			date:   date,
			values: map[string]T{},
		}
		for i, r := range results {
			ledger := r.Ledger
			for cursors[i] < len(ledger) && !ledger[cursors[i]].Date.After(date) {
				v := project(ledger, cursors[i])
				last[i] = &v
				cursors[i]++
			}
			if last[i] != nil {
				row.values[r.Symbol] = *last[i]
			}
		}
		out = append(out, row)
	}

	return out
}
