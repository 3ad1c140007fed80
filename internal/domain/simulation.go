package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one scheduled contribution. Cumulative fields describe
// the position right after this purchase, and PortfolioValue marks every
// unit held so far at this contribution's price.
type Transaction struct {
	Date               time.Time
	Amount             decimal.Decimal
	Price              decimal.Decimal
	Units              decimal.Decimal
	CumulativeUnits    decimal.Decimal
	CumulativeInvested decimal.Decimal
	PortfolioValue     decimal.Decimal
}

// Ledger is the chronological list of transactions from one run
type Ledger []Transaction

func (l Ledger) PortfolioValues() []float64 {
	out := make([]float64, 0, len(l))
	for _, t := range l {
		out = append(out, t.PortfolioValue.InexactFloat64())
	}
	return out
}

func (l Ledger) First() *Transaction {
	if len(l) == 0 {
		return nil
	}
	return &l[0]
}

type Metrics struct {
	ROI         float64
	CAGR        float64
	MaxDrawdown float64
	Volatility  float64
}

type SimulationResult struct {
	Symbol        string
	TotalInvested decimal.Decimal
	UnitsHeld     decimal.Decimal
	CurrentPrice  AssetPrice
	CurrentValue  decimal.Decimal
	Metrics       Metrics
	Ledger        Ledger
}

// AssetResult is the outcome for one asset of a multi-asset run. exactly
// one of Result and Err is set.
type AssetResult struct {
	Symbol string
	Result *SimulationResult
	Err    error
}

type IndexedChartPoint struct {
	Date   time.Time
	Values map[string]float64
}

type AbsoluteValue struct {
	PortfolioValue decimal.Decimal
	Invested       decimal.Decimal
}

type AbsoluteChartPoint struct {
	Date   time.Time
	Values map[string]AbsoluteValue
}

type DcaRunResult struct {
	Config         InvestmentConfig
	Assets         []AssetResult
	IndexedSeries  []IndexedChartPoint
	AbsoluteSeries []AbsoluteChartPoint
}

func (r DcaRunResult) SuccessfulResults() []SimulationResult {
	out := []SimulationResult{}
	for _, a := range r.Assets {
		if a.Result != nil {
			out = append(out, *a.Result)
		}
	}
	return out
}
