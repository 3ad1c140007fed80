package calculator

import (
	"dcabacktest/internal/domain"
	"dcabacktest/internal/util"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type SimulateInput struct {
	Amount    decimal.Decimal
	Frequency domain.Frequency
	Start     time.Time
	End       time.Time
	Series    domain.PriceSeries
}

func NewSimulateInput(config domain.InvestmentConfig, series domain.PriceSeries) SimulateInput {
	return SimulateInput{
		Amount:    config.Amount,
		Frequency: config.Frequency,
		Start:     config.Start,
		End:       config.End,
		Series:    series,
	}
}

// Simulate replays a fixed-amount purchase on every scheduled date against
// the price series and values the final position at the latest sample.
//
// prices are resolved with carry-forward: the sample on the date, else the
// nearest earlier one. a start date before the first sample fails with
// DataUnavailableError instead of borrowing a later price.
func Simulate(in SimulateInput) (*domain.SimulationResult, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.NewInvalidConfigurationError("amount must be positive, got %s", in.Amount.String())
	}
	schedule, err := ContributionSchedule(in.Start, in.End, in.Frequency)
	if err != nil {
		return nil, err
	}

	symbol := in.Series.Symbol
	first, ok := in.Series.First()
	if !ok {
		return nil, domain.DataUnavailableError{
			Symbol:    symbol,
			Requested: schedule[0],
		}
	}
	if schedule[0].Before(first.Date) {
		firstDate := first.Date
		return nil, domain.DataUnavailableError{
			Symbol:         symbol,
			Requested:      schedule[0],
			FirstAvailable: &firstDate,
		}
	}

	ledger := make(domain.Ledger, 0, len(schedule))
	cumulativeUnits := decimal.Zero
	cumulativeInvested := decimal.Zero

	for _, date := range schedule {
		price, err := resolvePrice(in.Series, date)
		if err != nil {
			return nil, err
		}

		units := in.Amount.Div(price.Price)
		cumulativeUnits = cumulativeUnits.Add(units)
		cumulativeInvested = cumulativeInvested.Add(in.Amount)

		ledger = append(ledger, domain.Transaction{
			Date:               date,
			Amount:             in.Amount,
			Price:              price.Price,
			Units:              units,
			CumulativeUnits:    cumulativeUnits,
			CumulativeInvested: cumulativeInvested,
			PortfolioValue:     cumulativeUnits.Mul(price.Price),
		})
	}

	// the schedule resolved at least one sample, so latest exists
	current, _ := in.Series.Latest()
	currentValue := cumulativeUnits.Mul(current.Price)

	return &domain.SimulationResult{
		Symbol:        symbol,
		TotalInvested: cumulativeInvested,
		UnitsHeld:     cumulativeUnits,
		CurrentPrice:  current,
		CurrentValue:  currentValue,
		Metrics:       ComputeMetrics(ledger, cumulativeInvested, currentValue, current.Date),
		Ledger:        ledger,
	}, nil
}

func resolvePrice(series domain.PriceSeries, date time.Time) (domain.AssetPrice, error) {
	price, ok := series.PriceOnOrBefore(date)
	if !ok {
		return domain.AssetPrice{}, domain.DataUnavailableError{
			Symbol:    series.Symbol,
			Requested: date,
		}
	}
	if !price.Price.IsPositive() {
		return domain.AssetPrice{}, fmt.Errorf(
			"%w: %s has non-positive price %s on %s",
			domain.ErrDataUnavailable,
			series.Symbol,
			price.Price.String(),
			util.FormatDate(price.Date),
		)
	}
	return price, nil
}
