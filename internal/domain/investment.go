package domain

import (
	"dcabacktest/internal/util"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	Frequency_Daily    Frequency = "DAILY"
	Frequency_Weekly   Frequency = "WEEKLY"
	Frequency_Biweekly Frequency = "BIWEEKLY"
	Frequency_Monthly  Frequency = "MONTHLY"
)

func NewFrequency(s string) (*Frequency, error) {
	m := map[string]Frequency{
		"DAILY":    Frequency_Daily,
		"WEEKLY":   Frequency_Weekly,
		"BIWEEKLY": Frequency_Biweekly,
		"MONTHLY":  Frequency_Monthly,
	}
	for k, v := range m {
		if strings.EqualFold(
			strings.ReplaceAll(k, "_", ""),
			strings.ReplaceAll(strings.ReplaceAll(s, "-", ""), "_", ""),
		) {
			return &v, nil
		}
	}
	return nil, NewInvalidConfigurationError("could not convert '%s' to known frequency", s)
}

// InvestmentConfig describes a fixed-amount recurring purchase plan.
// Start and End are inclusive calendar dates.
type InvestmentConfig struct {
	Amount    decimal.Decimal
	Frequency Frequency
	Start     time.Time
	End       time.Time
	Symbols   []string
}

// Validate checks the config against today's date. it touches no
// price data so it can run before anything is loaded.
func (c InvestmentConfig) Validate(today time.Time) error {
	if !c.Amount.IsPositive() {
		return NewInvalidConfigurationError("amount must be positive, got %s", c.Amount.String())
	}
	if _, err := NewFrequency(string(c.Frequency)); err != nil {
		return err
	}
	if c.Start.IsZero() || c.End.IsZero() {
		return NewInvalidConfigurationError("start and end dates are required")
	}
	start := util.DateOnly(c.Start)
	end := util.DateOnly(c.End)
	if end.Before(start) {
		return NewInvalidConfigurationError(
			"end date %s precedes start date %s",
			end.Format(time.DateOnly),
			start.Format(time.DateOnly),
		)
	}
	if !today.IsZero() && end.After(util.DateOnly(today)) {
		return NewInvalidConfigurationError(
			"end date %s is after today (%s)",
			end.Format(time.DateOnly),
			util.DateOnly(today).Format(time.DateOnly),
		)
	}
	if len(c.Symbols) == 0 {
		return NewInvalidConfigurationError("at least one asset is required")
	}
	for _, s := range c.Symbols {
		if strings.TrimSpace(s) == "" {
			return NewInvalidConfigurationError("asset identifiers must not be blank")
		}
	}
	return nil
}

// UniqueSymbols returns the requested symbols upper-cased and without
// duplicates, in request order
func (c InvestmentConfig) UniqueSymbols() []string {
	return NormalizeSymbols(c.Symbols)
}

// NormalizeSymbols trims and upper-cases symbols, dropping blanks and
// repeats. stored prices are keyed by the normalized form.
func NormalizeSymbols(symbols []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(s))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		out = append(out, symbol)
	}
	return out
}

func (c InvestmentConfig) String() string {
	return fmt.Sprintf(
		"%s %s from %s to %s",
		c.Amount.String(),
		strings.ToLower(string(c.Frequency)),
		c.Start.Format(time.DateOnly),
		c.End.Format(time.DateOnly),
	)
}
