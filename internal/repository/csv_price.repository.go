package repository

import (
	"dcabacktest/internal/domain"
	"dcabacktest/internal/util"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type priceRow struct {
	Date   string  `csv:"date"`
	Symbol string  `csv:"symbol"`
	Price  float64 `csv:"price"`
}

// csvPriceRepositoryHandler serves prices from a date,symbol,price file.
// it is loaded fully into memory; Add rewrites the whole file.
type csvPriceRepositoryHandler struct {
	path   string
	mu     sync.RWMutex
	prices map[string][]domain.AssetPrice
}

func NewCsvPriceRepository(path string) (AdjustedPriceRepository, error) {
	h := &csvPriceRepositoryHandler{
		path:   path,
		prices: map[string][]domain.AssetPrice{},
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open price file %s: %w", path, err)
	}
	defer f.Close()

	rows := []priceRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse price file %s: %w", path, err)
	}

	prices := []domain.AssetPrice{}
	for i, row := range rows {
		date, err := util.ParseDate(strings.TrimSpace(row.Date))
		if err != nil {
			return nil, fmt.Errorf("invalid date on row %d of %s: %w", i+1, path, err)
		}
		prices = append(prices, domain.AssetPrice{
			Symbol: strings.ToUpper(strings.TrimSpace(row.Symbol)),
			Date:   date,
			Price:  decimal.NewFromFloat(row.Price),
		})
	}
	h.merge(prices)

	return h, nil
}

func (h *csvPriceRepositoryHandler) merge(prices []domain.AssetPrice) {
	for _, p := range prices {
		h.prices[p.Symbol] = append(h.prices[p.Symbol], p)
	}
	for symbol, symbolPrices := range h.prices {
		h.prices[symbol] = domain.NewPriceSeries(symbol, symbolPrices).Samples()
	}
}

func (h *csvPriceRepositoryHandler) Add(prices []domain.AssetPrice) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.merge(prices)

	symbols := make([]string, 0, len(h.prices))
	for symbol := range h.prices {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	rows := []priceRow{}
	for _, symbol := range symbols {
		for _, p := range h.prices[symbol] {
			rows = append(rows, priceRow{
				Date:   util.FormatDate(p.Date),
				Symbol: symbol,
				Price:  p.Price.InexactFloat64(),
			})
		}
	}

	f, err := os.Create(h.path)
	if err != nil {
		return fmt.Errorf("failed to write price file %s: %w", h.path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write price file %s: %w", h.path, err)
	}
	return nil
}

func (h *csvPriceRepositoryHandler) List(symbols []string, start, end time.Time) ([]domain.AssetPrice, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := []domain.AssetPrice{}
	for _, symbol := range symbols {
		for _, p := range h.prices[symbol] {
			if p.Date.Before(util.DateOnly(start)) || p.Date.After(util.DateOnly(end)) {
				continue
			}
			out = append(out, p)
		}
	}
	return out, nil
}
