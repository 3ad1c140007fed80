package service

import (
	"context"
	"dcabacktest/internal/domain"
	"dcabacktest/internal/logger"
	"dcabacktest/internal/repository"
	"dcabacktest/internal/util"
	"fmt"
	"sync"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

/**

the engine only ever sees in-memory series. this service is the boundary
that builds them: history comes from the repository, and the latest quote
(if configured) is appended so runs can be valued at "now".

a start date on a weekend needs the previous friday's close, so history is
always loaded from a week before the requested start.

*/

const priceLookbackDays = 7

var defaultIngestStart = util.NewDate(2000, 1, 1)

type PriceService interface {
	LoadPriceSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string]domain.PriceSeries, error)
	IngestPrices(ctx context.Context, symbols []string, start *time.Time) error
}

type historyFetcher func(symbol string, start, end time.Time) ([]domain.AssetPrice, error)

type priceServiceHandler struct {
	AdjPriceRepository repository.AdjustedPriceRepository
	AlpacaRepository   repository.AlpacaRepository
	fetchHistory       historyFetcher
	numWorkers         int
}

// NewPriceService builds the price provider. alpacaRepository may be nil,
// in which case series end at the last stored close.
func NewPriceService(adjPriceRepository repository.AdjustedPriceRepository, alpacaRepository repository.AlpacaRepository) PriceService {
	return &priceServiceHandler{
		AdjPriceRepository: adjPriceRepository,
		AlpacaRepository:   alpacaRepository,
		fetchHistory:       fetchYahooHistory,
		numWorkers:         10,
	}
}

func (h priceServiceHandler) LoadPriceSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string]domain.PriceSeries, error) {
	log := logger.FromContext(ctx)
	profile := domain.GetProfile(ctx)

	_, endSpan := profile.StartNewSpan("list stored prices")
	lookbackStart := util.DateOnly(start).AddDate(0, 0, -priceLookbackDays)
	prices, err := h.AdjPriceRepository.List(symbols, lookbackStart, util.DateOnly(end))
	if err != nil {
		return nil, fmt.Errorf("failed to load price series: %w", err)
	}
	endSpan()

	bySymbol := map[string][]domain.AssetPrice{}
	for _, p := range prices {
		bySymbol[p.Symbol] = append(bySymbol[p.Symbol], p)
	}

	out := map[string]domain.PriceSeries{}
	for _, symbol := range symbols {
		out[symbol] = domain.NewPriceSeries(symbol, bySymbol[symbol])
	}

	if h.AlpacaRepository == nil {
		return out, nil
	}

	_, endSpan = profile.StartNewSpan("get latest quotes")
	defer endSpan()
	latest, err := h.AlpacaRepository.GetLatestPricesWithTs(symbols)
	if err != nil {
		// stored history is still usable, it just values at the last close
		log.Warnf("failed to get latest quotes, using stored prices only: %s", err.Error())
		return out, nil
	}
	for symbol, quote := range latest {
		series, ok := out[symbol]
		if !ok {
			continue
		}
		quoteDate := util.DateOnly(quote.Date)
		if quoteDate.After(util.DateOnly(end)) {
			continue
		}
		if last, ok := series.Latest(); ok && !quoteDate.After(last.Date) {
			continue
		}
		out[symbol] = series.WithSample(quote)
	}

	return out, nil
}

// IngestPrices pulls daily adjusted closes for each symbol and upserts them.
// failures are per symbol; the returned error only summarizes them.
func (h priceServiceHandler) IngestPrices(ctx context.Context, symbols []string, start *time.Time) error {
	log := logger.FromContext(ctx)

	symbols = domain.NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return domain.NewInvalidConfigurationError("at least one symbol is required")
	}

	s := defaultIngestStart
	if start != nil {
		s = util.DateOnly(*start)
	}
	end := time.Now().UTC()

	inputCh := make(chan string, len(symbols))
	resultCh := make(chan error, len(symbols))
	for _, symbol := range symbols {
		inputCh <- symbol
	}
	close(inputCh)

	var wg sync.WaitGroup
	for i := 0; i < h.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case symbol, ok := <-inputCh:
					if !ok {
						return
					}
					err := h.ingestSymbol(symbol, s, end)
					if err != nil {
						log.Warnf("failed to ingest price for %s: %s", symbol, err.Error())
					} else {
						log.Infow("ingested prices", "symbol", symbol)
					}
					resultCh <- err
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	errs := []error{}
	for err := range resultCh {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to ingest %d/%d symbols. first err: %w", len(errs), len(symbols), errs[0])
	}
	return nil
}

func (h priceServiceHandler) ingestSymbol(symbol string, start, end time.Time) error {
	prices, err := h.fetchHistory(symbol, start, end)
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		return fmt.Errorf("no prices returned for %s", symbol)
	}
	for i := range prices {
		prices[i].Symbol = symbol
	}
	return h.AdjPriceRepository.Add(prices)
}

func fetchYahooHistory(symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Symbol:   symbol,
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	out := []domain.AssetPrice{}
	for iter.Next() {
		bar := iter.Bar()
		if !bar.AdjClose.IsPositive() {
			continue
		}
		out = append(out, domain.AssetPrice{
			Symbol: symbol,
			Date:   util.DateOnly(time.Unix(int64(bar.Timestamp), 0).UTC()),
			Price:  bar.AdjClose,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", symbol, err)
	}

	return out, nil
}
