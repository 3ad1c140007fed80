package service

import (
	"context"
	"dcabacktest/internal/calculator"
	"dcabacktest/internal/domain"
	"dcabacktest/internal/logger"
	"dcabacktest/internal/util"
	"fmt"
	"sync"
	"time"
)

type DcaService interface {
	Run(ctx context.Context, in RunDcaInput) (*domain.DcaRunResult, error)
}

type RunDcaInput struct {
	Config domain.InvestmentConfig
	// Today bounds the end date and is the valuation cutoff. zero means
	// the current UTC date.
	Today time.Time
}

type dcaServiceHandler struct {
	PriceService PriceService
	NumWorkers   int
}

func NewDcaService(priceService PriceService) DcaService {
	return &dcaServiceHandler{
		PriceService: priceService,
		NumWorkers:   4,
	}
}

type simulateWorkInput struct {
	index  int
	symbol string
	series domain.PriceSeries
}

type simulateWorkResult struct {
	index  int
	result domain.AssetResult
}

// Run simulates the plan for every requested asset. a config error fails
// the whole run before prices are loaded; a per-asset error such as missing
// data is reported on that asset only.
func (h dcaServiceHandler) Run(ctx context.Context, in RunDcaInput) (*domain.DcaRunResult, error) {
	log := logger.FromContext(ctx)
	profile := domain.GetProfile(ctx)

	today := in.Today
	if today.IsZero() {
		today = util.Today()
	}
	today = util.DateOnly(today)

	config := in.Config
	if err := config.Validate(today); err != nil {
		return nil, err
	}
	config.Start = util.DateOnly(config.Start)
	config.End = util.DateOnly(config.End)
	config.Symbols = config.UniqueSymbols()

	seriesBySymbol, err := h.PriceService.LoadPriceSeries(ctx, config.Symbols, config.Start, today)
	if err != nil {
		return nil, err
	}

	_, endSpan := profile.StartNewSpan("simulate assets")
	assets, err := h.simulateAll(ctx, config, seriesBySymbol)
	if err != nil {
		return nil, err
	}
	endSpan()

	out := &domain.DcaRunResult{
		Config: config,
		Assets: assets,
	}

	_, endSpan = profile.StartNewSpan("project chart series")
	successful := out.SuccessfulResults()
	out.IndexedSeries = calculator.ToIndexedSeries(successful...)
	out.AbsoluteSeries = calculator.ToAbsoluteSeries(successful...)
	endSpan()

	log.Infow(
		"completed dca run",
		"config", config.String(),
		"numAssets", len(assets),
		"numFailed", len(assets)-len(successful),
	)

	return out, nil
}

func (h dcaServiceHandler) simulateAll(ctx context.Context, config domain.InvestmentConfig, seriesBySymbol map[string]domain.PriceSeries) ([]domain.AssetResult, error) {
	log := logger.FromContext(ctx)

	inputCh := make(chan simulateWorkInput, len(config.Symbols))
	resultCh := make(chan simulateWorkResult, len(config.Symbols))
	for i, symbol := range config.Symbols {
		series, ok := seriesBySymbol[symbol]
		if !ok {
			series = domain.NewPriceSeries(symbol, nil)
		}
		inputCh <- simulateWorkInput{
			index:  i,
			symbol: symbol,
			series: series,
		}
	}
	close(inputCh)

	numWorkers := h.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case input, ok := <-inputCh:
					if !ok {
						return
					}
					result, err := calculator.Simulate(calculator.NewSimulateInput(config, input.series))
					if err != nil {
						log.Warnf("failed to simulate %s: %s", input.symbol, err.Error())
						err = fmt.Errorf("failed to simulate %s: %w", input.symbol, err)
					}
					resultCh <- simulateWorkResult{
						index: input.index,
						result: domain.AssetResult{
							Symbol: input.symbol,
							Result: result,
							Err:    err,
						},
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	out := make([]domain.AssetResult, len(config.Symbols))
	for res := range resultCh {
		out[res.index] = res.result
	}

	// partial results are meaningless once the caller has gone away
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
